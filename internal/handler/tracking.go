package handler

import (
	"net/http"

	"hexagono/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackingHandler serves the client tracking view. The access token is the
// only credential; unknown tokens are 404.
type TrackingHandler struct{ svc service.QuoteService }

func NewTrackingHandler(svc service.QuoteService) *TrackingHandler {
	return &TrackingHandler{svc: svc}
}

// PorToken godoc
// @Summary      Seguimiento por token
// @Description  Vista del cliente: estado, historial sin operadores y notas no internas.
// @Tags         seguimiento
// @Produce      json
// @Param        token path     string true "Token de acceso (32 caracteres)"
// @Success      200   {object} dto.TrackingResponse
// @Failure      404   {object} apierror.APIError
// @Router       /v1/seguimiento/{token} [get]
func (h *TrackingHandler) PorToken(c *gin.Context) {
	resp, err := h.svc.Track(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}

// PorNumero godoc
// @Summary      Seguimiento por número
// @Description  Igual que el seguimiento por token, pero el token viaja como query y debe corresponder al número.
// @Tags         seguimiento
// @Produce      json
// @Param        numero path     string true "Número de cotización"
// @Param        token  query    string true "Token de acceso"
// @Success      200    {object} dto.TrackingResponse
// @Failure      403    {object} apierror.APIError
// @Failure      404    {object} apierror.APIError
// @Router       /v1/cotizaciones/{numero}/seguimiento [get]
func (h *TrackingHandler) PorNumero(c *gin.Context) {
	resp, err := h.svc.TrackByNumber(c.Request.Context(), c.Param("numero"), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}
