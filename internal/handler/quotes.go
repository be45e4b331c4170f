package handler

import (
	"net/http"

	"hexagono/internal/dto"
	"hexagono/internal/service"

	"github.com/gin-gonic/gin"
)

// QuotesHandler serves the public quote form: catalog, calculators and submission.
type QuotesHandler struct{ svc service.QuoteService }

func NewQuotesHandler(svc service.QuoteService) *QuotesHandler { return &QuotesHandler{svc: svc} }

// Catalogo godoc
// @Summary      Catálogo de servicios
// @Description  Tipos de servicio con precio base y de plan, funcionalidades por grupo, urgencias y descuentos.
// @Tags         cotizaciones
// @Produce      json
// @Success      200  {object} dto.CatalogResponse
// @Router       /v1/catalogo [get]
func (h *QuotesHandler) Catalogo(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Catalog())
}

// Preview godoc
// @Summary      Previsualizar estimación
// @Description  Calcula el precio estimado sin persistir. Las funcionalidades desconocidas se omiten.
// @Tags         cotizaciones
// @Accept       json
// @Produce      json
// @Param        body body dto.EstimateRequest true "Configuración a cotizar"
// @Success      200  {object} dto.EstimateResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/cotizaciones/preview [post]
func (h *QuotesHandler) Preview(c *gin.Context) {
	var req dto.EstimateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Preview(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Rapida godoc
// @Summary      Cotización rápida
// @Description  Precio de plan más extras, ajustado por urgencia y descuento.
// @Tags         cotizaciones
// @Accept       json
// @Produce      json
// @Param        body body dto.QuickQuoteRequest true "Plan, extras, urgencia y descuento"
// @Success      200  {object} dto.QuickQuoteResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/cotizaciones/rapida [post]
func (h *QuotesHandler) Rapida(c *gin.Context) {
	var req dto.QuickQuoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Quick(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Crear godoc
// @Summary      Solicitar cotización
// @Description  Registra la cotización en estado PENDING y devuelve el número y el token de seguimiento. Los emails se envían en segundo plano.
// @Tags         cotizaciones
// @Accept       json
// @Produce      json
// @Param        body body dto.SubmitQuoteRequest true "Datos del cliente y del servicio"
// @Success      201  {object} dto.SubmitQuoteResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Failure      429  {object} apierror.APIError
// @Router       /v1/cotizaciones [post]
func (h *QuotesHandler) Crear(c *gin.Context) {
	var req dto.SubmitQuoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
