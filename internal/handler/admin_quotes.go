package handler

import (
	"net/http"
	"strconv"

	"hexagono/internal/apierror"
	"hexagono/internal/dto"
	"hexagono/internal/service"
	"hexagono/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type AdminQuotesHandler struct {
	svc service.QuoteService
	rdb *redis.Client
}

func NewAdminQuotesHandler(svc service.QuoteService, rdb *redis.Client) *AdminQuotesHandler {
	return &AdminQuotesHandler{svc: svc, rdb: rdb}
}

// Listar godoc
// @Summary      Listar cotizaciones
// @Description  Lista paginada, más recientes primero. desde/hasta son fechas inclusivas en la zona horaria configurada.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        estado    query string false "PENDING | IN_REVIEW | QUOTED | COMPLETED | CANCELLED"
// @Param        prioridad query string false "LOW | MEDIUM | HIGH"
// @Param        servicio  query string false "Tipo de servicio"
// @Param        q         query string false "Busca en número, nombre, email y empresa"
// @Param        desde     query string false "YYYY-MM-DD"
// @Param        hasta     query string false "YYYY-MM-DD"
// @Param        page      query int    false "Página (default 1)"
// @Param        limit     query int    false "Registros por página (default 20, max 100)"
// @Success      200  {object} dto.QuoteListResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/admin/cotizaciones [get]
func (h *AdminQuotesHandler) Listar(c *gin.Context) {
	var filter dto.QuoteFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID godoc
// @Summary      Detalle de cotización
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "UUID de la cotización"
// @Success      200  {object} dto.QuoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/admin/cotizaciones/{id} [get]
func (h *AdminQuotesHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramUUID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado
// @Description  Aplica la transición, registra el historial con el operador del token y notifica al cliente en segundo plano si el estado cambió.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                  true "UUID de la cotización"
// @Param        body body     dto.UpdateStatusRequest true "Nuevo estado"
// @Success      200  {object} dto.StatusChangeResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/admin/cotizaciones/{id}/estado [patch]
func (h *AdminQuotesHandler) CambiarEstado(c *gin.Context) {
	id, ok := paramUUID(c)
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, operator(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar prioridad / asignación
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                 true "UUID de la cotización"
// @Param        body body     dto.UpdateQuoteRequest true "Campos a modificar"
// @Success      200  {object} dto.QuoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/admin/cotizaciones/{id} [patch]
func (h *AdminQuotesHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c)
	if !ok {
		return
	}
	var req dto.UpdateQuoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateAttributes(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarNota godoc
// @Summary      Agregar nota
// @Description  Las notas internas no se muestran en el seguimiento del cliente.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string             true "UUID de la cotización"
// @Param        body body     dto.AddNoteRequest true "Nota"
// @Success      201  {object} dto.NoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/admin/cotizaciones/{id}/notas [post]
func (h *AdminQuotesHandler) AgregarNota(c *gin.Context) {
	id, ok := paramUUID(c)
	if !ok {
		return
	}
	var req dto.AddNoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddNote(c.Request.Context(), id, operator(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DescargarPDF godoc
// @Summary      Descargar resumen PDF
// @Description  El mismo resumen que se adjunta al email de cotización enviada.
// @Tags         admin
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path     string true "UUID de la cotización"
// @Success      200  {file}   binary
// @Failure      404  {object} apierror.APIError
// @Router       /v1/admin/cotizaciones/{id}/pdf [get]
func (h *AdminQuotesHandler) DescargarPDF(c *gin.Context) {
	id, ok := paramUUID(c)
	if !ok {
		return
	}
	filename, data, err := h.svc.SummaryPDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// BarridoRecordatorios godoc
// @Summary      Ejecutar barrido de recordatorios
// @Description  Envía recordatorios de las cotizaciones PENDING antiguas, igual que la tarea programada.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.SweepResponse
// @Router       /v1/admin/recordatorios/barrido [post]
func (h *AdminQuotesHandler) BarridoRecordatorios(c *gin.Context) {
	res := h.svc.RunReminderSweep(c.Request.Context())
	log.Info().
		Str("operator", operator(c)).
		Int("processed", res.Processed).
		Int("failed", res.Failed).
		Msg("admin: manual reminder sweep")
	c.JSON(http.StatusOK, res)
}

// ListarDLQ godoc
// @Summary      Notificaciones fallidas
// @Description  Trabajos de notificación movidos a la dead letter queue, más recientes primero.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Máximo de entradas (default 50)"
// @Success      200  {object} map[string]interface{}
// @Failure      503  {object} apierror.APIError
// @Router       /v1/admin/notificaciones/dlq [get]
func (h *AdminQuotesHandler) ListarDLQ(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	ctx := c.Request.Context()
	total, err := worker.DLQLength(ctx, h.rdb, worker.QueueNotifications)
	if err != nil {
		respondError(c, apierror.Transient(err))
		return
	}
	entries, err := worker.ListDLQ(ctx, h.rdb, worker.QueueNotifications, limit)
	if err != nil {
		respondError(c, apierror.Transient(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "entries": entries})
}

// ReintentarDLQ godoc
// @Summary      Reencolar notificaciones fallidas
// @Description  Devuelve a la cola los trabajos más antiguos de la dead letter queue.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Máximo de trabajos (default 50)"
// @Success      200  {object} map[string]interface{}
// @Failure      503  {object} apierror.APIError
// @Router       /v1/admin/notificaciones/dlq/reintentar [post]
func (h *AdminQuotesHandler) ReintentarDLQ(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	moved, err := worker.RequeueDLQ(c.Request.Context(), h.rdb, worker.QueueNotifications, limit)
	if err != nil {
		respondError(c, apierror.Transient(err))
		return
	}
	log.Info().Str("operator", operator(c)).Int("jobs", moved).Msg("admin: dead-lettered notifications requeued")
	c.JSON(http.StatusOK, gin.H{"requeued": moved})
}
