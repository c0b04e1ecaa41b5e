package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/service"
	"github.com/noah-isme/sma-room-scheduler/pkg/response"
)

// ConflictHandler exposes stored conflicts and the monitor.
type ConflictHandler struct {
	service *service.ConflictService
}

// NewConflictHandler constructs handler.
func NewConflictHandler(svc *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{service: svc}
}

// List godoc
// @Summary List detected conflicts
// @Tags Conflicts
// @Produce json
// @Param room_id query string false "Room"
// @Param day query string false "Day"
// @Param severity query string false "Critical, High, Medium or Low"
// @Param notified query bool false "Notification state"
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) List(c *gin.Context) {
	var query dto.ConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	conflicts, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, pagination)
}

// Export godoc
// @Summary Export detected conflicts
// @Tags Conflicts
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /conflicts/export [get]
func (h *ConflictHandler) Export(c *gin.Context) {
	var query dto.ConflictExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	export, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, export.Filename, export.ContentType, export.Body)
}

// Scan godoc
// @Summary Run a conflict scan now
// @Description Notifies every detected conflict unless notify_all is false.
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ScanRequest false "Scan options"
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /conflicts/scan [post]
func (h *ConflictHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, invalidPayload(err))
		return
	}
	report, err := h.service.Scan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Monitor godoc
// @Summary Conflict monitor status
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts/monitor [get]
func (h *ConflictHandler) Monitor(c *gin.Context) {
	response.OK(c, h.service.Status())
}
