package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/service"
	"github.com/noah-isme/sma-room-scheduler/pkg/response"
)

// AvailabilityHandler serves overlap checks, free slots and room suggestions.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// CheckOverlap godoc
// @Summary Analyse a room's conflicts for a day
// @Description With start_time and end_time only that window is checked, otherwise every pair of bookings.
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.OverlapCheckRequest true "Overlap check"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/overlap [post]
func (h *AvailabilityHandler) CheckOverlap(c *gin.Context) {
	var req dto.OverlapCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	report, err := h.service.CheckOverlap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// FreeSlots godoc
// @Summary List free slots of a room
// @Tags Availability
// @Produce json
// @Param room_id query string true "Room ID"
// @Param day query string true "Day of week"
// @Success 200 {object} response.Envelope
// @Router /availability/free-slots [get]
func (h *AvailabilityHandler) FreeSlots(c *gin.Context) {
	var query dto.FreeSlotsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	report, err := h.service.FreeSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// SuggestRooms godoc
// @Summary Suggest rooms free for a window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.SuggestRoomsRequest true "Window"
// @Success 200 {object} response.Envelope
// @Router /availability/suggestions [post]
func (h *AvailabilityHandler) SuggestRooms(c *gin.Context) {
	var req dto.SuggestRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.SuggestRooms(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
