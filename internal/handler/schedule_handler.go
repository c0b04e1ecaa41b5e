package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-room-scheduler/internal/dto"
	"github.com/noah-isme/sma-room-scheduler/internal/models"
	"github.com/noah-isme/sma-room-scheduler/internal/service"
	appErrors "github.com/noah-isme/sma-room-scheduler/pkg/errors"
	"github.com/noah-isme/sma-room-scheduler/pkg/response"
)

// ScheduleHandler manages booking endpoints.
type ScheduleHandler struct {
	service      *service.ScheduleService
	reallocation *service.ReallocationService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService, reallocation *service.ReallocationService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, reallocation: reallocation}
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param room query string false "Filter by room"
// @Param day query string false "Filter by day"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := scheduleFilter(c)
	filter.RoomID = c.Query("room")

	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// ListByRoom godoc
// @Summary List schedules of a room
// @Tags Schedules
// @Produce json
// @Param roomId path string true "Room ID"
// @Param day query string false "Filter by day"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rooms/{roomId}/schedules [get]
func (h *ScheduleHandler) ListByRoom(c *gin.Context) {
	schedules, pagination, err := h.service.ListByRoom(c.Request.Context(), c.Param("roomId"), scheduleFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Inject godoc
// @Summary Book a class into a room
// @Description Rejects the booking with SCHEDULE_CONFLICT when it overlaps an existing one.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.InjectScheduleRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Inject(c *gin.Context) {
	var req dto.InjectScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	record, err := h.service.Inject(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Reallocate godoc
// @Summary Move a booking to another room or time
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ReallocateRequest true "Reallocation"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/reallocate [post]
func (h *ScheduleHandler) Reallocate(c *gin.Context) {
	var req dto.ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.reallocation.Reallocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ValidateReallocation godoc
// @Summary Check a move without applying it
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ReallocateRequest true "Reallocation"
// @Success 200 {object} response.Envelope
// @Router /schedules/reallocate/validate [post]
func (h *ScheduleHandler) ValidateReallocation(c *gin.Context) {
	var req dto.ReallocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	check, err := h.reallocation.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, &check.Pagination)
}

func scheduleFilter(c *gin.Context) models.ScheduleFilter {
	filter := models.ScheduleFilter{Day: c.Query("day")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	return filter
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
