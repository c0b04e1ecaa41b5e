package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the endpoint handlers mounted by Register.
type Handlers struct {
	Schedule     *ScheduleHandler
	Availability *AvailabilityHandler
	Conflict     *ConflictHandler
	Metrics      *MetricsHandler
}

// Register mounts the ops endpoints at the root and the API under prefix.
func Register(r *gin.Engine, prefix string, h Handlers) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)
	if h.Schedule != nil {
		api.GET("/schedules", h.Schedule.List)
		api.POST("/schedules", h.Schedule.Inject)
		api.POST("/schedules/reallocate", h.Schedule.Reallocate)
		api.POST("/schedules/reallocate/validate", h.Schedule.ValidateReallocation)
		api.GET("/rooms/:roomId/schedules", h.Schedule.ListByRoom)
	}
	if h.Availability != nil {
		availability := api.Group("/availability")
		availability.POST("/overlap", h.Availability.CheckOverlap)
		availability.GET("/free-slots", h.Availability.FreeSlots)
		availability.POST("/suggestions", h.Availability.SuggestRooms)
	}
	if h.Conflict != nil {
		conflicts := api.Group("/conflicts")
		conflicts.GET("", h.Conflict.List)
		conflicts.GET("/export", h.Conflict.Export)
		conflicts.POST("/scan", h.Conflict.Scan)
		conflicts.GET("/monitor", h.Conflict.Monitor)
	}
}
