package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mentor-booking-api/internal/middleware"
	"github.com/noah-isme/mentor-booking-api/internal/models"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Availability *AvailabilityHandler
	Tutorials    *TutorialHandler
	Tickets      *TicketHandler
	Lessons      *LessonHandler
	Sessions     *BookingSessionHandler
	Metrics      *MetricsHandler
}

// RouteOptions carries the middleware shared by the route table.
type RouteOptions struct {
	Tokens middleware.TokenValidator
	// OccupancyLimiter guards the month occupancy endpoints. Nil disables limiting.
	OccupancyLimiter gin.HandlerFunc
}

// RegisterRoutes mounts ops endpoints at the root and the API under prefix.
func RegisterRoutes(engine *gin.Engine, prefix string, h Handlers, opts RouteOptions) {
	if h.Metrics != nil {
		engine.GET("/metrics", h.Metrics.Prometheus)
		engine.GET("/health", h.Metrics.Health)
		engine.GET("/ready", h.Metrics.Ready)
	}

	limiter := opts.OccupancyLimiter
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	auth := middleware.JWT(opts.Tokens)
	mentee := middleware.RequireRoles(models.RoleMentee)
	mentor := middleware.RequireRoles(models.RoleMentor)

	api := engine.Group(prefix)

	mentors := api.Group("/mentors")
	mentors.GET("/me/availability", auth, mentor, h.Availability.ListMine)
	mentors.POST("/me/availability", auth, mentor, h.Availability.Add)
	mentors.DELETE("/me/availability/:availabilityId", auth, mentor, h.Availability.Delete)
	mentors.GET("/:id/availability", h.Availability.Public)

	tutorials := api.Group("/tutorials")
	tutorials.GET("/:id", h.Tutorials.Get)
	tutorials.GET("/:id/available-slots", h.Tutorials.AvailableSlots)
	tutorials.GET("/:id/occupancy", middleware.OptionalJWT(opts.Tokens), limiter, h.Tutorials.Occupancy)
	tutorials.GET("/:id/occupancy/export", middleware.OptionalJWT(opts.Tokens), limiter, h.Tutorials.ExportOccupancy)
	tutorials.GET("/:id/booking-eligibility", auth, mentee, h.Tutorials.Eligibility)

	tickets := api.Group("/tickets", auth, mentee)
	tickets.GET("/my", h.Tickets.ListMine)
	tickets.POST("/:id/lessons", h.Tickets.CreateLesson)

	lessons := api.Group("/lessons", auth)
	lessons.GET("/my", mentee, h.Lessons.ListMine)
	lessons.GET("/requests", mentor, h.Lessons.ListRequests)
	lessons.PUT("/:id/confirm", mentor, h.Lessons.Confirm)
	lessons.PUT("/:id/reject", mentor, h.Lessons.Reject)
	lessons.PUT("/:id/start", mentor, h.Lessons.Start)
	lessons.PUT("/:id/complete", mentor, h.Lessons.Complete)

	sessions := api.Group("/booking-sessions", auth, mentee)
	sessions.POST("", h.Sessions.Open)
	sessions.GET("/current", h.Sessions.Current)
	sessions.DELETE("/current", h.Sessions.Close)
	sessions.PUT("/current/date", h.Sessions.SelectDate)
	sessions.PUT("/current/time", h.Sessions.SelectTime)
	sessions.PUT("/current/message", h.Sessions.UpdateMessage)
	sessions.GET("/current/calendar", limiter, h.Sessions.Calendar)
	sessions.POST("/current/submit", h.Sessions.Submit)
}
