package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/shreyaskr77/Solvathon/internal/domain"
	"github.com/shreyaskr77/Solvathon/internal/service"

	"github.com/gin-gonic/gin"
)

// EventHandler holds the event service dependency.
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date" binding:"required"`
	Location      string    `json:"location"`
	TargetCourses []string  `json:"targetCourses"`
}

// Create schedules a departmental event and fans out notifications.
func (h *EventHandler) Create(c *gin.Context) {
	creatorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), creatorID, service.EventInput{
		Title:         req.Title,
		Description:   req.Description,
		Date:          req.Date,
		Location:      req.Location,
		TargetCourses: req.TargetCourses,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create event.")
		}
		return
	}
	c.JSON(http.StatusCreated, event)
}

// List returns all scheduled events.
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list events.")
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	c.JSON(http.StatusOK, events)
}

// Delete removes a scheduled event.
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}
