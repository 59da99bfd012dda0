package api

import (
	"net/http"

	"donation-portal/internal/response"
	"donation-portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const eventNotFound = "Event not found"

func eventID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorJSON(c, http.StatusNotFound, eventNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// ListEvents lists events open for registration
// GET /api/events
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.events.ListActiveEvents(c.Request.Context())
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to fetch events")
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetEvent returns one event with its registration count
// GET /api/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to fetch event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// RegisterForEvent registers an attendee and returns the payment redirect
// POST /api/events/:id/register
func (h *Handler) RegisterForEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var input services.RegistrationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	redirect, err := h.payments.RegisterForEvent(c.Request.Context(), id, input)
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to register for event")
		return
	}
	c.JSON(http.StatusOK, redirect)
}

// ListAllEvents lists every event for the admin dashboard
// GET /api/admin/events
func (h *Handler) ListAllEvents(c *gin.Context) {
	events, err := h.events.ListAllEvents(c.Request.Context())
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to fetch events")
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent creates an event
// POST /api/admin/events
func (h *Handler) CreateEvent(c *gin.Context) {
	var input services.EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid event data")
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to create event")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// UpdateEvent edits an event
// PATCH /api/admin/events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var update services.EventUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid event data")
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), id, update)
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to update event")
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListEventRegistrations lists who registered for an event
// GET /api/admin/events/:id/registrations
func (h *Handler) ListEventRegistrations(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	registrations, err := h.events.ListRegistrations(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, eventNotFound, "Failed to fetch registrations")
		return
	}
	c.JSON(http.StatusOK, registrations)
}
