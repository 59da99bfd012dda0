package api

import (
	"donation-portal/internal/config"
	"donation-portal/internal/services"
)

// Handler serves the HTTP API
type Handler struct {
	payments  *services.PaymentService
	events    *services.EventService
	dashboard *services.DashboardService
	auth      *services.AuthService
	cfg       *config.Config
}

// NewHandler wires the services behind the routes
func NewHandler(
	payments *services.PaymentService,
	events *services.EventService,
	dashboard *services.DashboardService,
	auth *services.AuthService,
	cfg *config.Config,
) *Handler {
	return &Handler{
		payments:  payments,
		events:    events,
		dashboard: dashboard,
		auth:      auth,
		cfg:       cfg,
	}
}
