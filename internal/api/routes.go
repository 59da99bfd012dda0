package api

import (
	"net/http"

	"donation-portal/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, h *Handler, limiter *middleware.RateLimiter) {
	r.Use(middleware.LoadSession(h.auth))

	// API route group
	api := r.Group("/api")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", middleware.RequireSession(), h.Me)
		}

		// Public event routes
		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
			events.POST("/:id/register", h.RegisterForEvent)
			events.POST("", middleware.RequireAdmin(), h.CreateEvent)
		}

		api.POST("/donations/initiate", h.InitiateDonation)

		// Payment routes (no session, the gateway calls the webhook)
		payments := api.Group("/payments")
		{
			payments.GET("/webhook", h.PaymentWebhook)
			payments.GET("/status/:merchantReference", h.GetPaymentStatus)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/dashboard", h.GetDashboard)
			admin.GET("/transactions", h.ListTransactions)
			admin.GET("/events", h.ListAllEvents)
			admin.POST("/events", h.CreateEvent)
			admin.PATCH("/events/:id", h.UpdateEvent)
			admin.GET("/events/:id/registrations", h.ListEventRegistrations)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "donation-portal",
		})
	})
}
