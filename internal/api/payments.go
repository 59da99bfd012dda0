package api

import (
	"net/http"

	"donation-portal/internal/response"
	"donation-portal/internal/services"
	"donation-portal/pkg/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const transactionNotFound = "Transaction not found"

// InitiateDonation records a donation and returns where to send the donor
// POST /api/donations/initiate
func (h *Handler) InitiateDonation(c *gin.Context) {
	var input services.DonationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	redirect, err := h.payments.InitiateDonation(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err, transactionNotFound, "Failed to initiate donation")
		return
	}
	c.JSON(http.StatusOK, redirect)
}

// PaymentWebhook handles Pesapal instant payment notifications
// GET /api/payments/webhook?OrderTrackingId=&OrderMerchantReference=
func (h *Handler) PaymentWebhook(c *gin.Context) {
	trackingID := c.Query("OrderTrackingId")
	merchantReference := c.Query("OrderMerchantReference")

	if trackingID == "" || merchantReference == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "Missing required parameters")
		return
	}

	result, err := h.payments.HandleNotification(c.Request.Context(), trackingID, merchantReference)
	if err != nil {
		response.FromError(c, err, transactionNotFound, "Webhook processing failed")
		return
	}

	logging.With(
		zap.String("merchant_reference", merchantReference),
		zap.String("tracking_id", trackingID),
		zap.String("notification_type", c.Query("OrderNotificationType")),
		zap.String("outcome", string(result.Outcome)),
		zap.String("status", string(result.Status)),
	).Info("Payment notification processed")

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

// GetPaymentStatus returns the public status of a payment
// GET /api/payments/status/:merchantReference
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	status, err := h.payments.GetPaymentStatus(c.Request.Context(), c.Param("merchantReference"))
	if err != nil {
		response.FromError(c, err, transactionNotFound, "Failed to check payment status")
		return
	}
	c.JSON(http.StatusOK, status)
}
