package api

import (
	"net/http"
	"strconv"
	"time"

	"donation-portal/internal/database"
	"donation-portal/internal/models"
	"donation-portal/internal/response"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns the admin overview
// GET /api/admin/dashboard
func (h *Handler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboard.GetDashboard(c.Request.Context(), time.Now())
	if err != nil {
		response.FromError(c, err, "", "Failed to load dashboard data")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListTransactions lists transactions for the admin table
// GET /api/admin/transactions?status=&limit=&offset=
func (h *Handler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	transactions, err := h.dashboard.ListTransactions(c.Request.Context(), database.TransactionFilter{
		Status: models.TransactionStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.FromError(c, err, "", "Failed to fetch transactions")
		return
	}
	c.JSON(http.StatusOK, transactions)
}
