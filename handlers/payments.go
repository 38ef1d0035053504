package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movers-api/middleware"
	"movers-api/services"
)

type CreateOrderRequest struct {
	RequestID uint `json:"request_id" binding:"required"`
}

func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	order, err := h.Payments.CreateOrder(c.Request.Context(), middleware.CurrentUser(c), req.RequestID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var req services.VerifyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.Payments.Verify(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment verified successfully", "payment": p})
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Payments.Details(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
