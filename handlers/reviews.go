package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movers-api/middleware"
	"movers-api/services"
)

func (h *Handler) CreateReview(c *gin.Context) {
	var req services.CreateReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	review, err := h.Reviews.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) ProviderReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Reviews.ListForProvider(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
