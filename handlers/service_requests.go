package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movers-api/middleware"
	"movers-api/services"
)

func (h *Handler) CreateRequest(c *gin.Context) {
	var req services.CreateRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	out, err := h.Requests.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// ListRequests supports ?filter=mine|unclaimed for admins and ?status= for everyone.
func (h *Handler) ListRequests(c *gin.Context) {
	list, err := h.Requests.List(c.Request.Context(), middleware.CurrentUser(c), services.ListQuery{
		Filter: c.Query("filter"),
		Status: c.Query("status"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, next, err := h.Requests.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request":           req,
		"valid_next_states": next,
	})
}

func (h *Handler) ClaimRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req, err := h.Requests.Claim(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// UpdateRequestStatus handles every status change, including client cancellation.
func (h *Handler) UpdateRequestStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body services.UpdateStatusInput
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	if body.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "status is required", "error": middleware.KindValidation})
		return
	}
	req, err := h.Requests.UpdateStatus(c.Request.Context(), middleware.CurrentUser(c), id, body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) DeleteRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Requests.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service request removed"})
}
