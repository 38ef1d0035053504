package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movers-api/models"
	"movers-api/statemachine"
)

// Health reports liveness and database reachability.
func (h *Handler) Health(c *gin.Context) {
	status, db := http.StatusOK, "up"
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		status, db = http.StatusServiceUnavailable, "down"
	}
	c.JSON(status, gin.H{
		"status":   http.StatusText(status),
		"service":  "Movers & Packers API",
		"database": db,
	})
}

// StateMachineInfo documents the request lifecycle for API consumers.
func StateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"states":          models.AllStatuses,
		"terminal_states": []models.RequestStatus{models.StatusCompleted, models.StatusCancelled},
		"transitions":     statemachine.GetAllTransitions(),
		"notes": []string{
			"Only admins claim requests; a claim moves pending to claimed.",
			"An admin may only update requests they claimed, superadmins may update any.",
			"Moving a request back to pending releases its claim.",
			"Clients may only cancel their own requests, from pending, claimed or accepted.",
			"A verified payment moves the request to accepted.",
		},
	})
}
