package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"movers-api/middleware"
)

// AdminListUsers returns all users, optionally narrowed with ?role=.
func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.Admin.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.Admin.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Admin.DeleteUser(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) AdminToggleStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	active, err := h.Admin.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	msg := "Account deactivated successfully"
	if active {
		msg = "Account activated successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "is_active": active})
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *Handler) AdminUpdateRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.Admin.UpdateRole(c.Request.Context(), middleware.CurrentUser(c), id, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated to " + req.Role + " successfully", "user": user})
}

func (h *Handler) AdminPendingAdmins(c *gin.Context) {
	users, err := h.Admin.PendingAdmins(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) AdminApprove(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Admin.ApproveAdmin(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin approved successfully"})
}

// MyPerformance serves ?time_range=7d|30d|6m and, for superadmins, ?admin_id=.
func (h *Handler) MyPerformance(c *gin.Context) {
	var target uint
	if raw := c.Query("admin_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid admin_id", "error": middleware.KindValidation})
			return
		}
		target = uint(id)
	}
	report, err := h.Admin.Performance(c.Request.Context(), middleware.CurrentUser(c), target, c.Query("time_range"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
