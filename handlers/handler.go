package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"movers-api/middleware"
	"movers-api/services"
	"movers-api/store"
)

// Handler binds HTTP requests to the service layer.
type Handler struct {
	Auth     *services.AuthService
	Requests *services.RequestService
	Payments *services.PaymentService
	Admin    *services.AdminService
	Reviews  *services.ReviewService
	Store    *store.Store
	Log      logrus.FieldLogger
}

// respondError maps a classified service error onto a status code and the
// {"message", "error"} body.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, kind := http.StatusInternalServerError, middleware.KindServer
	switch {
	case errors.Is(err, errors.NotValid):
		status, kind = http.StatusBadRequest, middleware.KindValidation
	case errors.Is(err, errors.Unauthorized):
		status, kind = http.StatusUnauthorized, middleware.KindAuth
	case errors.Is(err, errors.Forbidden):
		status, kind = http.StatusForbidden, middleware.KindForbidden
	case errors.Is(err, errors.NotFound):
		status, kind = http.StatusNotFound, middleware.KindNotFound
	case errors.Is(err, errors.AlreadyExists):
		status, kind = http.StatusConflict, middleware.KindConflict
	case errors.Is(err, services.ErrNotConfigured):
		status, kind = http.StatusInternalServerError, middleware.KindConfig
	}

	if status >= http.StatusInternalServerError {
		h.Log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	}
	c.JSON(status, gin.H{"message": message(err), "error": kind})
}

// message strips juju annotations down to the classified message.
func message(err error) string {
	if cause := errors.Cause(err); cause != nil {
		return cause.Error()
	}
	return err.Error()
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error(), "error": middleware.KindValidation})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name, "error": middleware.KindValidation})
		return 0, false
	}
	return uint(id), true
}
