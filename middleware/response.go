package middleware

import "github.com/gin-gonic/gin"

// Error kinds carried in the "error" field of failure bodies.
const (
	KindValidation = "ValidationError"
	KindAuth       = "AuthError"
	KindForbidden  = "ForbiddenError"
	KindConflict   = "ConflictError"
	KindNotFound   = "NotFoundError"
	KindConfig     = "ConfigError"
	KindRateLimit  = "RateLimitError"
	KindServer     = "ServerError"
)

// Abort writes the JSON error body and stops the handler chain.
func Abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message, "error": kind})
}
