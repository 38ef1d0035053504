package routes

import (
	"github.com/gin-gonic/gin"

	"movers-api/handlers"
	"movers-api/metrics"
	"movers-api/middleware"
)

// SetupRoutes registers every endpoint on r. authLimiter throttles the
// unauthenticated credential endpoints and may be nil.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Authenticator, authLimiter *middleware.RateLimiter) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		credentials := public.Group("/auth")
		if authLimiter != nil {
			credentials.Use(authLimiter.Handler())
		}
		credentials.POST("/register", h.Register)
		credentials.POST("/login", h.Login)

		public.GET("/state-machine", handlers.StateMachineInfo)
		public.GET("/reviews/provider/:id", h.ProviderReviews)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(auth.AuthRequired())
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/me", h.Me)
		authed.PUT("/auth/profile", h.UpdateProfile)
		authed.PUT("/auth/change-password", h.ChangePassword)
		authed.PUT("/auth/change-email", h.ChangeEmail)

		// Service requests; role rules live in the service layer
		authed.GET("/services", h.ListRequests)
		authed.POST("/services", h.CreateRequest)
		authed.GET("/services/:id", h.GetRequest)
		authed.PATCH("/services/:id", h.UpdateRequestStatus)
		authed.DELETE("/services/:id", h.DeleteRequest)
		authed.POST("/services/:id/claim", h.ClaimRequest)

		authed.POST("/payments/create-order", h.CreatePaymentOrder)
		authed.POST("/payments/verify", h.VerifyPayment)
		authed.GET("/payments/:id", h.GetPayment)

		authed.POST("/reviews", h.CreateReview)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(auth.AuthRequired(), middleware.AdminRequired())
	{
		admin.GET("/users", h.AdminListUsers)
		admin.GET("/stats", h.AdminStats)
		admin.GET("/my-performance", h.MyPerformance)
	}

	// ── Superadmin routes ──────────────────────────────────────────
	super := r.Group("/api/admin")
	super.Use(auth.AuthRequired(), middleware.SuperadminRequired())
	{
		super.DELETE("/users/:id", h.AdminDeleteUser)
		super.PATCH("/users/:id/toggle-status", h.AdminToggleStatus)
		super.PATCH("/users/:id/role", h.AdminUpdateRole)
		super.GET("/pending-admins", h.AdminPendingAdmins)
		super.PATCH("/approve-admin/:id", h.AdminApprove)
	}
}
