package routes

import (
	"bloodlink/handlers"
	"bloodlink/middleware"
	"bloodlink/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewEngine builds the gin engine with logging, recovery, CORS and every route.
func NewEngine(h *handlers.Handler, auth *middleware.Auth, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(log), gin.Recovery(), middleware.CORS())
	r.GET("/health", h.Health)
	SetupRoutes(r, h, auth)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Auth) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(auth.Required())
	{
		authed.GET("/profile", h.GetProfile)
		authed.GET("/donors", h.ListDonors)
		authed.GET("/donors/leaderboard", h.Leaderboard)
		authed.GET("/blood-requests", h.ListBloodRequests)
		authed.PUT("/blood-requests/:id", h.UpdateBloodRequestStatus)
	}

	// ── Donor routes ───────────────────────────────────────────────
	donor := r.Group("/api/donors/me")
	donor.Use(auth.Required(), middleware.RoleRequired(models.RoleDonor))
	{
		donor.GET("", h.GetMyDonorProfile)
		donor.PUT("/availability", h.UpdateAvailability)
	}

	// ── Recipient routes ───────────────────────────────────────────
	recipient := r.Group("/api")
	recipient.Use(auth.Required(), middleware.RoleRequired(models.RoleRecipient))
	{
		recipient.POST("/blood-requests", h.CreateBloodRequest)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api")
	admin.Use(auth.Required(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/stats", h.GetStats)
		admin.GET("/activities", h.GetActivities)
	}
}
