package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/logging"
	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/services"
)

// defaultOrigins are the local frontend dev servers.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// RouterDeps is everything the HTTP surface is built from.
type RouterDeps struct {
	Jobs         *services.JobService
	Offers       *services.OfferService
	Reviews      *services.ReviewService
	Auth         *services.AuthService
	Tokens       *auth.TokenManager
	Health       HealthReporter
	FrontendURL  string
	SecureCookie bool
	Log          *zap.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.GinLogger(d.Log))

	allowedOrigins := append([]string(nil), defaultOrigins...)
	if d.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, d.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	jobHandler := NewJobHandler(d.Jobs, d.Log)
	applicationHandler := NewOfferHandler(models.OfferKindApplication, d.Offers, d.Log)
	proposalHandler := NewOfferHandler(models.OfferKindProposal, d.Offers, d.Log)
	reviewHandler := NewReviewHandler(d.Reviews, d.Log)
	authHandler := NewAuthHandler(d.Auth, d.Tokens, d.SecureCookie, d.Log)
	healthHandler := NewHealthHandler(d.Health)

	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/mock", authHandler.MockLogin)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", auth.RequireSession(d.Tokens), authHandler.GetMe)
		}

		api.POST("/jobs", jobHandler.CreateJob)
		api.GET("/jobs", jobHandler.ListJobs)
		api.GET("/jobs/:id", jobHandler.GetJob)

		mountOffers(api.Group("/applications"), applicationHandler)
		mountOffers(api.Group("/proposals"), proposalHandler)

		api.POST("/reviews", reviewHandler.SubmitReview)
		api.GET("/profiles/:userId", reviewHandler.GetProfile)
	}

	return router
}

func mountOffers(g *gin.RouterGroup, h *OfferHandler) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.UpdateStatus)
}
