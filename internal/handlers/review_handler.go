package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/services"
)

// ReviewHandler serves reviews and provider profiles.
type ReviewHandler struct {
	reviews *services.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(reviews *services.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, log: log}
}

// SubmitReview records the poster's review of a job. The session token is
// checked by the service so the poster match happens in one place.
// POST /api/reviews
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reviews.SubmitReview(c.Request.Context(), auth.TokenFromRequest(c), req); err != nil {
		respondError(c, h.log, err, "Failed to submit review")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review submitted successfully"})
}

// GetProfile returns a provider's reputation profile
// GET /api/profiles/:userId
func (h *ReviewHandler) GetProfile(c *gin.Context) {
	profile, err := h.reviews.GetProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":       profile,
		"averageRating": profile.AverageRating(),
	})
}
