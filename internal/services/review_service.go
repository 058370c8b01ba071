package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/reviews"
)

// TokenVerifier resolves a session token to its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ReviewService writes reviews and keeps provider reputation up to date.
type ReviewService struct {
	store    reviews.Store
	tokens   TokenVerifier
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

func NewReviewService(store reviews.Store, tokens TokenVerifier, log *zap.Logger) *ReviewService {
	return &ReviewService{
		store:    store,
		tokens:   tokens,
		validate: newValidator(),
		log:      log,
		now:      time.Now,
	}
}

// SubmitReview records the poster's review of a job and folds the ratings
// into the provider's profile. The job record and the profile are separate
// documents: if the profile write fails the job review stays applied.
func (s *ReviewService) SubmitReview(ctx context.Context, token string, req models.SubmitReviewRequest) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return newError(ErrUnauthorized, "Unauthorized")
	}
	requesterID := claims.UserID

	if err := validateStruct(s.validate, req); err != nil {
		return err
	}

	record, err := s.store.GetJobRecord(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return newError(ErrNotFound, "Job not found")
		}
		return fmt.Errorf("failed to load job record: %w", err)
	}
	if record.PostedBy != requesterID {
		return newError(ErrUnauthorized, "Unauthorized")
	}

	now := s.now()
	if err := s.store.SetJobReview(ctx, req.JobID, req.PublicRating, req.Comment, req.PrivateComment, now); err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return newError(ErrNotFound, "Job not found")
		}
		return fmt.Errorf("failed to save job review: %w", err)
	}

	profile, err := s.store.GetProfile(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return newError(ErrNotFound, "Provider profile not found")
		}
		return fmt.Errorf("failed to load provider profile: %w", err)
	}

	profile.AddRating(req.PublicRating, req.PrivateRating, now)

	if !profile.HasRepeatClient(requesterID) {
		previous, err := s.store.CountCompletedJobs(ctx, requesterID, req.ProviderID, req.JobID)
		if err != nil {
			return fmt.Errorf("failed to count previous jobs: %w", err)
		}
		if previous > 0 {
			profile.RepeatClients = append(profile.RepeatClients, requesterID)
		}
	}

	profile.CompletedJobs++
	profile.TotalJobs++
	profile.CalculateSuccessScore()

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		s.log.Error("job review saved but profile update failed",
			zap.String("job_id", req.JobID),
			zap.String("provider_id", req.ProviderID),
			zap.Error(err))
		return fmt.Errorf("failed to save provider profile: %w", err)
	}

	s.log.Info("review submitted",
		zap.String("job_id", req.JobID),
		zap.String("provider_id", req.ProviderID),
		zap.Float64("success_score", profile.SuccessScore))
	return nil
}

// GetProfile returns a provider's reputation profile.
func (s *ReviewService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			return nil, newError(ErrNotFound, "Profile not found")
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// EnsureProfile creates an empty profile for a user on first login.
func (s *ReviewService) EnsureProfile(ctx context.Context, userID string) error {
	if err := s.store.EnsureProfile(ctx, userID); err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

// RecordJobPosted mirrors a new job so its poster can review it later.
// Failures are logged only.
func (s *ReviewService) RecordJobPosted(ctx context.Context, job *models.Job) {
	err := s.store.UpsertJobRecord(ctx, &models.JobRecord{
		JobID:    job.ID,
		PostedBy: job.PostedBy,
		Status:   job.Status,
	})
	if err != nil {
		s.log.Warn("failed to mirror job record",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

// RecordEngagement stores the accepted provider on the job record.
func (s *ReviewService) RecordEngagement(ctx context.Context, jobID, postedBy, providerID string) error {
	err := s.store.UpsertJobRecord(ctx, &models.JobRecord{
		JobID:      jobID,
		PostedBy:   postedBy,
		ProviderID: providerID,
		Status:     models.JobStatusInProgress,
	})
	if err != nil {
		return fmt.Errorf("failed to record engagement: %w", err)
	}
	return nil
}
