package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/repository"
)

// JobRecorder mirrors newly posted jobs into the review store.
type JobRecorder interface {
	RecordJobPosted(ctx context.Context, job *models.Job)
}

// JobService owns job records and their listing rules.
type JobService struct {
	store    repository.Store
	recorder JobRecorder
	validate *validator.Validate
	log      *zap.Logger
}

// NewJobService creates a new JobService. recorder may be nil.
func NewJobService(store repository.Store, recorder JobRecorder, log *zap.Logger) *JobService {
	return &JobService{
		store:    store,
		recorder: recorder,
		validate: newValidator(),
		log:      log,
	}
}

// CreateJob validates the request and persists an open job with its skills.
// An unknown poster is reported as ErrNotFound.
func (s *JobService) CreateJob(ctx context.Context, req models.CreateJobRequest) (*models.Job, error) {
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Category:        req.Category,
		Location:        req.Location,
		BudgetType:      req.BudgetType,
		Scope:           req.Scope,
		Duration:        req.Duration,
		ExperienceLevel: req.ExperienceLevel,
		Status:          models.JobStatusOpen,
		PaymentStatus:   models.PaymentStatusPending,
		PostedBy:        req.PostedBy,
	}
	if err := applyBudget(job, req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUser(ctx, req.PostedBy); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Invalid user ID")
		}
		return nil, fmt.Errorf("failed to load poster: %w", err)
	}

	if err := s.store.CreateJob(ctx, job, normalizeSkills(req.Skills)); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return nil, newError(ErrNotFound, "Invalid user ID")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(ErrValidation, "skills must be unique")
		}
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.log.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("posted_by", job.PostedBy),
		zap.String("category", job.Category))

	if s.recorder != nil {
		s.recorder.RecordJobPosted(ctx, job)
	}

	return job, nil
}

// applyBudget copies the budget fields that belong to the job's budget type
// and drops the rest.
func applyBudget(job *models.Job, req models.CreateJobRequest) error {
	switch req.BudgetType {
	case models.BudgetTypeFixed:
		if req.Budget == nil {
			return newError(ErrValidation, "budget is required for fixed-price jobs")
		}
		if !req.Budget.IsPositive() {
			return newError(ErrValidation, "budget must be greater than 0")
		}
		job.Budget = decimal.NewNullDecimal(*req.Budget)

	case models.BudgetTypeHourly:
		if req.MinHourlyRate == nil || req.MaxHourlyRate == nil || req.EstimatedHours == nil {
			return newError(ErrValidation, "minHourlyRate, maxHourlyRate and estimatedHours are required for hourly jobs")
		}
		if !req.MinHourlyRate.IsPositive() {
			return newError(ErrValidation, "minHourlyRate must be greater than 0")
		}
		if req.MaxHourlyRate.LessThan(*req.MinHourlyRate) {
			return newError(ErrValidation, "maxHourlyRate must not be below minHourlyRate")
		}
		job.MinHourlyRate = decimal.NewNullDecimal(*req.MinHourlyRate)
		job.MaxHourlyRate = decimal.NewNullDecimal(*req.MaxHourlyRate)
		hours := *req.EstimatedHours
		job.EstimatedHours = &hours
	}
	return nil
}

// normalizeSkills trims skill names and drops empty and repeated entries.
// Repeats are matched case-insensitively, like the default MySQL collation;
// the first spelling wins.
func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}

// ListJobs returns jobs newest first. Homeowners see their own postings,
// contractors see open jobs posted by someone else.
func (s *JobService) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobListing, error) {
	if filter.UserID == "" {
		return nil, newError(ErrValidation, "User ID is required")
	}

	jobs, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	listings := make([]models.JobListing, 0, len(jobs))
	for i := range jobs {
		listings = append(listings, models.NewJobListing(&jobs[i]))
	}
	return listings, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*models.JobListing, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Job not found")
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	listing := models.NewJobListing(job)
	return &listing, nil
}
