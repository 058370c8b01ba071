// Package reviews stores provider profiles and the review-bearing projection
// of jobs in the document store.
package reviews

import (
	"context"
	"errors"
	"time"

	"homeservices-marketplace/internal/models"
)

var ErrNotFound = errors.New("document not found")

// Store is the document store behind the reputation flow. The two
// collections are written independently; there is no cross-document
// transaction.
type Store interface {
	Ping(ctx context.Context) error

	GetJobRecord(ctx context.Context, jobID string) (*models.JobRecord, error)
	// UpsertJobRecord creates or replaces the postedBy, providerId and status
	// of a job record, leaving any review fields untouched.
	UpsertJobRecord(ctx context.Context, record *models.JobRecord) error
	SetJobReview(ctx context.Context, jobID string, rating int, review, privateReview string, at time.Time) error
	// CountCompletedJobs counts completed jobs between the poster and the
	// provider, ignoring excludeJobID.
	CountCompletedJobs(ctx context.Context, postedBy, providerID, excludeJobID string) (int64, error)

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// EnsureProfile creates an empty profile for userID unless one exists.
	EnsureProfile(ctx context.Context, userID string) error
	SaveProfile(ctx context.Context, profile *models.Profile) error
}
