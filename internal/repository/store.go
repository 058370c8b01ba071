package repository

import (
	"context"
	"errors"

	"homeservices-marketplace/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrForeignKey = errors.New("referenced record does not exist")
)

// Store is the relational storage used by the job and offer services.
// Offer reads return the offer with its Job (and the job's Poster) and
// Contractor attached.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpsertUser inserts the user unless a row with the same id or email
	// already exists.
	UpsertUser(ctx context.Context, user *models.User) error

	// CreateJob inserts the job and its skill tags atomically.
	CreateJob(ctx context.Context, job *models.Job, skills []string) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus) error

	FindOffer(ctx context.Context, kind models.OfferKind, jobID, contractorID string) (*models.Offer, error)
	CreateOffer(ctx context.Context, offer *models.Offer) error
	GetOffer(ctx context.Context, kind models.OfferKind, id string) (*models.Offer, error)
	ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error)
	// LockOffer loads an offer for update. Only meaningful inside Transaction.
	LockOffer(ctx context.Context, kind models.OfferKind, id string) (*models.Offer, error)
	UpdateOfferStatus(ctx context.Context, id string, status models.OfferStatus) error
	// RejectPendingOffers rejects every pending offer of the given kinds on
	// the job except exceptID, returning how many rows changed.
	RejectPendingOffers(ctx context.Context, jobID, exceptID string, kinds []models.OfferKind) (int64, error)

	// Transaction runs fn against a transactional view of the store. Any
	// error returned by fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
