package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/notify"
	"homeservices-marketplace/internal/repository"
)

// SiblingScope decides which pending offers are rejected when an offer on
// the same job is accepted.
type SiblingScope string

const (
	// SiblingScopeKind rejects only pending offers of the accepted offer's
	// kind. Offers of the other kind are left alone. This is the default.
	SiblingScopeKind SiblingScope = "kind"
	// SiblingScopeAll also rejects pending offers of the other kind.
	SiblingScopeAll SiblingScope = "all"
)

func ParseSiblingScope(s string) (SiblingScope, error) {
	scope := SiblingScope(s)
	switch scope {
	case SiblingScopeAll, SiblingScopeKind:
		return scope, nil
	case "":
		return SiblingScopeKind, nil
	}
	return "", fmt.Errorf("unknown sibling scope %q", s)
}

type notification struct {
	title string
	body  string
}

// offerTraits holds what differs between the offer kinds: client messages
// and which parties get notified.
type offerTraits struct {
	notFound     string
	closed       string
	duplicate    string
	onCreate     *notification // to the job poster
	onAccept     *notification // to the contractor
	onReject     *notification // to the contractor
	requireTerms func(req models.CreateOfferRequest) error
	applyTerms   func(offer *models.Offer, req models.CreateOfferRequest)
}

var offerKinds = map[models.OfferKind]offerTraits{
	models.OfferKindApplication: {
		notFound:  "Application not found",
		closed:    "Job is no longer accepting applications",
		duplicate: "You have already applied for this job",
		onCreate:  &notification{"New Job Application", "Someone has applied to your job posting"},
		onAccept:  &notification{"Application Accepted", "Your job application has been accepted!"},
		onReject:  &notification{"Application Status Update", "Your job application was not selected"},
		requireTerms: func(req models.CreateOfferRequest) error {
			return requirePositive("proposedRate", req.ProposedRate)
		},
		applyTerms: func(offer *models.Offer, req models.CreateOfferRequest) {
			offer.ProposedRate = decimal.NewNullDecimal(*req.ProposedRate)
			offer.Availability = req.Availability
		},
	},
	models.OfferKindProposal: {
		notFound:  "Proposal not found",
		closed:    "Job is no longer accepting proposals",
		duplicate: "You have already submitted a proposal for this job",
		requireTerms: func(req models.CreateOfferRequest) error {
			return requirePositive("price", req.Price)
		},
		applyTerms: func(offer *models.Offer, req models.CreateOfferRequest) {
			offer.Price = decimal.NewNullDecimal(*req.Price)
		},
	},
}

func requirePositive(field string, v *decimal.Decimal) error {
	if v == nil {
		return newError(ErrValidation, "%s is required", field)
	}
	if !v.IsPositive() {
		return newError(ErrValidation, "%s must be greater than 0", field)
	}
	return nil
}

func traitsFor(kind models.OfferKind) (offerTraits, error) {
	t, ok := offerKinds[kind]
	if !ok {
		return offerTraits{}, newError(ErrValidation, "unknown offer kind %q", kind)
	}
	return t, nil
}

// EngagementRecorder is told about the provider once an offer is accepted.
type EngagementRecorder interface {
	RecordEngagement(ctx context.Context, jobID, postedBy, providerID string) error
}

// OfferService runs the offer ledger and the status transitions that couple
// offers to their job.
type OfferService struct {
	store    repository.Store
	notifier notify.Notifier
	recorder EngagementRecorder
	scope    SiblingScope
	validate *validator.Validate
	log      *zap.Logger
}

// NewOfferService creates a new OfferService. recorder may be nil.
func NewOfferService(
	store repository.Store,
	notifier notify.Notifier,
	recorder EngagementRecorder,
	scope SiblingScope,
	log *zap.Logger,
) *OfferService {
	if scope == "" {
		scope = SiblingScopeKind
	}
	return &OfferService{
		store:    store,
		notifier: notifier,
		recorder: recorder,
		scope:    scope,
		validate: newValidator(),
		log:      log,
	}
}

// CreateOffer submits a pending offer of the given kind on an open job.
func (s *OfferService) CreateOffer(ctx context.Context, kind models.OfferKind, req models.CreateOfferRequest) (*models.OfferView, error) {
	traits, err := traitsFor(kind)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if err := traits.requireTerms(req); err != nil {
		return nil, err
	}

	job, err := s.store.GetJob(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Job not found")
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	if job.Status != models.JobStatusOpen {
		return nil, newError(ErrInvalidState, traits.closed)
	}
	if job.PostedBy == req.ContractorID {
		return nil, newError(ErrInvalidState, "You cannot bid on your own job")
	}

	// Friendly pre-check; the unique index settles concurrent submissions.
	_, err = s.store.FindOffer(ctx, kind, req.JobID, req.ContractorID)
	switch {
	case err == nil:
		return nil, newError(ErrConflict, traits.duplicate)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing offers: %w", err)
	}

	offer := &models.Offer{
		ID:                uuid.NewString(),
		Kind:              kind,
		JobID:             req.JobID,
		ContractorID:      req.ContractorID,
		CoverLetter:       req.CoverLetter,
		EstimatedDuration: req.EstimatedDuration,
		Status:            models.OfferStatusPending,
	}
	traits.applyTerms(offer, req)

	if err := s.store.CreateOffer(ctx, offer); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, newError(ErrConflict, traits.duplicate)
		case errors.Is(err, repository.ErrForeignKey):
			return nil, newError(ErrValidation, "Invalid contractor ID")
		}
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}

	s.log.Info("offer created",
		zap.String("kind", string(kind)),
		zap.String("offer_id", offer.ID),
		zap.String("job_id", offer.JobID),
		zap.String("contractor_id", offer.ContractorID))

	if n := traits.onCreate; n != nil {
		s.notifier.Notify(ctx, job.PostedBy, n.title, n.body)
	}

	return s.GetOffer(ctx, kind, offer.ID)
}

// ListOffers returns offers of filter.Kind with job and user display fields,
// newest first.
func (s *OfferService) ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.OfferView, error) {
	offers, err := s.store.ListOffers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	views := make([]models.OfferView, 0, len(offers))
	for i := range offers {
		views = append(views, models.NewOfferView(&offers[i]))
	}
	return views, nil
}

func (s *OfferService) GetOffer(ctx context.Context, kind models.OfferKind, id string) (*models.OfferView, error) {
	traits, err := traitsFor(kind)
	if err != nil {
		return nil, err
	}

	offer, err := s.store.GetOffer(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, traits.notFound)
		}
		return nil, fmt.Errorf("failed to load %s: %w", kind, err)
	}

	view := models.NewOfferView(offer)
	return &view, nil
}

// SetStatus moves an offer to accepted, rejected or withdrawn in one
// transaction. Accepting puts the job in progress and rejects the pending
// siblings selected by the sibling scope. Notifications go out only after
// the transaction commits. Terminal states are not guarded.
func (s *OfferService) SetStatus(ctx context.Context, kind models.OfferKind, id string, rawStatus string) (*models.OfferView, error) {
	traits, err := traitsFor(kind)
	if err != nil {
		return nil, err
	}

	status, err := models.ParseTransitionStatus(rawStatus)
	if err != nil {
		return nil, newError(ErrValidation, "Invalid status")
	}

	var (
		offer    *models.Offer
		rejected int64
	)
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.LockOffer(ctx, kind, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrNotFound, traits.notFound)
			}
			return fmt.Errorf("failed to load %s: %w", kind, err)
		}

		if status == models.OfferStatusAccepted {
			if err := tx.UpdateJobStatus(ctx, locked.JobID, models.JobStatusInProgress); err != nil {
				return fmt.Errorf("failed to update job status: %w", err)
			}
			rejected, err = tx.RejectPendingOffers(ctx, locked.JobID, locked.ID, s.siblingKinds(kind))
			if err != nil {
				return fmt.Errorf("failed to reject sibling offers: %w", err)
			}
		}

		if err := tx.UpdateOfferStatus(ctx, locked.ID, status); err != nil {
			return fmt.Errorf("failed to update %s status: %w", kind, err)
		}
		offer = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("offer status changed",
		zap.String("kind", string(kind)),
		zap.String("offer_id", offer.ID),
		zap.String("job_id", offer.JobID),
		zap.String("from", string(offer.Status)),
		zap.String("to", string(status)),
		zap.Int64("siblings_rejected", rejected))

	switch status {
	case models.OfferStatusAccepted:
		if n := traits.onAccept; n != nil {
			s.notifier.Notify(ctx, offer.ContractorID, n.title, n.body)
		}
	case models.OfferStatusRejected:
		if n := traits.onReject; n != nil {
			s.notifier.Notify(ctx, offer.ContractorID, n.title, n.body)
		}
	}

	view, err := s.GetOffer(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if status == models.OfferStatusAccepted && s.recorder != nil {
		if err := s.recorder.RecordEngagement(ctx, view.JobID, view.JobPosterID, view.ContractorID); err != nil {
			s.log.Warn("failed to record engagement",
				zap.String("job_id", view.JobID),
				zap.Error(err))
		}
	}

	return view, nil
}

func (s *OfferService) siblingKinds(kind models.OfferKind) []models.OfferKind {
	if s.scope == SiblingScopeKind {
		return []models.OfferKind{kind}
	}
	return models.OfferKinds
}
