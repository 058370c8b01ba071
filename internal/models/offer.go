package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OfferKind tags the two flavours of contractor bid.
type OfferKind string

const (
	OfferKindApplication OfferKind = "application"
	OfferKindProposal    OfferKind = "proposal"
)

// OfferKinds lists every kind, in a stable order.
var OfferKinds = []OfferKind{OfferKindApplication, OfferKindProposal}

func ParseOfferKind(s string) (OfferKind, error) {
	k := OfferKind(s)
	switch k {
	case OfferKindApplication, OfferKindProposal:
		return k, nil
	}
	return "", fmt.Errorf("unknown offer kind %q", s)
}

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
)

// ParseOfferStatus converts a raw string to an OfferStatus, returning an error
// for unknown values.
func ParseOfferStatus(s string) (OfferStatus, error) {
	st := OfferStatus(s)
	switch st {
	case OfferStatusPending, OfferStatusAccepted, OfferStatusRejected, OfferStatusWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown offer status %q", s)
}

// ParseTransitionStatus accepts only the statuses a caller may set. Pending is
// the creation state and cannot be requested.
func ParseTransitionStatus(s string) (OfferStatus, error) {
	st, err := ParseOfferStatus(s)
	if err != nil {
		return "", err
	}
	if st == OfferStatusPending {
		return "", fmt.Errorf("status %q cannot be set explicitly", s)
	}
	return st, nil
}

// Offer is a contractor's bid on a job. Applications carry ProposedRate and
// Availability, proposals carry Price.
type Offer struct {
	ID                string              `gorm:"primaryKey;size:36" json:"id"`
	Kind              OfferKind           `gorm:"size:20;not null;uniqueIndex:idx_offers_job_contractor_kind,priority:3" json:"kind"`
	JobID             string              `gorm:"size:36;not null;uniqueIndex:idx_offers_job_contractor_kind,priority:1" json:"job_id"`
	ContractorID      string              `gorm:"size:36;not null;uniqueIndex:idx_offers_job_contractor_kind,priority:2;index" json:"contractor_id"`
	CoverLetter       string              `gorm:"type:text" json:"cover_letter"`
	ProposedRate      decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"proposed_rate"`
	Price             decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"price"`
	EstimatedDuration string              `gorm:"size:100" json:"estimated_duration"`
	Availability      *string             `gorm:"size:255" json:"availability"`
	Status            OfferStatus         `gorm:"size:20;not null;default:pending;index" json:"status"`
	Job               *Job                `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	Contractor        *User               `gorm:"foreignKey:ContractorID" json:"-"`
	CreatedAt         time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (Offer) TableName() string {
	return "offers"
}

// OfferView is an offer joined with job and user display fields.
type OfferView struct {
	Offer
	JobTitle       string              `json:"job_title"`
	JobDescription string              `json:"job_description"`
	JobBudget      decimal.NullDecimal `json:"job_budget"`
	JobLocation    string              `json:"job_location"`
	JobStatus      JobStatus           `json:"job_status"`
	JobPosterID    string              `json:"job_poster_id"`
	ContractorName string              `json:"contractor_name"`
	JobPosterName  string              `json:"job_poster_name"`
}

// NewOfferView flattens an offer with its preloaded job, job poster and
// contractor. Missing associations leave the display fields empty.
func NewOfferView(offer *Offer) OfferView {
	view := OfferView{Offer: *offer}
	if job := offer.Job; job != nil {
		view.JobTitle = job.Title
		view.JobDescription = job.Description
		view.JobBudget = job.Budget
		view.JobLocation = job.Location
		view.JobStatus = job.Status
		view.JobPosterID = job.PostedBy
		if job.Poster != nil {
			view.JobPosterName = job.Poster.Name
		}
	}
	if offer.Contractor != nil {
		view.ContractorName = offer.Contractor.Name
	}
	view.Offer.Job = nil
	view.Offer.Contractor = nil
	return view
}

// OfferFilter narrows ListOffers. Empty fields do not filter.
type OfferFilter struct {
	Kind         OfferKind
	JobID        string
	ContractorID string
}
