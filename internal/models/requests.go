package models

import "github.com/shopspring/decimal"

// CreateJobRequest is the body of POST /api/jobs. Budget fields are checked
// against BudgetType by the job service.
type CreateJobRequest struct {
	Title           string           `json:"title" validate:"required,max=255"`
	Description     string           `json:"description" validate:"required"`
	Category        string           `json:"category" validate:"required,max=100"`
	Location        string           `json:"location" validate:"max=255"`
	Budget          *decimal.Decimal `json:"budget"`
	MinHourlyRate   *decimal.Decimal `json:"minHourlyRate"`
	MaxHourlyRate   *decimal.Decimal `json:"maxHourlyRate"`
	EstimatedHours  *int             `json:"estimatedHours" validate:"omitempty,gt=0"`
	BudgetType      BudgetType       `json:"budgetType" validate:"required,oneof=fixed hourly"`
	Scope           JobScope         `json:"scope" validate:"required,oneof=small medium large"`
	Duration        string           `json:"duration" validate:"max=50"`
	ExperienceLevel ExperienceLevel  `json:"experienceLevel" validate:"required,oneof=entry intermediate expert"`
	PostedBy        string           `json:"postedBy" validate:"required,max=36"`
	Skills          []string         `json:"skills" validate:"dive,required,max=100"`
}

// CreateOfferRequest is the body of POST /api/applications and
// POST /api/proposals. Terms that do not belong to the offer kind are ignored.
type CreateOfferRequest struct {
	JobID             string           `json:"jobId" validate:"required,max=36"`
	ContractorID      string           `json:"contractorId" validate:"required,max=36"`
	CoverLetter       string           `json:"coverLetter"`
	ProposedRate      *decimal.Decimal `json:"proposedRate"`
	Price             *decimal.Decimal `json:"price"`
	EstimatedDuration string           `json:"estimatedDuration" validate:"max=100"`
	Availability      *string          `json:"availability" validate:"omitempty,max=255"`
}

// SubmitReviewRequest is the body of POST /api/reviews.
type SubmitReviewRequest struct {
	JobID          string `json:"jobId" validate:"required"`
	ProviderID     string `json:"providerId" validate:"required"`
	PublicRating   int    `json:"publicRating" validate:"required,min=1,max=5"`
	PrivateRating  int    `json:"privateRating" validate:"required,min=1,max=5"`
	Comment        string `json:"comment"`
	PrivateComment string `json:"privateComment"`
}
