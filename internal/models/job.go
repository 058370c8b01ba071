package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ParseJobStatus converts a raw string to a JobStatus, returning an error for
// unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobStatusOpen, JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusEscrow   PaymentStatus = "escrow"
	PaymentStatusReleased PaymentStatus = "released"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type BudgetType string

const (
	BudgetTypeFixed  BudgetType = "fixed"
	BudgetTypeHourly BudgetType = "hourly"
)

type JobScope string

const (
	JobScopeSmall  JobScope = "small"
	JobScopeMedium JobScope = "medium"
	JobScopeLarge  JobScope = "large"
)

type ExperienceLevel string

const (
	ExperienceEntry        ExperienceLevel = "entry"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

// Job is a homeowner's posting. A fixed job carries Budget only; an hourly job
// carries the rate range and EstimatedHours only.
type Job struct {
	ID              string              `gorm:"primaryKey;size:36" json:"id"`
	Title           string              `gorm:"size:255;not null" json:"title"`
	Description     string              `gorm:"type:text;not null" json:"description"`
	Category        string              `gorm:"size:100;not null;index" json:"category"`
	Location        string              `gorm:"size:255" json:"location"`
	Budget          decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"budget"`
	MinHourlyRate   decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"min_hourly_rate"`
	MaxHourlyRate   decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"max_hourly_rate"`
	EstimatedHours  *int                `json:"estimated_hours"`
	BudgetType      BudgetType          `gorm:"size:20;not null" json:"budget_type"`
	Scope           JobScope            `gorm:"size:20;not null" json:"scope"`
	Duration        string              `gorm:"size:50" json:"duration"`
	ExperienceLevel ExperienceLevel     `gorm:"size:20;not null" json:"experience_level"`
	Status          JobStatus           `gorm:"size:20;not null;default:open;index" json:"status"`
	PaymentStatus   PaymentStatus       `gorm:"size:20;not null;default:pending" json:"payment_status"`
	PostedBy        string              `gorm:"size:36;not null;index" json:"posted_by"`
	Poster          *User               `gorm:"foreignKey:PostedBy" json:"-"`
	SkillTags       []JobSkill          `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// SkillNames returns the job's skill tags as plain strings.
func (j *Job) SkillNames() []string {
	skills := make([]string, 0, len(j.SkillTags))
	for _, s := range j.SkillTags {
		skills = append(skills, s.Skill)
	}
	return skills
}

// JobSkill tags a job with one skill. The pair is unique.
type JobSkill struct {
	JobID string `gorm:"primaryKey;size:36" json:"job_id"`
	Skill string `gorm:"primaryKey;size:100" json:"skill"`
}

func (JobSkill) TableName() string {
	return "job_skills"
}

// JobListing is a job as returned by the listing endpoints.
type JobListing struct {
	Job
	PosterName string   `json:"poster_name"`
	Skills     []string `json:"skills"`
}

// NewJobListing flattens a job with its preloaded poster and skills.
func NewJobListing(job *Job) JobListing {
	listing := JobListing{Job: *job, Skills: job.SkillNames()}
	if job.Poster != nil {
		listing.PosterName = job.Poster.Name
	}
	return listing
}

// JobFilter narrows ListJobs. UserID is mandatory at the HTTP layer; Role
// decides how it is applied.
type JobFilter struct {
	UserID   string
	Role     UserRole
	Category string
	Status   JobStatus
}
