package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseOfferStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    OfferStatus
		wantErr bool
	}{
		{"pending", OfferStatusPending, false},
		{"accepted", OfferStatusAccepted, false},
		{"rejected", OfferStatusRejected, false},
		{"withdrawn", OfferStatusWithdrawn, false},
		{"ACCEPTED", "", true},
		{"", "", true},
		{"hired", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOfferStatus(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOfferStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOfferStatus(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseTransitionStatusRejectsPending(t *testing.T) {
	if _, err := ParseTransitionStatus("pending"); err == nil {
		t.Error("pending must not be accepted as a transition target")
	}
	for _, s := range []string{"accepted", "rejected", "withdrawn"} {
		if _, err := ParseTransitionStatus(s); err != nil {
			t.Errorf("ParseTransitionStatus(%q) unexpected error: %v", s, err)
		}
	}
}

func TestParseOfferKind(t *testing.T) {
	for _, k := range OfferKinds {
		got, err := ParseOfferKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseOfferKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseOfferKind("bid"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseJobStatus(t *testing.T) {
	for _, s := range []string{"open", "in_progress", "completed", "cancelled"} {
		if _, err := ParseJobStatus(s); err != nil {
			t.Errorf("ParseJobStatus(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseJobStatus("closed"); err == nil {
		t.Error("expected error for unknown job status")
	}
}

func TestCalculateSuccessScore(t *testing.T) {
	now := time.Now()

	p := NewProfile("provider-1", now)
	if score := p.CalculateSuccessScore(); score != 0 {
		t.Errorf("expected 0 without ratings, got %v", score)
	}

	p.AddRating(5, 4, now)
	p.AddRating(4, 4, now)
	p.CompletedJobs = 2
	p.TotalJobs = 2
	p.RepeatClients = []string{"client-1"}

	// 60*(4.5/5) + 25*(2/2) + 15*(1/5) = 54 + 25 + 3
	if score := p.CalculateSuccessScore(); score != 82 {
		t.Errorf("expected 82, got %v", score)
	}

	p.RepeatClients = []string{"a", "b", "c", "d", "e", "f", "g"}
	if score := p.CalculateSuccessScore(); score != 94 {
		t.Errorf("expected repeat clients to cap at 15 points, got %v", score)
	}
}

func TestAddRatingAppendsSamples(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewProfile("provider-1", at)

	p.AddRating(3, 2, at)

	if len(p.Ratings) != 1 || p.Ratings[0] != 3 {
		t.Errorf("unexpected ratings %v", p.Ratings)
	}
	if len(p.PrivateRatings) != 1 || p.PrivateRatings[0] != 2 {
		t.Errorf("unexpected private ratings %v", p.PrivateRatings)
	}
	if len(p.RecentRatings) != 1 || !p.RecentRatings[0].Timestamp.Equal(at) {
		t.Errorf("unexpected recent ratings %v", p.RecentRatings)
	}
}

func TestNewOfferViewFlattensAssociations(t *testing.T) {
	offer := &Offer{
		ID:           "offer-1",
		Kind:         OfferKindProposal,
		JobID:        "job-1",
		ContractorID: "contractor-1",
		Status:       OfferStatusPending,
		Job: &Job{
			ID:       "job-1",
			Title:    "Fix sink",
			Budget:   decimal.NewNullDecimal(decimal.NewFromInt(500)),
			Status:   JobStatusOpen,
			PostedBy: "owner-1",
			Poster:   &User{ID: "owner-1", Name: "Owner"},
		},
		Contractor: &User{ID: "contractor-1", Name: "Contractor"},
	}

	view := NewOfferView(offer)

	if view.JobTitle != "Fix sink" || view.JobPosterID != "owner-1" || view.JobPosterName != "Owner" {
		t.Errorf("job fields not flattened: %+v", view)
	}
	if view.ContractorName != "Contractor" {
		t.Errorf("expected contractor name, got %q", view.ContractorName)
	}
	if !view.JobBudget.Valid || !view.JobBudget.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Errorf("unexpected job budget %v", view.JobBudget)
	}
	if view.Offer.Job != nil || view.Offer.Contractor != nil {
		t.Error("associations should be dropped from the view")
	}
	if offer.Job == nil {
		t.Error("source offer must not be modified")
	}
}
