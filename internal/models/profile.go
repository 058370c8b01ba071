package models

import (
	"math"
	"time"
)

// RatingSample is one public rating with the time it was given.
type RatingSample struct {
	Rating    int       `bson:"rating" json:"rating"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Profile is a provider's reputation document.
type Profile struct {
	UserID         string         `bson:"userId" json:"userId"`
	Ratings        []int          `bson:"ratings" json:"ratings"`
	PrivateRatings []int          `bson:"privateRatings" json:"-"`
	RecentRatings  []RatingSample `bson:"recentRatings" json:"recentRatings"`
	RepeatClients  []string       `bson:"repeatClients" json:"repeatClients"`
	CompletedJobs  int            `bson:"completedJobs" json:"completedJobs"`
	TotalJobs      int            `bson:"totalJobs" json:"totalJobs"`
	SuccessScore   float64        `bson:"successScore" json:"successScore"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// NewProfile returns an empty profile with non-nil slices so the stored
// document always has arrays.
func NewProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:         userID,
		Ratings:        []int{},
		PrivateRatings: []int{},
		RecentRatings:  []RatingSample{},
		RepeatClients:  []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddRating records one review's public and private ratings.
func (p *Profile) AddRating(public, private int, at time.Time) {
	p.Ratings = append(p.Ratings, public)
	p.PrivateRatings = append(p.PrivateRatings, private)
	p.RecentRatings = append(p.RecentRatings, RatingSample{Rating: public, Timestamp: at})
	p.UpdatedAt = at
}

func (p *Profile) HasRepeatClient(userID string) bool {
	for _, id := range p.RepeatClients {
		if id == userID {
			return true
		}
	}
	return false
}

// AverageRating is the mean public rating, 0 without ratings.
func (p *Profile) AverageRating() float64 {
	if len(p.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(p.Ratings))
}

const (
	ratingWeight      = 60.0
	completionWeight  = 25.0
	repeatWeight      = 15.0
	repeatClientsGoal = 5.0
	maxRating         = 5.0
)

// CalculateSuccessScore recomputes SuccessScore on a 0..100 scale from the
// average rating, the completion ratio and the number of repeat clients.
func (p *Profile) CalculateSuccessScore() float64 {
	if len(p.Ratings) == 0 {
		p.SuccessScore = 0
		return 0
	}

	score := ratingWeight * p.AverageRating() / maxRating
	if p.TotalJobs > 0 {
		score += completionWeight * float64(p.CompletedJobs) / float64(p.TotalJobs)
	}
	score += repeatWeight * math.Min(1, float64(len(p.RepeatClients))/repeatClientsGoal)

	p.SuccessScore = math.Round(score*10) / 10
	return p.SuccessScore
}

// JobRecord is the document-store projection of a job that carries its review.
type JobRecord struct {
	JobID         string     `bson:"_id" json:"jobId"`
	PostedBy      string     `bson:"postedBy" json:"postedBy"`
	ProviderID    string     `bson:"providerId,omitempty" json:"providerId,omitempty"`
	Status        JobStatus  `bson:"status" json:"status"`
	Rating        *int       `bson:"rating,omitempty" json:"rating,omitempty"`
	Review        string     `bson:"review,omitempty" json:"review,omitempty"`
	PrivateReview string     `bson:"privateReview,omitempty" json:"-"`
	ReviewedAt    *time.Time `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
}
