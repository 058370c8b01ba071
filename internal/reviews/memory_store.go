package reviews

import (
	"context"
	"sync"
	"time"

	"homeservices-marketplace/internal/models"
)

// MemoryStore keeps profiles and job records in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	jobs     map[string]models.JobRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.Profile),
		jobs:     make(map[string]models.JobRecord),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) GetJobRecord(ctx context.Context, jobID string) (*models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

func (s *MemoryStore) UpsertJobRecord(ctx context.Context, record *models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.jobs[record.JobID]
	if !ok {
		stored = models.JobRecord{JobID: record.JobID}
	}
	stored.PostedBy = record.PostedBy
	stored.Status = record.Status
	if record.ProviderID != "" {
		stored.ProviderID = record.ProviderID
	}
	stored.UpdatedAt = time.Now()
	s.jobs[record.JobID] = stored
	return nil
}

func (s *MemoryStore) SetJobReview(ctx context.Context, jobID string, rating int, review, privateReview string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	record.Rating = &rating
	record.Review = review
	record.PrivateReview = privateReview
	record.ReviewedAt = &at
	record.UpdatedAt = at
	s.jobs[jobID] = record
	return nil
}

func (s *MemoryStore) CountCompletedJobs(ctx context.Context, postedBy, providerID, excludeJobID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for id, record := range s.jobs {
		if id == excludeJobID {
			continue
		}
		if record.PostedBy == postedBy && record.ProviderID == providerID && record.Status == models.JobStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProfile(profile), nil
}

func (s *MemoryStore) EnsureProfile(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[userID]; !ok {
		s.profiles[userID] = *models.NewProfile(userID, time.Now())
	}
	return nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.UserID]; !ok {
		return ErrNotFound
	}
	profile.UpdatedAt = time.Now()
	s.profiles[profile.UserID] = *copyProfile(*profile)
	return nil
}

// copyProfile detaches the slices so callers cannot mutate stored state.
func copyProfile(p models.Profile) *models.Profile {
	p.Ratings = append([]int{}, p.Ratings...)
	p.PrivateRatings = append([]int{}, p.PrivateRatings...)
	p.RecentRatings = append([]models.RatingSample{}, p.RecentRatings...)
	p.RepeatClients = append([]string{}, p.RepeatClients...)
	return &p
}
