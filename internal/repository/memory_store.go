package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"homeservices-marketplace/internal/models"
)

// MemoryStore is an in-process Store used in sandbox mode and tests. It
// enforces the same uniqueness and reference rules as the relational schema.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

type memoryData struct {
	seq    int64
	users  map[string]models.User
	jobs   map[string]memoryRow[models.Job]
	skills map[string][]string
	offers map[string]memoryRow[models.Offer]
}

type memoryRow[T any] struct {
	value T
	seq   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memoryData{
			users:  make(map[string]models.User),
			jobs:   make(map[string]memoryRow[models.Job]),
			skills: make(map[string][]string),
			offers: make(map[string]memoryRow[models.Offer]),
		},
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		seq:    d.seq,
		users:  make(map[string]models.User, len(d.users)),
		jobs:   make(map[string]memoryRow[models.Job], len(d.jobs)),
		skills: make(map[string][]string, len(d.skills)),
		offers: make(map[string]memoryRow[models.Offer], len(d.offers)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.jobs {
		c.jobs[k] = v
	}
	for k, v := range d.skills {
		c.skills[k] = append([]string(nil), v...)
	}
	for k, v := range d.offers {
		c.offers[k] = v
	}
	return c
}

func (d *memoryData) next() int64 {
	d.seq++
	return d.seq
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer s.lock()()

	user, ok := s.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) UpsertUser(ctx context.Context, user *models.User) error {
	defer s.lock()()

	if _, ok := s.data.users[user.ID]; ok {
		return nil
	}
	for _, u := range s.data.users {
		if u.Email == user.Email {
			return nil
		}
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.data.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) CreateJob(ctx context.Context, job *models.Job, skills []string) error {
	defer s.lock()()

	if _, ok := s.data.users[job.PostedBy]; !ok {
		return ErrForeignKey
	}
	if _, ok := s.data.jobs[job.ID]; ok {
		return ErrDuplicate
	}
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		if seen[skill] {
			return ErrDuplicate
		}
		seen[skill] = true
	}

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	stored := *job
	stored.Poster = nil
	stored.SkillTags = nil
	s.data.jobs[job.ID] = memoryRow[models.Job]{value: stored, seq: s.data.next()}
	if len(skills) > 0 {
		s.data.skills[job.ID] = append([]string(nil), skills...)
	}
	return nil
}

// hydrateJob attaches the poster and skill tags like the gorm preloads do.
func (s *MemoryStore) hydrateJob(job models.Job) models.Job {
	if poster, ok := s.data.users[job.PostedBy]; ok {
		job.Poster = &poster
	}
	skills := s.data.skills[job.ID]
	job.SkillTags = make([]models.JobSkill, 0, len(skills))
	for _, skill := range skills {
		job.SkillTags = append(job.SkillTags, models.JobSkill{JobID: job.ID, Skill: skill})
	}
	return job
}

func (s *MemoryStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	defer s.lock()()

	row, ok := s.data.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	job := s.hydrateJob(row.value)
	return &job, nil
}

func (s *MemoryStore) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	defer s.lock()()

	rows := make([]memoryRow[models.Job], 0, len(s.data.jobs))
	for _, row := range s.data.jobs {
		job := row.value
		switch filter.Role {
		case models.RoleHomeowner:
			if job.PostedBy != filter.UserID {
				continue
			}
		case models.RoleContractor:
			if job.Status != models.JobStatusOpen || job.PostedBy == filter.UserID {
				continue
			}
		}
		if filter.Category != "" && job.Category != filter.Category {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		rows = append(rows, row)
	}

	sortNewestFirst(rows, func(j models.Job) time.Time { return j.CreatedAt })

	jobs := make([]models.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, s.hydrateJob(row.value))
	}
	return jobs, nil
}

func (s *MemoryStore) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	defer s.lock()()

	row, ok := s.data.jobs[jobID]
	if !ok {
		return nil
	}
	row.value.Status = status
	row.value.UpdatedAt = time.Now()
	s.data.jobs[jobID] = row
	return nil
}

func (s *MemoryStore) FindOffer(ctx context.Context, kind models.OfferKind, jobID, contractorID string) (*models.Offer, error) {
	defer s.lock()()

	for _, row := range s.data.offers {
		o := row.value
		if o.Kind == kind && o.JobID == jobID && o.ContractorID == contractorID {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateOffer(ctx context.Context, offer *models.Offer) error {
	defer s.lock()()

	if _, ok := s.data.jobs[offer.JobID]; !ok {
		return ErrForeignKey
	}
	if _, ok := s.data.users[offer.ContractorID]; !ok {
		return ErrForeignKey
	}
	if _, ok := s.data.offers[offer.ID]; ok {
		return ErrDuplicate
	}
	for _, row := range s.data.offers {
		o := row.value
		if o.Kind == offer.Kind && o.JobID == offer.JobID && o.ContractorID == offer.ContractorID {
			return ErrDuplicate
		}
	}

	now := time.Now()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	offer.UpdatedAt = now

	stored := *offer
	stored.Job = nil
	stored.Contractor = nil
	s.data.offers[offer.ID] = memoryRow[models.Offer]{value: stored, seq: s.data.next()}
	return nil
}

// hydrateOffer attaches the job, its poster and the contractor.
func (s *MemoryStore) hydrateOffer(offer models.Offer) models.Offer {
	if row, ok := s.data.jobs[offer.JobID]; ok {
		job := row.value
		if poster, ok := s.data.users[job.PostedBy]; ok {
			job.Poster = &poster
		}
		offer.Job = &job
	}
	if contractor, ok := s.data.users[offer.ContractorID]; ok {
		offer.Contractor = &contractor
	}
	return offer
}

func (s *MemoryStore) GetOffer(ctx context.Context, kind models.OfferKind, id string) (*models.Offer, error) {
	defer s.lock()()

	row, ok := s.data.offers[id]
	if !ok || row.value.Kind != kind {
		return nil, ErrNotFound
	}
	offer := s.hydrateOffer(row.value)
	return &offer, nil
}

func (s *MemoryStore) ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	defer s.lock()()

	rows := make([]memoryRow[models.Offer], 0, len(s.data.offers))
	for _, row := range s.data.offers {
		o := row.value
		if filter.Kind != "" && o.Kind != filter.Kind {
			continue
		}
		if filter.JobID != "" && o.JobID != filter.JobID {
			continue
		}
		if filter.ContractorID != "" && o.ContractorID != filter.ContractorID {
			continue
		}
		rows = append(rows, row)
	}

	sortNewestFirst(rows, func(o models.Offer) time.Time { return o.CreatedAt })

	offers := make([]models.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, s.hydrateOffer(row.value))
	}
	return offers, nil
}

func (s *MemoryStore) LockOffer(ctx context.Context, kind models.OfferKind, id string) (*models.Offer, error) {
	defer s.lock()()

	row, ok := s.data.offers[id]
	if !ok || row.value.Kind != kind {
		return nil, ErrNotFound
	}
	offer := row.value
	return &offer, nil
}

func (s *MemoryStore) UpdateOfferStatus(ctx context.Context, id string, status models.OfferStatus) error {
	defer s.lock()()

	row, ok := s.data.offers[id]
	if !ok {
		return nil
	}
	row.value.Status = status
	row.value.UpdatedAt = time.Now()
	s.data.offers[id] = row
	return nil
}

func (s *MemoryStore) RejectPendingOffers(ctx context.Context, jobID, exceptID string, kinds []models.OfferKind) (int64, error) {
	defer s.lock()()

	wanted := make(map[models.OfferKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var affected int64
	now := time.Now()
	for id, row := range s.data.offers {
		o := row.value
		if o.JobID != jobID || id == exceptID || o.Status != models.OfferStatusPending || !wanted[o.Kind] {
			continue
		}
		row.value.Status = models.OfferStatusRejected
		row.value.UpdatedAt = now
		s.data.offers[id] = row
		affected++
	}
	return affected, nil
}

// Transaction holds the store lock for the duration of fn and restores the
// previous state if fn fails.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func sortNewestFirst[T any](rows []memoryRow[T], createdAt func(T) time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := createdAt(rows[i].value), createdAt(rows[j].value)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].seq > rows[j].seq
	})
}
