package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homeservices-marketplace/internal/database"
	"homeservices-marketplace/internal/models"
)

// GormStore implements Store over any gorm dialect. Queries outside a
// transaction are retried with the store's retry policy.
type GormStore struct {
	db    *gorm.DB
	retry database.RetryPolicy
	inTx  bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, retry: database.DefaultRetryPolicy}
}

// WithRetryPolicy returns a copy of the store using p for query retries.
func (s *GormStore) WithRetryPolicy(p database.RetryPolicy) *GormStore {
	return &GormStore{db: s.db, retry: p, inTx: s.inTx}
}

func (s *GormStore) run(ctx context.Context, fn func(db *gorm.DB) error) error {
	db := s.db.WithContext(ctx)
	if s.inTx {
		return translateError(fn(db))
	}
	return translateError(database.Retry(ctx, s.retry, func() error {
		return fn(db)
	}))
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate), errors.Is(err, ErrForeignKey):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case database.IsDuplicateKey(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrForeignKey, err)
	default:
		return err
	}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.run(ctx, func(db *gorm.DB) error {
		return db.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) UpsertUser(ctx context.Context, user *models.User) error {
	return s.run(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
	})
}

func (s *GormStore) CreateJob(ctx context.Context, job *models.Job, skills []string) error {
	tags := make([]models.JobSkill, 0, len(skills))
	for _, skill := range skills {
		tags = append(tags, models.JobSkill{JobID: job.ID, Skill: skill})
	}

	return s.run(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Create(job).Error; err != nil {
				return err
			}
			if len(tags) == 0 {
				return nil
			}
			return tx.Create(&tags).Error
		})
	})
}

func (s *GormStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	err := s.run(ctx, func(db *gorm.DB) error {
		return db.Preload("Poster").Preload("SkillTags").
			Where("id = ?", id).
			First(&job).Error
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *GormStore) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	var jobs []models.Job
	err := s.run(ctx, func(db *gorm.DB) error {
		query := db.Model(&models.Job{}).Preload("Poster").Preload("SkillTags")

		switch filter.Role {
		case models.RoleHomeowner:
			query = query.Where("posted_by = ?", filter.UserID)
		case models.RoleContractor:
			query = query.Where("status = ? AND posted_by <> ?", models.JobStatusOpen, filter.UserID)
		}
		if filter.Category != "" {
			query = query.Where("category = ?", filter.Category)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}

		return query.Order("created_at DESC").Find(&jobs).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *GormStore) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	return s.run(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Job{}).Where("id = ?", jobID).Update("status", status).Error
	})
}

func (s *GormStore) FindOffer(ctx context.Context, kind models.OfferKind, jobID, contractorID string) (*models.Offer, error) {
	var offer models.Offer
	err := s.run(ctx, func(db *gorm.DB) error {
		return db.Where("kind = ? AND job_id = ? AND contractor_id = ?", kind, jobID, contractorID).
			First(&offer).Error
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *GormStore) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return s.run(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(offer).Error
	})
}

func (s *GormStore) GetOffer(ctx context.Context, kind models.OfferKind, id string) (*models.Offer, error) {
	var offer models.Offer
	err := s.run(ctx, func(db *gorm.DB) error {
		return db.Preload("Job.Poster").Preload("Contractor").
			Where("id = ? AND kind = ?", id, kind).
			First(&offer).Error
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *GormStore) ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.run(ctx, func(db *gorm.DB) error {
		query := db.Model(&models.Offer{}).Preload("Job.Poster").Preload("Contractor")
		if filter.Kind != "" {
			query = query.Where("kind = ?", filter.Kind)
		}
		if filter.JobID != "" {
			query = query.Where("job_id = ?", filter.JobID)
		}
		if filter.ContractorID != "" {
			query = query.Where("contractor_id = ?", filter.ContractorID)
		}
		return query.Order("created_at DESC").Find(&offers).Error
	})
	if err != nil {
		return nil, err
	}
	return offers, nil
}

func (s *GormStore) LockOffer(ctx context.Context, kind models.OfferKind, id string) (*models.Offer, error) {
	var offer models.Offer
	err := s.run(ctx, func(db *gorm.DB) error {
		query := db.Where("id = ? AND kind = ?", id, kind)
		// SQLite serialises writers on its own and has no row locks.
		if s.db.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return query.First(&offer).Error
	})
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (s *GormStore) UpdateOfferStatus(ctx context.Context, id string, status models.OfferStatus) error {
	return s.run(ctx, func(db *gorm.DB) error {
		return db.Model(&models.Offer{}).Where("id = ?", id).Update("status", status).Error
	})
}

func (s *GormStore) RejectPendingOffers(ctx context.Context, jobID, exceptID string, kinds []models.OfferKind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}

	var affected int64
	err := s.run(ctx, func(db *gorm.DB) error {
		result := db.Model(&models.Offer{}).
			Where("job_id = ? AND id <> ? AND status = ?", jobID, exceptID, models.OfferStatusPending).
			Where("kind IN ?", kinds).
			Update("status", models.OfferStatusRejected)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, retry: s.retry, inTx: true})
	})
	return translateError(err)
}
