package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"homeservices-marketplace/internal/database"
	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/repository"
)

type sentNotification struct {
	recipientID string
	title       string
	body        string
}

// recordingNotifier captures notifications instead of delivering them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipientID, title, body})
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}

func setupTestDB(t *testing.T) repository.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()))
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return repository.NewGormStore(db).WithRetryPolicy(database.RetryPolicy{Attempts: 1})
}

func forEachStore(t *testing.T, fn func(t *testing.T, store repository.Store)) {
	t.Run("gorm", func(t *testing.T) { fn(t, setupTestDB(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, repository.NewMemoryStore()) })
}

func createUsers(t *testing.T, store repository.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		user := &models.User{ID: id, Email: id + "@example.com", Name: "Name " + id}
		if err := store.UpsertUser(context.Background(), user); err != nil {
			t.Fatalf("UpsertUser(%s) failed: %v", id, err)
		}
	}
}

func fixedJobRequest(postedBy string, budget int64) models.CreateJobRequest {
	b := decimal.NewFromInt(budget)
	return models.CreateJobRequest{
		Title:           "Replace water heater",
		Description:     "50 gallon tank in the garage",
		Category:        "plumbing",
		Location:        "Denver",
		Budget:          &b,
		BudgetType:      models.BudgetTypeFixed,
		Scope:           models.JobScopeMedium,
		Duration:        "1 week",
		ExperienceLevel: models.ExperienceExpert,
		PostedBy:        postedBy,
		Skills:          []string{"plumbing"},
	}
}

func proposalRequest(jobID, contractorID string, price int64) models.CreateOfferRequest {
	p := decimal.NewFromInt(price)
	return models.CreateOfferRequest{
		JobID:             jobID,
		ContractorID:      contractorID,
		CoverLetter:       "I can do it",
		Price:             &p,
		EstimatedDuration: "3 days",
	}
}

func applicationRequest(jobID, contractorID string, rate int64) models.CreateOfferRequest {
	r := decimal.NewFromInt(rate)
	availability := "weekends"
	return models.CreateOfferRequest{
		JobID:             jobID,
		ContractorID:      contractorID,
		CoverLetter:       "Available soon",
		ProposedRate:      &r,
		EstimatedDuration: "2 days",
		Availability:      &availability,
	}
}

type testEnv struct {
	store    repository.Store
	notifier *recordingNotifier
	jobs     *JobService
	offers   *OfferService
}

func newTestEnv(t *testing.T, store repository.Store, scope SiblingScope) *testEnv {
	log := zaptest.NewLogger(t)
	notifier := &recordingNotifier{}
	return &testEnv{
		store:    store,
		notifier: notifier,
		jobs:     NewJobService(store, nil, log),
		offers:   NewOfferService(store, notifier, nil, scope, log),
	}
}
