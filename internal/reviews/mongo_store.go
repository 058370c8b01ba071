package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"homeservices-marketplace/internal/models"
)

const (
	profilesCollection = "profiles"
	jobsCollection     = "jobs"
)

type MongoStore struct {
	client   *mongo.Client
	profiles *mongo.Collection
	jobs     *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		profiles: db.Collection(profilesCollection),
		jobs:     db.Collection(jobsCollection),
	}
}

// EnsureIndexes creates the lookup indexes used by the review flow.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create profiles index: %w", err)
	}

	_, err = s.jobs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postedBy", Value: 1}, {Key: "providerId", Value: 1}, {Key: "status", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create jobs index: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) GetJobRecord(ctx context.Context, jobID string) (*models.JobRecord, error) {
	var record models.JobRecord
	err := s.jobs.FindOne(ctx, bson.M{"_id": jobID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job record: %w", err)
	}
	return &record, nil
}

func (s *MongoStore) UpsertJobRecord(ctx context.Context, record *models.JobRecord) error {
	set := bson.M{
		"postedBy":  record.PostedBy,
		"status":    record.Status,
		"updatedAt": time.Now(),
	}
	if record.ProviderID != "" {
		set["providerId"] = record.ProviderID
	}

	_, err := s.jobs.UpdateOne(ctx,
		bson.M{"_id": record.JobID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job record: %w", err)
	}
	return nil
}

func (s *MongoStore) SetJobReview(ctx context.Context, jobID string, rating int, review, privateReview string, at time.Time) error {
	result, err := s.jobs.UpdateOne(ctx,
		bson.M{"_id": jobID},
		bson.M{"$set": bson.M{
			"rating":        rating,
			"review":        review,
			"privateReview": privateReview,
			"reviewedAt":    at,
			"updatedAt":     at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to save job review: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountCompletedJobs(ctx context.Context, postedBy, providerID, excludeJobID string) (int64, error) {
	count, err := s.jobs.CountDocuments(ctx, bson.M{
		"postedBy":   postedBy,
		"providerId": providerID,
		"status":     models.JobStatusCompleted,
		"_id":        bson.M{"$ne": excludeJobID},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	return count, nil
}

func (s *MongoStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.profiles.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

func (s *MongoStore) EnsureProfile(ctx context.Context, userID string) error {
	now := time.Now()
	_, err := s.profiles.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$setOnInsert": bson.M{
			"ratings":        bson.A{},
			"privateRatings": bson.A{},
			"recentRatings":  bson.A{},
			"repeatClients":  bson.A{},
			"completedJobs":  0,
			"totalJobs":      0,
			"successScore":   0.0,
			"createdAt":      now,
			"updatedAt":      now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()
	result, err := s.profiles.ReplaceOne(ctx, bson.M{"userId": profile.UserID}, profile)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
