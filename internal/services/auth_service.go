package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/repository"
)

// ProfileEnsurer creates a reputation profile on first login.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID string) error
}

// MockSession is the result of a sandbox login.
type MockSession struct {
	User  auth.MockUser `json:"user"`
	Token string        `json:"token"`
}

// AuthService handles authentication business logic
type AuthService struct {
	store     repository.Store
	profiles  ProfileEnsurer
	tokens    *auth.TokenManager
	mockUsers map[string]auth.MockUser
	sandbox   bool
	log       *zap.Logger
}

// NewAuthService creates a new AuthService. Mock logins are refused unless
// sandbox is set.
func NewAuthService(
	store repository.Store,
	profiles ProfileEnsurer,
	tokens *auth.TokenManager,
	mockUsers map[string]auth.MockUser,
	sandbox bool,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		profiles:  profiles,
		tokens:    tokens,
		mockUsers: mockUsers,
		sandbox:   sandbox,
		log:       log,
	}
}

// MockLogin signs in as one of the fixed sandbox identities, creating the
// user row and profile on first use.
func (s *AuthService) MockLogin(ctx context.Context, userType string) (*MockSession, error) {
	if !s.sandbox {
		return nil, newError(ErrForbidden, "Mock auth only available in web container")
	}

	if userType == "" {
		userType = auth.DefaultMockUserType
	}
	mock, ok := s.mockUsers[userType]
	if !ok {
		return nil, newError(ErrValidation, "unknown user type %q", userType)
	}

	user := &models.User{ID: mock.ID, Email: mock.Email, Name: mock.Name}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert mock user: %w", err)
	}

	if s.profiles != nil {
		if err := s.profiles.EnsureProfile(ctx, mock.ID); err != nil {
			s.log.Warn("failed to ensure mock user profile",
				zap.String("user_id", mock.ID),
				zap.Error(err))
		}
	}

	token, err := s.tokens.Issue(mock.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("mock login", zap.String("user_id", mock.ID), zap.String("user_type", userType))
	return &MockSession{User: mock, Token: token}, nil
}

// CurrentUser returns the account behind a verified session.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
