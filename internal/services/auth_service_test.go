package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"homeservices-marketplace/internal/auth"
	"homeservices-marketplace/internal/repository"
	"homeservices-marketplace/internal/reviews"
)

func newAuthService(t *testing.T, sandbox bool) (*AuthService, *auth.TokenManager, *reviews.MemoryStore) {
	log := zaptest.NewLogger(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	profiles := reviews.NewMemoryStore()
	svc := NewAuthService(
		repository.NewMemoryStore(),
		NewReviewService(profiles, tokens, log),
		tokens,
		auth.DefaultMockUsers(),
		sandbox,
		log,
	)
	return svc, tokens, profiles
}

func TestMockLoginOutsideSandbox(t *testing.T) {
	svc, _, _ := newAuthService(t, false)

	_, err := svc.MockLogin(context.Background(), "homeowner")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if Message(err, "") != "Mock auth only available in web container" {
		t.Errorf("unexpected message %q", Message(err, ""))
	}
}

func TestMockLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens, profiles := newAuthService(t, true)

	session, err := svc.MockLogin(ctx, "")
	if err != nil {
		t.Fatalf("MockLogin failed: %v", err)
	}
	if session.User.ID != "mock-dual-123" {
		t.Errorf("empty user type should default to dual, got %s", session.User.ID)
	}

	claims, err := tokens.Verify(session.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Errorf("token subject %s, expected %s", claims.UserID, session.User.ID)
	}

	if _, err := profiles.GetProfile(ctx, session.User.ID); err != nil {
		t.Errorf("profile should exist after login: %v", err)
	}

	user, err := svc.CurrentUser(ctx, session.User.ID)
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Email != "dual@example.com" {
		t.Errorf("unexpected email %s", user.Email)
	}

	// A second login reuses the same rows.
	if _, err := svc.MockLogin(ctx, "dual"); err != nil {
		t.Fatalf("repeated MockLogin failed: %v", err)
	}
}

func TestMockLoginUnknownType(t *testing.T) {
	svc, _, _ := newAuthService(t, true)
	if _, err := svc.MockLogin(context.Background(), "admin"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCurrentUserNotFound(t *testing.T) {
	svc, _, _ := newAuthService(t, true)
	if _, err := svc.CurrentUser(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
