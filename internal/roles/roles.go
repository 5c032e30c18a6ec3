// Package roles decides who may grant or revoke the admin role.
//
// The requester's role is read from the credential store on every call; the
// token only establishes which email is asking.
package roles

import (
	"context"
	"errors"
	"fmt"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/store"
	"carparts/catalog-service/internal/token"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrForbidden         = errors.New("requester is not an admin")
	ErrRequesterNotFound = errors.New("requester has no user record")
)

// CredentialStore is the part of store.UserStore the manager needs.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	SetRole(ctx context.Context, email, role string) (models.UpdateResult, error)
}

type Manager struct {
	store  CredentialStore
	tracer trace.Tracer
}

func NewManager(store CredentialStore) *Manager {
	return &Manager{
		store:  store,
		tracer: otel.Tracer("carparts/catalog-service/internal/roles"),
	}
}

func (m *Manager) Promote(ctx context.Context, target string, requester token.Claim) (models.UpdateResult, error) {
	return m.setRole(ctx, "roles.promote", target, models.RoleAdmin, requester)
}

func (m *Manager) Demote(ctx context.Context, target string, requester token.Claim) (models.UpdateResult, error) {
	return m.setRole(ctx, "roles.demote", target, "", requester)
}

// IsAdmin reports whether email holds the admin role. A missing record is
// not an error.
func (m *Manager) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find user: %w", err)
	}
	return user.IsAdmin(), nil
}

func (m *Manager) setRole(ctx context.Context, op, target, role string, requester token.Claim) (models.UpdateResult, error) {
	ctx, span := m.tracer.Start(ctx, op)
	defer span.End()

	if err := m.authorize(ctx, requester); err != nil {
		span.SetAttributes(attribute.String("roles.outcome", outcome(err)))
		if !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrRequesterNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "requester lookup failed")
		}
		return models.UpdateResult{}, err
	}

	result, err := m.store.SetRole(ctx, target, role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "set role failed")
		span.SetAttributes(attribute.String("roles.outcome", "store_error"))
		return models.UpdateResult{}, fmt.Errorf("set role: %w", err)
	}
	span.SetAttributes(
		attribute.String("roles.outcome", "applied"),
		attribute.Int64("roles.matched", result.MatchedCount),
		attribute.Int64("roles.modified", result.ModifiedCount),
	)
	return result, nil
}

func (m *Manager) authorize(ctx context.Context, requester token.Claim) error {
	if requester.Email == "" {
		return ErrRequesterNotFound
	}
	account, err := m.store.FindByEmail(ctx, requester.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRequesterNotFound
		}
		return fmt.Errorf("find requester: %w", err)
	}
	if !account.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRequesterNotFound):
		return "requester_not_found"
	default:
		return "store_error"
	}
}
