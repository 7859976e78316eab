// Package service holds the server-side business rules over repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/repository"
)

// IdentityService resolves a line username to a remote user.
type IdentityService interface {
	// CreateOrGet returns the user registered under lineUsername, creating it on first use.
	CreateOrGet(ctx context.Context, lineUsername string) (model.User, error)
}

type IdentityServiceImpl struct {
	users repository.UserRepository
	newID func() (uuid.UUID, error)
}

// NewIdentityService constructs IdentityService over a user repository.
func NewIdentityService(users repository.UserRepository) *IdentityServiceImpl {
	return &IdentityServiceImpl{users: users, newID: uuid.NewV4}
}

// CreateOrGet looks the user up and creates it when absent. A concurrent
// create of the same name resolves to the row that won.
func (s *IdentityServiceImpl) CreateOrGet(ctx context.Context, lineUsername string) (model.User, error) {
	name := strings.TrimSpace(lineUsername)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: empty line username", errs.ErrValidation)
	}

	u, err := s.users.GetByUsername(ctx, name)
	if err == nil {
		return *u, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return model.User{}, err
	}

	id, err := s.newID()
	if err != nil {
		return model.User{}, fmt.Errorf("generate user id: %w", err)
	}
	nu := &model.User{ID: id, LineUsername: name}
	switch err := s.users.Create(ctx, nu); {
	case err == nil:
	case errors.Is(err, errs.ErrAlreadyExists):
		// lost the race to another client
	default:
		return model.User{}, err
	}

	u, err = s.users.GetByUsername(ctx, name)
	if err != nil {
		return model.User{}, err
	}
	return *u, nil
}
