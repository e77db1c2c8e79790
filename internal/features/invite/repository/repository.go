package repository

import (
	"context"
	"errors"

	"birthday-guard-backend/internal/features/invite/models"
)

var ErrBindingNotFound = errors.New("invite binding not found")

type BindingRepository interface {
	Create(ctx context.Context, binding *models.Binding) error
	// Consume atomically deletes the binding and returns it. Of any number of
	// concurrent calls for one link, exactly one receives the binding; the
	// rest get ErrBindingNotFound.
	Consume(ctx context.Context, link string) (*models.Binding, error)
}
