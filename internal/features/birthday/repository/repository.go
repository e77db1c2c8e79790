package repository

import (
	"context"
	"errors"

	"birthday-guard-backend/internal/features/birthday/models"
)

var (
	ErrBirthdayNotFound = errors.New("birthday not found")
	ErrAlreadySet       = errors.New("birthday already set")
)

type BirthdayRepository interface {
	// Create stores the first submitted birthday for a user. A second
	// submission returns ErrAlreadySet: edits go through SetDate.
	Create(ctx context.Context, b *models.Birthday) error
	// SetDate overwrites the stored occurrence. Used by lazy rollover and by
	// the administrative override.
	SetDate(ctx context.Context, b *models.Birthday) error
	GetByUser(ctx context.Context, userID int64) (*models.Birthday, error)
	List(ctx context.Context) ([]models.Birthday, error)
}
