package repository

import (
	"context"
	"errors"
	"time"

	"birthday-guard-backend/internal/features/enforcement/models"
)

var ErrBanNotFound = errors.New("ban record not found")

type BanRepository interface {
	Create(ctx context.Context, ban *models.BanRecord) error
	// ExistsActive reports whether a non-expired record covers the pair.
	ExistsActive(ctx context.Context, userID, chatID int64, now time.Time) (bool, error)
	// Delete removes every record for the pair (lift, verified rejoin).
	Delete(ctx context.Context, userID, chatID int64) error
	// DeleteExpired sweeps records with banned_until <= now and returns how
	// many were removed. A no-op on clean state.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
