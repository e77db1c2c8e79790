package service

import (
	"context"
	"time"

	rostermodels "birthday-guard-backend/internal/features/roster/models"
)

// MembershipSource lists the chats a user belongs to.
type MembershipSource interface {
	ChatsByUser(ctx context.Context, userID int64) ([]int64, error)
}

// UserSource resolves stored users for worklist entries.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (*rostermodels.User, error)
}

// BanChecker reports whether a (user, chat) pair is already under an active ban.
type BanChecker interface {
	ExistsActive(ctx context.Context, userID, chatID int64, now time.Time) (bool, error)
}
