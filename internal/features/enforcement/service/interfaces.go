package service

import (
	"context"
	"time"

	"birthday-guard-backend/internal/features/enforcement/models"
	rostermodels "birthday-guard-backend/internal/features/roster/models"
)

// MembershipAPI is the subset of the bot platform the coordinator calls.
type MembershipAPI interface {
	BanChatMember(ctx context.Context, chatID, userID int64, until time.Time) error
	UnbanChatMember(ctx context.Context, chatID, userID int64) error
	SendMessage(ctx context.Context, targetID int64, text string) error
}

// InviteGate mints rejoin links for banned members.
type InviteGate interface {
	Mint(ctx context.Context, userID, chatID int64) (string, error)
}

// UserResolver maps a raw command token (numeric id or @handle) to a user.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (*rostermodels.User, error)
}

// WorklistSource produces the (user, chat) pairs due for enforcement.
type WorklistSource interface {
	Scan(ctx context.Context, now time.Time) ([]models.WorklistEntry, error)
}
