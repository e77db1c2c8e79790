package repository

import (
	"context"
	"errors"

	"birthday-guard-backend/internal/features/roster/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrChatNotFound = errors.New("chat not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type ChatRepository interface {
	Upsert(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, id int64) (*models.Chat, error)
	// MigrateID rewrites the chat's primary key and every referencing row
	// (memberships, bans, invite links) in one transaction.
	MigrateID(ctx context.Context, oldID, newID int64) error
}

type MembershipRepository interface {
	Add(ctx context.Context, chatID, userID int64) error
	// Remove deletes every membership row for the pair, duplicates included.
	Remove(ctx context.Context, chatID, userID int64) error
	// ChatsByUser returns the distinct chat ids the user belongs to.
	ChatsByUser(ctx context.Context, userID int64) ([]int64, error)
	Exists(ctx context.Context, chatID, userID int64) (bool, error)
}
