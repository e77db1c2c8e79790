package service

import (
	"context"
	"errors"

	"birthday-guard-backend/internal/common/logger"
	"birthday-guard-backend/internal/features/roster/models"
	"birthday-guard-backend/internal/features/roster/repository"
)

// RosterService keeps the stored roster in sync with what the bot observes
// in chats.
type RosterService interface {
	// Reconcile syncs one observed user against the store. A persistence
	// failure is reported as ReconcileFailed, never as an error: batch
	// callers treat it as a per-item warning.
	Reconcile(ctx context.Context, observed *models.User) models.ReconcileResult
	ObserveJoin(ctx context.Context, chat *models.Chat, user *models.User) error
	ObserveLeave(ctx context.Context, chatID, userID int64) error
	ResolveUser(ctx context.Context, token string) (*models.User, error)
	MigrateChat(ctx context.Context, oldID, newID int64) error
}

type rosterService struct {
	users       repository.UserRepository
	chats       repository.ChatRepository
	memberships repository.MembershipRepository
}

func NewRosterService(users repository.UserRepository, chats repository.ChatRepository, memberships repository.MembershipRepository) RosterService {
	return &rosterService{
		users:       users,
		chats:       chats,
		memberships: memberships,
	}
}

func (s *rosterService) Reconcile(ctx context.Context, observed *models.User) models.ReconcileResult {
	stored, err := s.users.GetByID(ctx, observed.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		if err := s.users.Create(ctx, observed); err != nil {
			logger.Warn().Int64("user_id", observed.ID).Err(err).Msg("Reconcile insert failed")
			return models.ReconcileFailed
		}
		return models.ReconcileAdded
	}
	if err != nil {
		logger.Warn().Int64("user_id", observed.ID).Err(err).Msg("Reconcile read failed")
		return models.ReconcileFailed
	}

	if stored.FirstName == observed.FirstName &&
		stored.LastName == observed.LastName &&
		stored.Username == observed.Username {
		return models.ReconcileSkipped
	}

	if err := s.users.Update(ctx, observed); err != nil {
		logger.Warn().Int64("user_id", observed.ID).Err(err).Msg("Reconcile update failed")
		return models.ReconcileFailed
	}
	return models.ReconcileUpdated
}

func (s *rosterService) ObserveJoin(ctx context.Context, chat *models.Chat, user *models.User) error {
	if err := s.chats.Upsert(ctx, chat); err != nil {
		return err
	}
	s.Reconcile(ctx, user)

	exists, err := s.memberships.Exists(ctx, chat.ID, user.ID)
	if err != nil {
		return err
	}
	if exists {
		// A duplicate row is a data-quality issue, not a reason to fail the
		// observed join.
		return nil
	}
	return s.memberships.Add(ctx, chat.ID, user.ID)
}

func (s *rosterService) ObserveLeave(ctx context.Context, chatID, userID int64) error {
	return s.memberships.Remove(ctx, chatID, userID)
}

// ResolveUser maps a raw command token to a stored user: a numeric token is
// an id, an @token is a username.
func (s *rosterService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	if id, ok := parseNumericID(token); ok {
		return s.users.GetByID(ctx, id)
	}
	if isHandle(token) {
		return s.users.GetByUsername(ctx, token)
	}
	return nil, repository.ErrUserNotFound
}

func (s *rosterService) MigrateChat(ctx context.Context, oldID, newID int64) error {
	if err := s.chats.MigrateID(ctx, oldID, newID); err != nil {
		return err
	}
	logger.Info().Int64("old_chat_id", oldID).Int64("new_chat_id", newID).Msg("Chat id migrated")
	return nil
}

func parseNumericID(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}
	var id int64
	for _, r := range token {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int64(r-'0')
	}
	return id, true
}

// isHandle matches Telegram usernames: @ plus at least five word characters.
func isHandle(token string) bool {
	if len(token) < 6 || token[0] != '@' {
		return false
	}
	for _, r := range token[1:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
