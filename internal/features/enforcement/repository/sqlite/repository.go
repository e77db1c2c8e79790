package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"birthday-guard-backend/internal/features/enforcement/models"
	"birthday-guard-backend/internal/features/enforcement/repository"
)

type banRepository struct {
	db *sql.DB
}

func NewBanRepository(db *sql.DB) repository.BanRepository {
	return &banRepository{db: db}
}

func (r *banRepository) Create(ctx context.Context, ban *models.BanRecord) error {
	query := `INSERT INTO banned_users (user_id, chat_id, banned_until) VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, ban.UserID, ban.ChatID, ban.BannedUntil)
	if err != nil {
		return fmt.Errorf("failed to create ban record: %w", err)
	}

	return nil
}

func (r *banRepository) ExistsActive(ctx context.Context, userID, chatID int64, now time.Time) (bool, error) {
	query := `SELECT 1 FROM banned_users WHERE user_id = ? AND chat_id = ? AND banned_until > ? LIMIT 1`

	var one int
	err := r.db.QueryRowContext(ctx, query, userID, chatID, now).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check active ban: %w", err)
	}

	return true, nil
}

func (r *banRepository) Delete(ctx context.Context, userID, chatID int64) error {
	query := `DELETE FROM banned_users WHERE user_id = ? AND chat_id = ?`

	_, err := r.db.ExecContext(ctx, query, userID, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete ban record: %w", err)
	}

	return nil
}

func (r *banRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM banned_users WHERE banned_until <= ?`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired bans: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return affected, nil
}
