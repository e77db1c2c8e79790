package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"birthday-guard-backend/internal/features/roster/models"
	"birthday-guard-backend/internal/features/roster/repository"
	"birthday-guard-backend/internal/platform/sqlite"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, first, last, username) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.FirstName, user.LastName, user.Username)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, first, last, username FROM users WHERE id = ?`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Username)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, first, last, username FROM users WHERE username = ?`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, strings.TrimPrefix(username, "@")).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Username)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET first = ?, last = ?, username = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, user.FirstName, user.LastName, user.Username, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

type chatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Upsert(ctx context.Context, chat *models.Chat) error {
	query := `
		INSERT INTO chats (id, title, username, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			username = excluded.username,
			type = excluded.type`

	_, err := r.db.ExecContext(ctx, query, chat.ID, chat.Title, chat.Username, chat.Type)
	if err != nil {
		return fmt.Errorf("failed to upsert chat: %w", err)
	}

	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id int64) (*models.Chat, error) {
	query := `SELECT id, title, username, type FROM chats WHERE id = ?`

	var chat models.Chat
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&chat.ID, &chat.Title, &chat.Username, &chat.Type)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return &chat, nil
}

// MigrateID rewrites the chat id everywhere it is referenced. One transaction,
// so a crash cannot leave a half-migrated chat.
func (r *chatRepository) MigrateID(ctx context.Context, oldID, newID int64) error {
	return sqlite.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		statements := []string{
			`UPDATE chats SET id = ? WHERE id = ?`,
			`UPDATE chat_users SET chat_id = ? WHERE chat_id = ?`,
			`UPDATE banned_users SET chat_id = ? WHERE chat_id = ?`,
			`UPDATE invite_links SET chat_id = ? WHERE chat_id = ?`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, newID, oldID); err != nil {
				return fmt.Errorf("failed to migrate chat id: %w", err)
			}
		}
		return nil
	})
}

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Add(ctx context.Context, chatID, userID int64) error {
	query := `INSERT INTO chat_users (chat_id, user_id) VALUES (?, ?)`

	_, err := r.db.ExecContext(ctx, query, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}

	return nil
}

func (r *membershipRepository) Remove(ctx context.Context, chatID, userID int64) error {
	query := `DELETE FROM chat_users WHERE chat_id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	return nil
}

func (r *membershipRepository) ChatsByUser(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT DISTINCT chat_id FROM chat_users WHERE user_id = ? ORDER BY chat_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats for user: %w", err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chat id: %w", err)
		}
		chats = append(chats, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat ids: %w", err)
	}

	return chats, nil
}

func (r *membershipRepository) Exists(ctx context.Context, chatID, userID int64) (bool, error) {
	query := `SELECT 1 FROM chat_users WHERE chat_id = ? AND user_id = ? LIMIT 1`

	var one int
	err := r.db.QueryRowContext(ctx, query, chatID, userID).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return true, nil
}
