package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"birthday-guard-backend/internal/features/invite/models"
	"birthday-guard-backend/internal/features/invite/repository"
)

type bindingRepository struct {
	db *sql.DB
}

func NewBindingRepository(db *sql.DB) repository.BindingRepository {
	return &bindingRepository{db: db}
}

func (r *bindingRepository) Create(ctx context.Context, binding *models.Binding) error {
	query := `INSERT INTO invite_links (link, chat_id, user_id) VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, binding.Link, binding.ChatID, binding.UserID)
	if err != nil {
		return fmt.Errorf("failed to create invite binding: %w", err)
	}

	return nil
}

// Consume deletes and returns the binding in one statement. The conditional
// DELETE is the serialization point for concurrent join requests on the same
// link: the row can only be returned once.
func (r *bindingRepository) Consume(ctx context.Context, link string) (*models.Binding, error) {
	query := `DELETE FROM invite_links WHERE link = ? RETURNING chat_id, user_id`

	binding := &models.Binding{Link: link}
	err := r.db.QueryRowContext(ctx, query, link).Scan(&binding.ChatID, &binding.UserID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrBindingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume invite binding: %w", err)
	}

	return binding, nil
}
