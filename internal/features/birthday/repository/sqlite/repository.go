package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"birthday-guard-backend/internal/features/birthday/models"
	"birthday-guard-backend/internal/features/birthday/repository"
)

type birthdayRepository struct {
	db *sql.DB
}

func NewBirthdayRepository(db *sql.DB) repository.BirthdayRepository {
	return &birthdayRepository{db: db}
}

func (r *birthdayRepository) Create(ctx context.Context, b *models.Birthday) error {
	query := `INSERT INTO birthdays (user_id, date) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, b.UserID, b.Date)
	if err != nil {
		return fmt.Errorf("failed to create birthday: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrAlreadySet
	}

	return nil
}

func (r *birthdayRepository) SetDate(ctx context.Context, b *models.Birthday) error {
	query := `
		INSERT INTO birthdays (user_id, date) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET date = excluded.date`

	_, err := r.db.ExecContext(ctx, query, b.UserID, b.Date)
	if err != nil {
		return fmt.Errorf("failed to set birthday date: %w", err)
	}

	return nil
}

func (r *birthdayRepository) GetByUser(ctx context.Context, userID int64) (*models.Birthday, error) {
	query := `SELECT user_id, date FROM birthdays WHERE user_id = ?`

	var b models.Birthday
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.Date)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrBirthdayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get birthday: %w", err)
	}

	return &b, nil
}

func (r *birthdayRepository) List(ctx context.Context) ([]models.Birthday, error) {
	query := `SELECT user_id, date FROM birthdays ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list birthdays: %w", err)
	}
	defer rows.Close()

	var birthdays []models.Birthday
	for rows.Next() {
		var b models.Birthday
		if err := rows.Scan(&b.UserID, &b.Date); err != nil {
			return nil, fmt.Errorf("failed to scan birthday: %w", err)
		}
		birthdays = append(birthdays, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate birthdays: %w", err)
	}

	return birthdays, nil
}
