package service

import (
	"context"
	"time"

	"birthday-guard-backend/internal/common/logger"
	"birthday-guard-backend/internal/features/birthday/models"
	"birthday-guard-backend/internal/features/birthday/repository"
	enfmodels "birthday-guard-backend/internal/features/enforcement/models"
)

type BirthdayService interface {
	// Submit stores the first birthday a user reports, normalized to its next
	// future occurrence. A second submission returns ErrAlreadySet.
	Submit(ctx context.Context, userID int64, text string, now time.Time) (time.Time, error)
	// AdminSet overwrites the stored date, bypassing immutability.
	AdminSet(ctx context.Context, userID int64, text string, now time.Time) (time.Time, error)
	// Scan produces the tick's worklist: one entry per chat membership of
	// every user whose birthday falls inside the lookahead window, excluding
	// pairs already under an active ban.
	Scan(ctx context.Context, now time.Time) ([]enfmodels.WorklistEntry, error)
}

type birthdayService struct {
	repo        repository.BirthdayRepository
	users       UserSource
	memberships MembershipSource
	bans        BanChecker
	lookahead   time.Duration
}

func NewBirthdayService(repo repository.BirthdayRepository, users UserSource, memberships MembershipSource, bans BanChecker, lookahead time.Duration) BirthdayService {
	return &birthdayService{
		repo:        repo,
		users:       users,
		memberships: memberships,
		bans:        bans,
		lookahead:   lookahead,
	}
}

func (s *birthdayService) Submit(ctx context.Context, userID int64, text string, now time.Time) (time.Time, error) {
	date, err := s.normalize(text, now)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.repo.Create(ctx, &models.Birthday{UserID: userID, Date: date}); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func (s *birthdayService) AdminSet(ctx context.Context, userID int64, text string, now time.Time) (time.Time, error) {
	date, err := s.normalize(text, now)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.repo.SetDate(ctx, &models.Birthday{UserID: userID, Date: date}); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func (s *birthdayService) normalize(text string, now time.Time) (time.Time, error) {
	day, month, err := models.ParseDayMonth(text)
	if err != nil {
		return time.Time{}, err
	}
	return models.NextOccurrence(day, month, now), nil
}

func (s *birthdayService) Scan(ctx context.Context, now time.Time) ([]enfmodels.WorklistEntry, error) {
	birthdays, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	horizon := now.Add(s.lookahead)
	var worklist []enfmodels.WorklistEntry

	for _, b := range birthdays {
		// Stored occurrences lapse if a tick was missed; roll them forward
		// on read and persist the correction.
		occurrence := models.Rollover(b.Date, now)
		if !occurrence.Equal(b.Date) {
			if err := s.repo.SetDate(ctx, &models.Birthday{UserID: b.UserID, Date: occurrence}); err != nil {
				logger.Warn().Int64("user_id", b.UserID).Err(err).Msg("Failed to persist rolled-over birthday")
			}
		}

		if occurrence.After(horizon) {
			continue
		}

		user, err := s.users.GetByID(ctx, b.UserID)
		if err != nil {
			logger.Warn().Int64("user_id", b.UserID).Err(err).Msg("Due birthday for unknown user")
			continue
		}

		chats, err := s.memberships.ChatsByUser(ctx, b.UserID)
		if err != nil {
			return nil, err
		}
		// Zero memberships is not an error: the user simply produces no
		// worklist entries.
		for _, chatID := range chats {
			banned, err := s.bans.ExistsActive(ctx, b.UserID, chatID, now)
			if err != nil {
				return nil, err
			}
			if banned {
				continue
			}

			worklist = append(worklist, enfmodels.WorklistEntry{
				UserID:     b.UserID,
				ChatID:     chatID,
				Occurrence: occurrence,
				Username:   user.Username,
				FirstName:  user.FirstName,
				LastName:   user.LastName,
			})
		}
	}

	return worklist, nil
}
