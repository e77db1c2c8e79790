package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"birthday-guard-backend/internal/common/logger"
	"birthday-guard-backend/internal/features/enforcement/models"
	"birthday-guard-backend/internal/features/enforcement/repository"
	rosterrepo "birthday-guard-backend/internal/features/roster/repository"
)

const defaultMaxConcurrent = 10

// Coordinator applies birthday enforcement: it removes due members from their
// chats, records the bans and hands out rejoin links.
type Coordinator struct {
	bans          repository.BanRepository
	gate          InviteGate
	resolver      UserResolver
	tg            MembershipAPI
	banDuration   time.Duration
	maxConcurrent int
}

func NewCoordinator(bans repository.BanRepository, gate InviteGate, resolver UserResolver, tg MembershipAPI, banDuration time.Duration, maxConcurrent int) *Coordinator {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Coordinator{
		bans:          bans,
		gate:          gate,
		resolver:      resolver,
		tg:            tg,
		banDuration:   banDuration,
		maxConcurrent: maxConcurrent,
	}
}

// ProcessWorklist runs every entry to completion and reports the aggregate.
// Entries are independent: they run concurrently under a semaphore, failures
// stay scoped to their own entry, and the summary is only assembled after the
// last entry has finished.
func (c *Coordinator) ProcessWorklist(ctx context.Context, entries []models.WorklistEntry, now time.Time) models.BatchSummary {
	outcomes := make([]models.EntryOutcome, len(entries))
	sem := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for i, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, entry models.WorklistEntry) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = c.processEntry(ctx, entry, now)
		}(i, entry)
	}
	wg.Wait()

	return models.Summarize(outcomes)
}

// processEntry runs the fixed per-pair pipeline: removal attempt, record
// persistence, link mint, notification. A failed removal degrades to a chat
// notification; the record and the link are written regardless so the pair is
// not retried forever.
func (c *Coordinator) processEntry(ctx context.Context, entry models.WorklistEntry, now time.Time) models.EntryOutcome {
	outcome := models.EntryOutcome{Entry: entry}

	active, err := c.bans.ExistsActive(ctx, entry.UserID, entry.ChatID, now)
	if err != nil {
		outcome.Status = models.StatusFailed
		outcome.Err = err
		return outcome
	}
	if active {
		outcome.Status = models.StatusSkipped
		return outcome
	}

	until := entry.Occurrence.Add(c.banDuration)
	removalErr := c.tg.BanChatMember(ctx, entry.ChatID, entry.UserID, until)

	if err := c.bans.Create(ctx, &models.BanRecord{
		UserID:      entry.UserID,
		ChatID:      entry.ChatID,
		BannedUntil: until,
	}); err != nil {
		outcome.Status = models.StatusFailed
		outcome.Err = err
		return outcome
	}

	link, mintErr := c.gate.Mint(ctx, entry.UserID, entry.ChatID)
	if mintErr != nil {
		logger.Warn().
			Int64("user_id", entry.UserID).
			Int64("chat_id", entry.ChatID).
			Err(mintErr).
			Msg("Failed to mint rejoin link")
	}

	if removalErr != nil {
		logger.Warn().
			Int64("user_id", entry.UserID).
			Int64("chat_id", entry.ChatID).
			Err(removalErr).
			Msg("Member removal failed, requesting manual action")

		text := fmt.Sprintf("⚠️ Не удалось исключить %s в день рождения — требуется ручное действие администратора.", mention(entry))
		if err := c.tg.SendMessage(ctx, entry.ChatID, text); err != nil {
			logger.Warn().Int64("chat_id", entry.ChatID).Err(err).Msg("Failed to notify chat")
		}

		outcome.Status = models.StatusRemovalFailed
		outcome.Err = removalErr
		return outcome
	}

	if link != "" {
		text := fmt.Sprintf("🎂 С днём рождения! На время праздника вы исключены из группы. Вернуться можно по персональной ссылке: %s", link)
		if err := c.tg.SendMessage(ctx, entry.UserID, text); err != nil {
			logger.Warn().Int64("user_id", entry.UserID).Err(err).Msg("Failed to send rejoin link")
		}
	}

	outcome.Status = models.StatusBanned
	return outcome
}

// Sweep deletes ban records whose expiry has passed.
func (c *Coordinator) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return c.bans.DeleteExpired(ctx, now)
}

// ReturnUser handles the administrator's manual-override command: resolve the
// token, mint a fresh rejoin link, lift the ban and deliver the link
// privately. The returned string is the reply for the requesting chat.
func (c *Coordinator) ReturnUser(ctx context.Context, chatID int64, token string) (string, error) {
	if token == "" {
		return "Пожалуйста укажите пользователя для возвращения", nil
	}

	user, err := c.resolver.ResolveUser(ctx, token)
	if errors.Is(err, rosterrepo.ErrUserNotFound) {
		return "Пользователь не найден", nil
	}
	if err != nil {
		return "", err
	}

	link, err := c.gate.Mint(ctx, user.ID, chatID)
	if err != nil {
		return "", err
	}

	if err := c.bans.Delete(ctx, user.ID, chatID); err != nil {
		return "", err
	}
	if err := c.tg.UnbanChatMember(ctx, chatID, user.ID); err != nil {
		logger.Warn().
			Int64("user_id", user.ID).
			Int64("chat_id", chatID).
			Err(err).
			Msg("Failed to lift removal at provider")
	}

	text := fmt.Sprintf("Вы можете вернуться в группу по ссылке: %s", link)
	if err := c.tg.SendMessage(ctx, user.ID, text); err != nil {
		logger.Warn().Int64("user_id", user.ID).Err(err).Msg("Failed to send return link")
	}

	return fmt.Sprintf("Ссылка для возвращения отправлена пользователю %s", user.Mention()), nil
}

func mention(e models.WorklistEntry) string {
	if e.Username != "" {
		return "@" + e.Username
	}
	name := e.FirstName
	if e.LastName != "" {
		name += " " + e.LastName
	}
	return name
}
