package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	cacheredis "birthday-guard-backend/internal/cache/redis"
	"birthday-guard-backend/internal/common/logger"
	birthdayrepo "birthday-guard-backend/internal/features/birthday/repository"
	birthdayservice "birthday-guard-backend/internal/features/birthday/service"
	enfservice "birthday-guard-backend/internal/features/enforcement/service"
	inviteservice "birthday-guard-backend/internal/features/invite/service"
	rostermodels "birthday-guard-backend/internal/features/roster/models"
	rosterservice "birthday-guard-backend/internal/features/roster/service"
	"birthday-guard-backend/internal/platform/telegram"

	birthdaymodels "birthday-guard-backend/internal/features/birthday/models"
)

var allowedUpdates = []string{"message", "edited_message", "chat_member", "my_chat_member", "chat_join_request"}

// BotAPI is the slice of the Telegram client the dispatcher needs.
type BotAPI interface {
	GetMe(ctx context.Context) (*telegram.User, error)
	GetUpdates(ctx context.Context, offset int64, timeoutSec int, allowed []string) ([]telegram.Update, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (*telegram.ChatMember, error)
	SendMessage(ctx context.Context, targetID int64, text string) error
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// MemberCache remembers the last observed member state. Optional.
type MemberCache interface {
	Set(ctx context.Context, m *cacheredis.MemberStatus) error
}

// Bot long-polls for updates and routes them to the feature services.
type Bot struct {
	api         BotAPI
	roster      rosterservice.RosterService
	birthdays   birthdayservice.BirthdayService
	coordinator *enfservice.Coordinator
	gate        inviteservice.Gate
	memberCache MemberCache

	pollTimeoutSec int
	botUsername    string
}

func New(api BotAPI, roster rosterservice.RosterService, birthdays birthdayservice.BirthdayService, coordinator *enfservice.Coordinator, gate inviteservice.Gate, memberCache MemberCache, pollTimeoutSec int) *Bot {
	return &Bot{
		api:            api,
		roster:         roster,
		birthdays:      birthdays,
		coordinator:    coordinator,
		gate:           gate,
		memberCache:    memberCache,
		pollTimeoutSec: pollTimeoutSec,
	}
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to identify bot: %w", err)
	}
	b.botUsername = me.Username

	commands := make([]telegram.BotCommand, 0, len(knownCommands))
	for _, c := range knownCommands {
		commands = append(commands, telegram.BotCommand{Command: c.Command, Description: c.Description})
	}
	if err := b.api.SetMyCommands(ctx, commands); err != nil {
		logger.Warn().Err(err).Msg("Failed to register command menu")
	}

	logger.Info().Str("bot", b.botUsername).Msg("Update loop started")

	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeoutSec, allowedUpdates)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Err(err).Msg("getUpdates failed")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.ChatMember != nil:
		b.handleChatMember(ctx, update.ChatMember)
	case update.ChatJoinRequest != nil:
		b.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.MyChatMember != nil:
		logger.Info().
			Int64("chat_id", update.MyChatMember.Chat.ID).
			Str("status", update.MyChatMember.NewChatMember.Status).
			Msg("Own membership changed")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.MigrateToChatID != 0 {
		if err := b.roster.MigrateChat(ctx, msg.Chat.ID, msg.MigrateToChatID); err != nil {
			logger.Error().Int64("chat_id", msg.Chat.ID).Err(err).Msg("Chat migration failed")
		}
		return
	}

	for i := range msg.NewChatMembers {
		member := &msg.NewChatMembers[i]
		if member.IsBot {
			continue
		}
		if err := b.roster.ObserveJoin(ctx, chatModel(msg.Chat), userModel(member)); err != nil {
			logger.Warn().Int64("user_id", member.ID).Err(err).Msg("Failed to record join")
		}
	}
	if msg.LeftChatMember != nil && !msg.LeftChatMember.IsBot {
		if err := b.roster.ObserveLeave(ctx, msg.Chat.ID, msg.LeftChatMember.ID); err != nil {
			logger.Warn().Int64("user_id", msg.LeftChatMember.ID).Err(err).Msg("Failed to record leave")
		}
	}

	if msg.From == nil || msg.From.IsBot {
		return
	}

	command, args, ok := parseCommand(msg.Text, b.botUsername)
	if !ok {
		return
	}

	switch command {
	case "return_user":
		b.handleReturnUser(ctx, msg, args)
	case "birthday":
		b.handleBirthday(ctx, msg, args)
	default:
		b.handleUnknownCommand(ctx, msg, command)
	}
}

func (b *Bot) handleReturnUser(ctx context.Context, msg *telegram.Message, args string) {
	member, err := b.api.GetChatMember(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		logger.Warn().Int64("chat_id", msg.Chat.ID).Err(err).Msg("Failed to check admin rights")
		return
	}
	if member.Status != "administrator" && member.Status != "creator" {
		b.reply(ctx, msg.Chat.ID, "Команда доступна только администраторам")
		return
	}

	reply, err := b.coordinator.ReturnUser(ctx, msg.Chat.ID, firstToken(args))
	if err != nil {
		logger.Error().Int64("chat_id", msg.Chat.ID).Err(err).Msg("Manual return failed")
		b.reply(ctx, msg.Chat.ID, "Не удалось вернуть пользователя, попробуйте позже")
		return
	}
	b.reply(ctx, msg.Chat.ID, reply)
}

func (b *Bot) handleBirthday(ctx context.Context, msg *telegram.Message, args string) {
	b.roster.Reconcile(ctx, userModel(msg.From))

	date, err := b.birthdays.Submit(ctx, msg.From.ID, args, time.Now().UTC())
	switch {
	case errors.Is(err, birthdaymodels.ErrInvalidDate):
		b.reply(ctx, msg.Chat.ID, "Неверный формат даты. Используйте ДД.ММ")
	case errors.Is(err, birthdayrepo.ErrAlreadySet):
		b.reply(ctx, msg.Chat.ID, "Дата рождения уже указана")
	case err != nil:
		logger.Error().Int64("user_id", msg.From.ID).Err(err).Msg("Birthday submission failed")
		b.reply(ctx, msg.Chat.ID, "Не удалось сохранить дату, попробуйте позже")
	default:
		b.reply(ctx, msg.Chat.ID, fmt.Sprintf("Дата рождения сохранена: %s", date.Format("02.01.2006")))
	}
}

func (b *Bot) handleUnknownCommand(ctx context.Context, msg *telegram.Message, command string) {
	if suggestion := suggestCommand(command); suggestion != "" {
		logger.Info().Str("command", command).Str("suggestion", suggestion).Msg("Unrecognized command, suggestion found")
		b.reply(ctx, msg.Chat.ID, fmt.Sprintf("Команда не существует или не поддерживается\nВозможно, вы имелли ввиду: /%s?", suggestion))
		return
	}

	logger.Info().Str("command", command).Msg("Unrecognized command, no suggestion")
	b.reply(ctx, msg.Chat.ID, "Команда не существует или не поддерживается")
}

func (b *Bot) handleChatMember(ctx context.Context, cm *telegram.ChatMemberUpdated) {
	user := cm.NewChatMember.User
	if user.IsBot {
		return
	}

	switch cm.NewChatMember.Status {
	case "member", "administrator", "creator", "restricted":
		if err := b.roster.ObserveJoin(ctx, chatModel(cm.Chat), userModel(&user)); err != nil {
			logger.Warn().Int64("user_id", user.ID).Err(err).Msg("Failed to record membership")
		}
	case "left", "kicked":
		if err := b.roster.ObserveLeave(ctx, cm.Chat.ID, user.ID); err != nil {
			logger.Warn().Int64("user_id", user.ID).Err(err).Msg("Failed to record departure")
		}
	}

	if b.memberCache != nil {
		status := &cacheredis.MemberStatus{
			ChatID:   cm.Chat.ID,
			UserID:   user.ID,
			Status:   cm.NewChatMember.Status,
			SeenAt:   time.Now().UTC(),
			Username: user.Username,
		}
		if err := b.memberCache.Set(ctx, status); err != nil {
			logger.Debug().Int64("user_id", user.ID).Err(err).Msg("Member cache write failed")
		}
	}
}

func (b *Bot) handleJoinRequest(ctx context.Context, req *telegram.ChatJoinRequest) {
	var link string
	if req.InviteLink != nil {
		link = req.InviteLink.InviteLink
	}

	decision, err := b.gate.Decide(ctx, req.Chat.ID, link, req.From.ID)
	if err != nil {
		logger.Error().
			Int64("chat_id", req.Chat.ID).
			Int64("user_id", req.From.ID).
			Err(err).
			Msg("Join request decision failed")
		return
	}

	logger.Info().
		Int64("chat_id", req.Chat.ID).
		Int64("user_id", req.From.ID).
		Str("decision", string(decision)).
		Msg("Join request decided")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.api.SendMessage(ctx, chatID, text); err != nil {
		logger.Warn().Int64("chat_id", chatID).Err(err).Msg("Failed to send reply")
	}
}

func firstToken(args string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == ' ' {
			return args[:i]
		}
	}
	return args
}

func userModel(u *telegram.User) *rostermodels.User {
	return &rostermodels.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func chatModel(c telegram.Chat) *rostermodels.Chat {
	return &rostermodels.Chat{
		ID:       c.ID,
		Title:    c.Title,
		Username: c.Username,
		Type:     c.Type,
	}
}
