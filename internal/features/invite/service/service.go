package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"birthday-guard-backend/internal/common/logger"
	"birthday-guard-backend/internal/features/invite/models"
	"birthday-guard-backend/internal/features/invite/repository"
)

// Gate mints identity-bound single-use invite links and judges the join
// requests that come back through them.
type Gate interface {
	// Mint creates a join-request-mode invite link for the chat, binds it to
	// the user and returns the link for delivery.
	Mint(ctx context.Context, userID, chatID int64) (string, error)
	// Decide consumes the binding for the link and approves the join request
	// only when the requester matches the bound user. Unknown or already
	// consumed links are declined. Either way the link is revoked at the
	// provider and can never be decided again.
	Decide(ctx context.Context, chatID int64, link string, requestingUserID int64) (models.Decision, error)
}

type gate struct {
	repo repository.BindingRepository
	api  InviteAPI
	bans BanLifter
}

func NewGate(repo repository.BindingRepository, api InviteAPI, bans BanLifter) Gate {
	return &gate{repo: repo, api: api, bans: bans}
}

func (g *gate) Mint(ctx context.Context, userID, chatID int64) (string, error) {
	name := fmt.Sprintf("rejoin-%s", uuid.NewString()[:8])

	link, err := g.api.CreateChatInviteLink(ctx, chatID, name)
	if err != nil {
		return "", fmt.Errorf("failed to create invite link: %w", err)
	}

	binding := &models.Binding{Link: link, ChatID: chatID, UserID: userID}
	if err := g.repo.Create(ctx, binding); err != nil {
		// A link without a stored binding is unusable; revoke it so it
		// cannot dangle at the provider.
		if revokeErr := g.api.RevokeChatInviteLink(ctx, chatID, link); revokeErr != nil {
			logger.Warn().Str("link", link).Err(revokeErr).Msg("Failed to revoke orphaned invite link")
		}
		return "", err
	}

	logger.Info().Int64("user_id", userID).Int64("chat_id", chatID).Msg("Invite link minted")
	return link, nil
}

func (g *gate) Decide(ctx context.Context, chatID int64, link string, requestingUserID int64) (models.Decision, error) {
	binding, err := g.repo.Consume(ctx, link)
	if errors.Is(err, repository.ErrBindingNotFound) {
		// Unknown or already consumed token: fail closed.
		logger.Warn().
			Str("link", link).
			Int64("user_id", requestingUserID).
			Msg("Join request with unknown invite link declined")
		if declineErr := g.api.DeclineChatJoinRequest(ctx, chatID, requestingUserID); declineErr != nil {
			return models.Declined, declineErr
		}
		return models.Declined, nil
	}
	if err != nil {
		return models.Declined, err
	}

	// The binding is consumed; whatever happens below, this link decides
	// exactly once. Revoke it at the provider so it cannot be reused.
	defer func() {
		if revokeErr := g.api.RevokeChatInviteLink(ctx, binding.ChatID, binding.Link); revokeErr != nil {
			logger.Warn().Str("link", binding.Link).Err(revokeErr).Msg("Failed to revoke invite link")
		}
	}()

	if binding.UserID != requestingUserID {
		logger.Warn().
			Int64("bound_user_id", binding.UserID).
			Int64("requesting_user_id", requestingUserID).
			Int64("chat_id", binding.ChatID).
			Msg("Join request from wrong user declined")
		if err := g.api.DeclineChatJoinRequest(ctx, binding.ChatID, requestingUserID); err != nil {
			return models.Declined, err
		}
		return models.Declined, nil
	}

	if err := g.api.ApproveChatJoinRequest(ctx, binding.ChatID, binding.UserID); err != nil {
		return models.Declined, fmt.Errorf("failed to approve join request: %w", err)
	}

	if err := g.bans.Delete(ctx, binding.UserID, binding.ChatID); err != nil {
		logger.Warn().
			Int64("user_id", binding.UserID).
			Int64("chat_id", binding.ChatID).
			Err(err).
			Msg("Failed to lift ban after rejoin; sweeper will collect it")
	}

	logger.Info().
		Int64("user_id", binding.UserID).
		Int64("chat_id", binding.ChatID).
		Msg("Join request approved")
	return models.Approved, nil
}
