package service

import "context"

// InviteAPI is the subset of the bot platform the gate talks to.
type InviteAPI interface {
	CreateChatInviteLink(ctx context.Context, chatID int64, name string) (string, error)
	RevokeChatInviteLink(ctx context.Context, chatID int64, link string) error
	ApproveChatJoinRequest(ctx context.Context, chatID, userID int64) error
	DeclineChatJoinRequest(ctx context.Context, chatID, userID int64) error
}

// BanLifter removes the ban record for a pair after a verified rejoin.
type BanLifter interface {
	Delete(ctx context.Context, userID, chatID int64) error
}
