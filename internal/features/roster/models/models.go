package models

import "strings"

// User is a chat member known to the service. IDs are assigned by Telegram
// and never change.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayName concatenates the name parts; it is derived, never stored.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Mention renders the user for chat messages: @username when present,
// display name otherwise.
func (u *User) Mention() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.DisplayName()
}

// Chat is a monitored group. Its id is not stable: a supergroup upgrade
// assigns a new one, handled by the migrate operation.
type Chat struct {
	ID       int64  `json:"id"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
	Type     string `json:"type"`
}

// Membership relates a user to a chat. Duplicate rows may exist.
type Membership struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

// ReconcileResult classifies the outcome of syncing one observed user
// against the store.
type ReconcileResult string

const (
	ReconcileAdded   ReconcileResult = "added"
	ReconcileUpdated ReconcileResult = "updated"
	ReconcileSkipped ReconcileResult = "skipped"
	ReconcileFailed  ReconcileResult = "failed"
)
