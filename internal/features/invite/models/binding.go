package models

// Binding ties a single-use invite link to the one user allowed to consume it.
type Binding struct {
	Link   string `json:"link"`
	ChatID int64  `json:"chat_id"`
	UserID int64  `json:"user_id"`
}

// Decision is the outcome of a join request evaluated against a binding.
type Decision string

const (
	Approved Decision = "approved"
	Declined Decision = "declined"
)
