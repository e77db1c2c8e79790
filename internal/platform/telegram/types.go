package telegram

// Bot API payloads, limited to the fields this service consumes.

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	MessageID         int64  `json:"message_id"`
	From              *User  `json:"from,omitempty"`
	Chat              Chat   `json:"chat"`
	Text              string `json:"text,omitempty"`
	NewChatMembers    []User `json:"new_chat_members,omitempty"`
	LeftChatMember    *User  `json:"left_chat_member,omitempty"`
	MigrateToChatID   int64  `json:"migrate_to_chat_id,omitempty"`
	MigrateFromChatID int64  `json:"migrate_from_chat_id,omitempty"`
}

type ChatMember struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

type ChatMemberUpdated struct {
	Chat          Chat       `json:"chat"`
	From          User       `json:"from"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

type ChatInviteLink struct {
	InviteLink         string `json:"invite_link"`
	Name               string `json:"name,omitempty"`
	CreatesJoinRequest bool   `json:"creates_join_request"`
	IsRevoked          bool   `json:"is_revoked"`
}

type ChatJoinRequest struct {
	Chat       Chat            `json:"chat"`
	From       User            `json:"from"`
	InviteLink *ChatInviteLink `json:"invite_link,omitempty"`
}

type Update struct {
	UpdateID        int64              `json:"update_id"`
	Message         *Message           `json:"message,omitempty"`
	EditedMessage   *Message           `json:"edited_message,omitempty"`
	ChatMember      *ChatMemberUpdated `json:"chat_member,omitempty"`
	MyChatMember    *ChatMemberUpdated `json:"my_chat_member,omitempty"`
	ChatJoinRequest *ChatJoinRequest   `json:"chat_join_request,omitempty"`
}

type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}
