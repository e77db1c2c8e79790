package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"birthday-guard-backend/internal/common/logger"
)

const (
	maxRetryAttempts = 5
	baseRetryDelay   = time.Second
	maxRetryDelay    = 30 * time.Minute
)

// APIError is a non-ok response from the Bot API.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

// IsRateLimit reports whether the error is a 429 from the Bot API.
func (e *APIError) IsRateLimit() bool {
	return e.Code == http.StatusTooManyRequests
}

// Client is a thin Bot API client over plain HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			// Long-polling getUpdates holds the connection open; individual
			// method calls set their own deadline via context.
			Timeout: 90 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
}

// BanChatMember removes the user from the chat until the given time.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	params := url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"user_id":    {strconv.FormatInt(userID, 10)},
		"until_date": {strconv.FormatInt(until.Unix(), 10)},
	}
	return c.call(ctx, "banChatMember", params, nil)
}

// UnbanChatMember lifts a ban. only_if_banned keeps the call from kicking a
// member who was never banned.
func (c *Client) UnbanChatMember(ctx context.Context, chatID, userID int64) error {
	params := url.Values{
		"chat_id":        {strconv.FormatInt(chatID, 10)},
		"user_id":        {strconv.FormatInt(userID, 10)},
		"only_if_banned": {"true"},
	}
	return c.call(ctx, "unbanChatMember", params, nil)
}

// CreateChatInviteLink creates a join-request-mode invite link. Joins through
// it are held for approval instead of completing immediately.
func (c *Client) CreateChatInviteLink(ctx context.Context, chatID int64, name string) (string, error) {
	params := url.Values{
		"chat_id":              {strconv.FormatInt(chatID, 10)},
		"name":                 {name},
		"creates_join_request": {"true"},
	}
	var link ChatInviteLink
	if err := c.call(ctx, "createChatInviteLink", params, &link); err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

// RevokeChatInviteLink invalidates the link so it can never be used again.
func (c *Client) RevokeChatInviteLink(ctx context.Context, chatID int64, link string) error {
	params := url.Values{
		"chat_id":     {strconv.FormatInt(chatID, 10)},
		"invite_link": {link},
	}
	return c.call(ctx, "revokeChatInviteLink", params, nil)
}

func (c *Client) ApproveChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}
	return c.call(ctx, "approveChatJoinRequest", params, nil)
}

func (c *Client) DeclineChatJoinRequest(ctx context.Context, chatID, userID int64) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}
	return c.call(ctx, "declineChatJoinRequest", params, nil)
}

// SendMessage sends text to a chat or a user (private chat id == user id).
func (c *Client) SendMessage(ctx context.Context, targetID int64, text string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(targetID, 10)},
		"text":    {text},
	}
	return c.call(ctx, "sendMessage", params, nil)
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.call(ctx, "getMe", url.Values{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetChatMember returns the user's current membership state in the chat.
func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error) {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"user_id": {strconv.FormatInt(userID, 10)},
	}
	var member ChatMember
	if err := c.call(ctx, "getChatMember", params, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// SetMyCommands registers the bot command menu.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	b, err := json.Marshal(commands)
	if err != nil {
		return fmt.Errorf("failed to marshal commands: %w", err)
	}
	params := url.Values{"commands": {string(b)}}
	return c.call(ctx, "setMyCommands", params, nil)
}

// GetUpdates long-polls for updates past the given offset. Not retried: the
// poll loop is its own retry.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSec int, allowed []string) ([]Update, error) {
	b, err := json.Marshal(allowed)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal allowed updates: %w", err)
	}
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(timeoutSec)},
		"allowed_updates": {string(b)},
	}

	var updates []Update
	if err := c.doCall(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// call performs a Bot API method with bounded retry. 429s wait out the
// server-provided retry_after; transport errors back off exponentially.
func (c *Client) call(ctx context.Context, method string, params url.Values, result interface{}) error {
	var lastErr error
	delay := baseRetryDelay

	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		err := c.doCall(ctx, method, params, result)
		if err == nil {
			return nil
		}
		lastErr = err

		apiErr, ok := err.(*APIError)
		if ok && !apiErr.IsRateLimit() {
			// Logical errors (user not found, not enough rights) do not
			// improve with retries.
			return err
		}

		wait := delay
		if ok && apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
		}
		if wait > maxRetryDelay {
			wait = maxRetryDelay
		}

		logger.Warn().
			Str("method", method).
			Int("attempt", attempt).
			Dur("wait", wait).
			Err(err).
			Msg("Telegram call failed, retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return fmt.Errorf("telegram %s failed after %d attempts: %w", method, maxRetryAttempts, lastErr)
}

func (c *Client) doCall(ctx context.Context, method string, params url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Ok          bool            `json:"ok"`
		ErrorCode   int             `json:"error_code,omitempty"`
		Description string          `json:"description,omitempty"`
		Parameters  *struct {
			RetryAfter int `json:"retry_after,omitempty"`
		} `json:"parameters,omitempty"`
		Result json.RawMessage `json:"result,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !envelope.Ok {
		apiErr := &APIError{Code: envelope.ErrorCode, Description: envelope.Description}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
	}

	return nil
}
