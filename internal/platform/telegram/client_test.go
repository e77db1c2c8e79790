package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatInviteLink(t *testing.T) {
	var gotPath string
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"invite_link":"https://t.me/+abc","creates_join_request":true}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN")
	link, err := c.CreateChatInviteLink(context.Background(), -1007, "rejoin-deadbeef")
	require.NoError(t, err)

	assert.Equal(t, "https://t.me/+abc", link)
	assert.Equal(t, "/botTOKEN/createChatInviteLink", gotPath)
	assert.Equal(t, "-1007", gotForm["chat_id"])
	assert.Equal(t, "rejoin-deadbeef", gotForm["name"])
	assert.Equal(t, "true", gotForm["creates_join_request"], "links must go through join-request approval")
}

func TestAPIErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: user not found"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN")
	err := c.BanChatMember(context.Background(), -1007, 42, time.Now().Add(time.Hour))

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, 1, calls, "logical errors do not improve with retries")
}

func TestRateLimitIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":1}}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN")
	err := c.SendMessage(context.Background(), 42, "привет")

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":60}}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, "TOKEN")
	start := time.Now()
	err := c.SendMessage(ctx, 42, "привет")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "cancellation cuts the retry wait short")
}

func TestGetMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{"id":1000,"is_bot":true,"first_name":"Guard","username":"guard_bot"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "TOKEN")
	me, err := c.GetMe(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), me.ID)
	assert.Equal(t, "guard_bot", me.Username)
}
