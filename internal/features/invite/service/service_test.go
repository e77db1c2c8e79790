package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"birthday-guard-backend/internal/features/invite/models"
	"birthday-guard-backend/internal/features/invite/repository"
)

type fakeBindingRepo struct {
	mu       sync.Mutex
	bindings map[string]*models.Binding

	createErr error
}

func newFakeBindingRepo() *fakeBindingRepo {
	return &fakeBindingRepo{bindings: make(map[string]*models.Binding)}
}

func (r *fakeBindingRepo) Create(_ context.Context, b *models.Binding) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *b
	r.bindings[b.Link] = &copied
	return nil
}

func (r *fakeBindingRepo) Consume(_ context.Context, link string) (*models.Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[link]
	if !ok {
		return nil, repository.ErrBindingNotFound
	}
	delete(r.bindings, link)
	return b, nil
}

type fakeInviteAPI struct {
	mu        sync.Mutex
	nextLink  int
	created   []string
	revoked   []string
	approved  [][2]int64
	declined  [][2]int64
	createErr error
}

func (a *fakeInviteAPI) CreateChatInviteLink(_ context.Context, chatID int64, _ string) (string, error) {
	if a.createErr != nil {
		return "", a.createErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextLink++
	link := fmt.Sprintf("https://t.me/+link%d", a.nextLink)
	a.created = append(a.created, link)
	return link, nil
}

func (a *fakeInviteAPI) RevokeChatInviteLink(_ context.Context, _ int64, link string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = append(a.revoked, link)
	return nil
}

func (a *fakeInviteAPI) ApproveChatJoinRequest(_ context.Context, chatID, userID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.approved = append(a.approved, [2]int64{chatID, userID})
	return nil
}

func (a *fakeInviteAPI) DeclineChatJoinRequest(_ context.Context, chatID, userID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.declined = append(a.declined, [2]int64{chatID, userID})
	return nil
}

type fakeBanLifter struct {
	mu      sync.Mutex
	deleted [][2]int64
}

func (l *fakeBanLifter) Delete(_ context.Context, userID, chatID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = append(l.deleted, [2]int64{userID, chatID})
	return nil
}

func TestMintBindsLinkToUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBindingRepo()
	api := &fakeInviteAPI{}
	gate := NewGate(repo, api, &fakeBanLifter{})

	link, err := gate.Mint(ctx, 42, 7)
	require.NoError(t, err)
	require.NotEmpty(t, link)

	b, ok := repo.bindings[link]
	require.True(t, ok)
	assert.Equal(t, int64(42), b.UserID)
	assert.Equal(t, int64(7), b.ChatID)
}

func TestMintRevokesLinkWhenBindingFails(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBindingRepo()
	repo.createErr = errors.New("disk full")
	api := &fakeInviteAPI{}
	gate := NewGate(repo, api, &fakeBanLifter{})

	_, err := gate.Mint(ctx, 42, 7)
	require.Error(t, err)
	require.Len(t, api.created, 1)
	assert.Equal(t, api.created, api.revoked, "an unbindable link must not dangle at the provider")
}

func TestDecideApprovesBoundUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBindingRepo()
	api := &fakeInviteAPI{}
	bans := &fakeBanLifter{}
	gate := NewGate(repo, api, bans)

	link, err := gate.Mint(ctx, 42, 7)
	require.NoError(t, err)

	decision, err := gate.Decide(ctx, 7, link, 42)
	require.NoError(t, err)
	assert.Equal(t, models.Approved, decision)
	assert.Equal(t, [][2]int64{{7, 42}}, api.approved)
	assert.Equal(t, [][2]int64{{42, 7}}, bans.deleted, "ban is lifted on verified rejoin")
	assert.Contains(t, api.revoked, link)
}

func TestDecideDeclinesWrongUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBindingRepo()
	api := &fakeInviteAPI{}
	bans := &fakeBanLifter{}
	gate := NewGate(repo, api, bans)

	link, err := gate.Mint(ctx, 42, 7)
	require.NoError(t, err)

	decision, err := gate.Decide(ctx, 7, link, 99)
	require.NoError(t, err)
	assert.Equal(t, models.Declined, decision)
	assert.Equal(t, [][2]int64{{7, 99}}, api.declined)
	assert.Empty(t, api.approved)
	assert.Empty(t, bans.deleted)
	assert.Contains(t, api.revoked, link, "a mismatched link is burned, not left live")

	// The binding is consumed even on mismatch; the bound user cannot use it
	// afterwards.
	decision, err = gate.Decide(ctx, 7, link, 42)
	require.NoError(t, err)
	assert.Equal(t, models.Declined, decision)
}

func TestDecideDeclinesUnknownLink(t *testing.T) {
	ctx := context.Background()
	api := &fakeInviteAPI{}
	gate := NewGate(newFakeBindingRepo(), api, &fakeBanLifter{})

	decision, err := gate.Decide(ctx, 7, "https://t.me/+unknown", 42)
	require.NoError(t, err)
	assert.Equal(t, models.Declined, decision)
	assert.Equal(t, [][2]int64{{7, 42}}, api.declined)
}

func TestDecideConcurrentApprovesAtMostOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBindingRepo()
	api := &fakeInviteAPI{}
	gate := NewGate(repo, api, &fakeBanLifter{})

	link, err := gate.Mint(ctx, 42, 7)
	require.NoError(t, err)

	const attempts = 16
	decisions := make([]models.Decision, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := gate.Decide(ctx, 7, link, 42)
			assert.NoError(t, err)
			decisions[i] = d
		}(i)
	}
	wg.Wait()

	approved := 0
	for _, d := range decisions {
		if d == models.Approved {
			approved++
		}
	}
	assert.Equal(t, 1, approved, "a link admits exactly one join")
	assert.Len(t, api.approved, 1)
}
