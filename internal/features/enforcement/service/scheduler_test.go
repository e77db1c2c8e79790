package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"birthday-guard-backend/internal/features/enforcement/models"
)

type fakeScanner struct {
	entries []models.WorklistEntry
	err     error
	calls   int
}

func (s *fakeScanner) Scan(_ context.Context, _ time.Time) ([]models.WorklistEntry, error) {
	s.calls++
	return s.entries, s.err
}

func TestRunTickProcessesAndSweeps(t *testing.T) {
	occurrence := time.Now().UTC().Add(time.Hour)
	bans := &fakeBanRepo{records: []models.BanRecord{
		{UserID: 99, ChatID: 7, BannedUntil: time.Now().UTC().Add(-time.Hour)},
	}}
	gate := &fakeGate{}
	api := newFakeMembershipAPI()
	coord := NewCoordinator(bans, gate, &fakeResolver{}, api, testBanDuration, 4)
	scanner := &fakeScanner{entries: []models.WorklistEntry{entry(42, 7, occurrence)}}

	sched := NewScheduler(scanner, coord, time.Hour)
	summary := sched.RunTick(context.Background())

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Banned)
	assert.Equal(t, int64(1), summary.SweptBanCount, "expired records are swept at the tail of the tick")
	assert.Equal(t, [][2]int64{{7, 42}}, api.banned)
}

func TestRunTickSweepsWhenScanFails(t *testing.T) {
	bans := &fakeBanRepo{records: []models.BanRecord{
		{UserID: 99, ChatID: 7, BannedUntil: time.Now().UTC().Add(-time.Hour)},
	}}
	api := newFakeMembershipAPI()
	coord := NewCoordinator(bans, &fakeGate{}, &fakeResolver{}, api, testBanDuration, 4)
	scanner := &fakeScanner{err: errors.New("database locked")}

	sched := NewScheduler(scanner, coord, time.Hour)
	summary := sched.RunTick(context.Background())

	assert.Equal(t, 0, summary.Processed, "the batch is aborted")
	assert.Empty(t, api.banned)
	assert.Equal(t, int64(1), summary.SweptBanCount, "the sweeper still runs")
}

func TestSchedulerStopWaitsForLoop(t *testing.T) {
	coord := NewCoordinator(&fakeBanRepo{}, &fakeGate{}, &fakeResolver{}, newFakeMembershipAPI(), testBanDuration, 4)
	scanner := &fakeScanner{}

	sched := NewScheduler(scanner, coord, 10*time.Millisecond)
	sched.Start()
	time.Sleep(35 * time.Millisecond)
	sched.Stop()

	calls := scanner.calls
	assert.GreaterOrEqual(t, calls, 1)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, scanner.calls, "no ticks run after Stop returns")
}
