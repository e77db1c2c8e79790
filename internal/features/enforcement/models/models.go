package models

import "time"

// BanRecord marks a user as removed from a chat until the given time. At most
// one active record exists per (user, chat) pair.
type BanRecord struct {
	UserID      int64     `json:"user_id"`
	ChatID      int64     `json:"chat_id"`
	BannedUntil time.Time `json:"banned_until"`
}

// Active reports whether the record has not yet expired.
func (b *BanRecord) Active(now time.Time) bool {
	return b.BannedUntil.After(now)
}

// WorklistEntry is one (user, chat) pair due for enforcement, with the user
// identity the coordinator needs for notifications.
type WorklistEntry struct {
	UserID     int64
	ChatID     int64
	Occurrence time.Time
	Username   string
	FirstName  string
	LastName   string
}

// EntryStatus classifies the outcome of processing one worklist entry.
type EntryStatus string

const (
	// StatusBanned: the member was removed and the ban recorded.
	StatusBanned EntryStatus = "banned"
	// StatusRemovalFailed: the removal call failed (owner, already absent);
	// the record was written anyway and the chat was notified.
	StatusRemovalFailed EntryStatus = "removal_failed"
	// StatusSkipped: an active ban already covers the pair.
	StatusSkipped EntryStatus = "skipped"
	// StatusFailed: the store rejected the record; retried next tick.
	StatusFailed EntryStatus = "failed"
)

// EntryOutcome pairs a worklist entry with its result.
type EntryOutcome struct {
	Entry  WorklistEntry
	Status EntryStatus
	Err    error
}

// BatchSummary aggregates one tick's outcomes.
type BatchSummary struct {
	Processed      int
	Banned         int
	RemovalFailed  int
	Skipped        int
	Failed         int
	Outcomes       []EntryOutcome
	SweptBanCount  int64
}

func Summarize(outcomes []EntryOutcome) BatchSummary {
	s := BatchSummary{Processed: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case StatusBanned:
			s.Banned++
		case StatusRemovalFailed:
			s.RemovalFailed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
