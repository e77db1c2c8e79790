package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid birthday date")

// Birthday holds the next future occurrence of a user's birthday. The stored
// date lapses once it passes; readers roll it over before using it.
type Birthday struct {
	UserID int64     `json:"user_id"`
	Date   time.Time `json:"date"`
}

// ParseDayMonth parses user input in "DD.MM" form.
func ParseDayMonth(text string) (day, month int, err error) {
	parts := strings.Split(strings.TrimSpace(text), ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: expected DD.MM, got %q", ErrInvalidDate, text)
	}

	day, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}

	if month < 1 || month > 12 || day < 1 || day > daysIn(month) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	return day, month, nil
}

// NextOccurrence returns the next future date with the given day and month:
// this year if the date has not yet passed, next year otherwise.
func NextOccurrence(day, month int, now time.Time) time.Time {
	occ := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if occ.Before(startOfDay(now)) {
		occ = occ.AddDate(1, 0, 0)
	}
	return occ
}

// Rollover advances a lapsed occurrence to the next future one. Dates are
// recomputed on every read, so a missed scheduler run never leaves a birthday
// stuck in the past.
func Rollover(date time.Time, now time.Time) time.Time {
	today := startOfDay(now)
	for date.Before(today) {
		date = date.AddDate(1, 0, 0)
	}
	return date
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysIn allows day 29 for February; Feb 29 birthdays normalize to Mar 1 in
// non-leap years via time.Date.
func daysIn(month int) int {
	switch time.Month(month) {
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		return 29
	default:
		return 31
	}
}
