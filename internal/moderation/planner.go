// Package moderation implements single-entity and bulk moderation for the
// admin console. The planner half turns request parameters into typed
// filters; the executor half applies them inside transactions.
package moderation

import (
	"fmt"
	"time"

	"azox/internal/models"
)

// AllChannels is the sentinel accepted by chat clearing in place of a
// single channel name.
const AllChannels = "all"

// ThreadFilter selects forum threads for bulk deletion. The zero value
// matches nothing and is rejected; use MatchAllThreads for an explicit
// everything-filter.
type ThreadFilter struct {
	CategoryID *uint
	OlderThan  *time.Time
	matchAll   bool
}

// MatchAllThreads returns the filter that deliberately selects every thread.
func MatchAllThreads() ThreadFilter {
	return ThreadFilter{matchAll: true}
}

// MatchAll reports whether the filter was built by MatchAllThreads.
func (f ThreadFilter) MatchAll() bool {
	return f.matchAll
}

// Validate rejects the accidental zero value: deleting every thread must be
// asked for explicitly.
func (f ThreadFilter) Validate() error {
	if f.matchAll {
		if f.CategoryID != nil || f.OlderThan != nil {
			return models.NewValidationError("A match-all filter cannot carry additional criteria")
		}
		return nil
	}
	if f.CategoryID == nil && f.OlderThan == nil {
		return models.NewValidationError("Thread filter requires a category, a cutoff date, or an explicit match-all")
	}
	return nil
}

// ChatFilter selects public channel messages for bulk clearing.
type ChatFilter struct {
	Channel   string
	OlderThan *time.Time
}

func (f ChatFilter) Validate() error {
	if f.Channel == AllChannels {
		return nil
	}
	if !models.ValidChannel(f.Channel) {
		return models.NewValidationError(fmt.Sprintf("Unknown channel %q", f.Channel))
	}
	return nil
}

// UserWindowMode discriminates the two ways of selecting user accounts.
type UserWindowMode int

const (
	// WindowInactivity selects accounts whose last_active is older than N days.
	WindowInactivity UserWindowMode = iota
	// WindowRegistration selects accounts registered inside a date range.
	WindowRegistration
)

// UserWindow selects user accounts for bulk moderation. Exactly one mode is
// active; the constructors enforce it. Admin and owner accounts and the
// acting moderator are always excluded by the executor.
type UserWindow struct {
	Mode         UserWindowMode
	InactiveDays int
	Start        time.Time
	End          time.Time
}

// InactiveWindow selects users whose last activity is more than days ago.
func InactiveWindow(days int) (UserWindow, error) {
	if days < 1 {
		return UserWindow{}, models.NewValidationError("Inactivity window must be at least 1 day")
	}
	return UserWindow{Mode: WindowInactivity, InactiveDays: days}, nil
}

// RegistrationWindow selects users who registered between start and end,
// both interpreted as dates: start at 00:00:00, end inclusive through
// 23:59:59.
func RegistrationWindow(start, end string) (UserWindow, error) {
	s, err := parseDate(start)
	if err != nil {
		return UserWindow{}, models.NewValidationError("Invalid start date (expected YYYY-MM-DD)")
	}
	e, err := parseDate(end)
	if err != nil {
		return UserWindow{}, models.NewValidationError("Invalid end date (expected YYYY-MM-DD)")
	}
	if e.Before(s) {
		return UserWindow{}, models.NewValidationError("End date must not be before start date")
	}
	return UserWindow{
		Mode:  WindowRegistration,
		Start: s,
		End:   e.Add(24*time.Hour - time.Second),
	}, nil
}

// Cutoff resolves an inactivity window to its absolute timestamp.
func (w UserWindow) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -w.InactiveDays)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// ParseCutoffDate parses a date-only cutoff for thread filters. Threads
// strictly before the start of that day match.
func ParseCutoffDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, models.NewValidationError("Invalid date (expected YYYY-MM-DD)")
	}
	return &t, nil
}
