package ledger

import (
	"time"

	"leaveledger/internal/domain/category"
)

const (
	SlotBeforeNoon = "before_noon"
	SlotAfterNoon  = "after_noon"
)

// NoonBoundarySeconds is the fixed half-day boundary: 12:30, expressed as
// seconds into the day.
const NoonBoundarySeconds = 45000

// SecondsPerDay bounds short-leave time windows.
const SecondsPerDay = 86400

// CategoryBalance holds the per-category counters of one member.
type CategoryBalance struct {
	Granted   float64 `json:"granted"`
	Remaining float64 `json:"remaining"`
}

// Entry is one booked leave day. Entries are immutable; corrections are
// delete plus recreate.
type Entry struct {
	ID        string            `json:"id"`
	MemberID  string            `json:"memberId"`
	Category  category.Category `json:"category"`
	Day       time.Time         `json:"day"`
	ScopeID   string            `json:"scopeId"`
	CreatedBy string            `json:"createdBy"`
	CreatedAt time.Time         `json:"createdAt"`
	Detail    *Detail           `json:"detail,omitempty"`
}

// Detail is the optional sidecar on an entry: the half-day slot or the short
// time window.
type Detail struct {
	Slot    string `json:"slot,omitempty"`
	FromSec int    `json:"fromSec,omitempty"`
	ToSec   int    `json:"toSec,omitempty"`
}

// SubOption carries the category-specific request parameters: the half-day
// slot, the short time window, or the adjustment credit amount.
type SubOption struct {
	Slot    string
	FromSec int
	ToSec   int
	Amount  float64
}

// DateSpec is an inclusive calendar date range. Half-day and short requests
// must resolve to exactly one date.
type DateSpec struct {
	From time.Time
	To   time.Time
}

// Actor is the authenticated caller as the ledger sees it.
type Actor struct {
	ID       string
	Role     string
	ScopeID  string
	MemberID string
}

// BalanceSnapshot is the reported per-member balance state.
type BalanceSnapshot struct {
	MemberID           string                               `json:"memberId"`
	PerCategory        map[category.Category]CategoryBalance `json:"perCategory"`
	AggregateGranted   float64                              `json:"aggregateGranted"`
	AggregateRemaining float64                              `json:"aggregateRemaining"`
}

// DayKey normalizes a date to its calendar day in UTC.
func DayKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpandDates resolves a DateSpec into the inclusive list of affected days.
// Only full-day categories may span more than one date.
func ExpandDates(cat category.Category, spec DateSpec) ([]time.Time, error) {
	from := DayKey(spec.From)
	to := spec.To
	if to.IsZero() {
		to = spec.From
	}
	to = DayKey(to)

	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	if cat.Granularity() != category.FullDay && !from.Equal(to) {
		return nil, ErrInvalidDateRange
	}

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}
