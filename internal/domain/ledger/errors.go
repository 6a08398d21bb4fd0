package ledger

import "errors"

// Overlap rejections. Each maps to a stable reason surfaced to the caller.
var (
	ErrFullDayExists    = errors.New("full-day leave already exists for this date")
	ErrDayOccupied      = errors.New("date already has leave booked")
	ErrDuplicateHalfDay = errors.New("half-day leave with this slot already exists for this date")
	ErrNoonBoundary     = errors.New("short leave conflicts with half-day leave across the noon boundary")
	ErrShortOverlap     = errors.New("short leave overlaps an existing time window")
	ErrInvalidTime      = errors.New("invalid time range")
	ErrInvalidSlot      = errors.New("half-day slot must be before_noon or after_noon")
)

// Ledger operation failures.
var (
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNegativeRemaining   = errors.New("granted balance cannot drop below consumed leave")
	ErrInvalidAmount       = errors.New("adjustment amount must be positive")
	ErrMemberNotFound      = errors.New("member not found")
	ErrEntryNotFound       = errors.New("leave entry not found")
	ErrForbidden           = errors.New("forbidden")
)

// IsRejection reports whether err is a validation or business rejection, as
// opposed to a persistence failure. Rejections roll back cleanly and map to
// 4xx responses.
func IsRejection(err error) bool {
	for _, candidate := range []error{
		ErrFullDayExists,
		ErrDayOccupied,
		ErrDuplicateHalfDay,
		ErrNoonBoundary,
		ErrShortOverlap,
		ErrInvalidTime,
		ErrInvalidSlot,
		ErrInvalidDateRange,
		ErrInsufficientBalance,
		ErrNegativeRemaining,
		ErrInvalidAmount,
		ErrMemberNotFound,
		ErrEntryNotFound,
		ErrForbidden,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}
