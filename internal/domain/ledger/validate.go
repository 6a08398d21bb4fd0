package ledger

import "leaveledger/internal/domain/category"

// DayEntry is an existing entry on the date under validation, flattened with
// its detail for the validator.
type DayEntry struct {
	Category category.Category
	Slot     string
	FromSec  int
	ToSec    int
}

// ValidateDay decides whether a request for cat with sub may be booked on a
// date that already holds existing entries. The first violated rule wins.
// The adjustment pseudo-category is a balance credit and bypasses all checks.
func ValidateDay(cat category.Category, sub SubOption, existing []DayEntry) error {
	if cat == category.GrantedAdjustment {
		return nil
	}

	// A full-day entry blocks the date for everything.
	for _, e := range existing {
		if e.Category.Granularity() == category.FullDay {
			return ErrFullDayExists
		}
	}

	switch cat.Granularity() {
	case category.FullDay:
		if len(existing) > 0 {
			return ErrDayOccupied
		}
		return nil
	case category.HalfDayPart:
		return validateHalfDay(sub, existing)
	case category.SubDayRange:
		return validateShort(sub, existing)
	}
	return ErrDayOccupied
}

func validateHalfDay(sub SubOption, existing []DayEntry) error {
	if sub.Slot != SlotBeforeNoon && sub.Slot != SlotAfterNoon {
		return ErrInvalidSlot
	}
	for _, e := range existing {
		switch e.Category.Granularity() {
		case category.HalfDayPart:
			if e.Slot == sub.Slot {
				return ErrDuplicateHalfDay
			}
		case category.SubDayRange:
			// The short window must stay on the requested side of the
			// noon boundary.
			if sub.Slot == SlotBeforeNoon && e.ToSec > NoonBoundarySeconds {
				return ErrNoonBoundary
			}
			if sub.Slot == SlotAfterNoon && e.FromSec < NoonBoundarySeconds {
				return ErrNoonBoundary
			}
		}
	}
	return nil
}

func validateShort(sub SubOption, existing []DayEntry) error {
	if sub.FromSec < 0 || sub.ToSec > SecondsPerDay || sub.FromSec >= sub.ToSec {
		return ErrInvalidTime
	}
	for _, e := range existing {
		switch e.Category.Granularity() {
		case category.HalfDayPart:
			// Symmetric containment against the booked half-day slot.
			if e.Slot == SlotBeforeNoon && sub.ToSec > NoonBoundarySeconds {
				return ErrNoonBoundary
			}
			if e.Slot == SlotAfterNoon && sub.FromSec < NoonBoundarySeconds {
				return ErrNoonBoundary
			}
		case category.SubDayRange:
			if sub.FromSec < e.ToSec && sub.ToSec > e.FromSec {
				return ErrShortOverlap
			}
		}
	}
	return nil
}
