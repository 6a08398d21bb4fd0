package ledger

import (
	"errors"
	"testing"

	"leaveledger/internal/domain/category"
)

func TestValidateDayEmptyDate(t *testing.T) {
	if err := ValidateDay(category.Casual, SubOption{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDay(category.HalfDay, SubOption{Slot: SlotBeforeNoon}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDay(category.Short, SubOption{FromSec: 32400, ToSec: 39600}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDayFullDayBlocksEverything(t *testing.T) {
	existing := []DayEntry{{Category: category.Medical}}

	for _, tc := range []struct {
		cat category.Category
		sub SubOption
	}{
		{category.Casual, SubOption{}},
		{category.HalfDay, SubOption{Slot: SlotBeforeNoon}},
		{category.Short, SubOption{FromSec: 32400, ToSec: 39600}},
	} {
		err := ValidateDay(tc.cat, tc.sub, existing)
		if !errors.Is(err, ErrFullDayExists) {
			t.Fatalf("%s: expected ErrFullDayExists, got %v", tc.cat, err)
		}
	}
}

func TestValidateDayFullDayRequestRejectsOccupiedDate(t *testing.T) {
	existing := []DayEntry{{Category: category.HalfDay, Slot: SlotBeforeNoon}}
	err := ValidateDay(category.Earned, SubOption{}, existing)
	if !errors.Is(err, ErrDayOccupied) {
		t.Fatalf("expected ErrDayOccupied, got %v", err)
	}

	existing = []DayEntry{{Category: category.Short, FromSec: 32400, ToSec: 39600}}
	err = ValidateDay(category.Casual, SubOption{}, existing)
	if !errors.Is(err, ErrDayOccupied) {
		t.Fatalf("expected ErrDayOccupied, got %v", err)
	}
}

func TestValidateDayHalfDaySlots(t *testing.T) {
	existing := []DayEntry{{Category: category.HalfDay, Slot: SlotBeforeNoon}}

	if err := ValidateDay(category.HalfDay, SubOption{Slot: SlotAfterNoon}, existing); err != nil {
		t.Fatalf("different slot should be accepted, got %v", err)
	}

	err := ValidateDay(category.HalfDay, SubOption{Slot: SlotBeforeNoon}, existing)
	if !errors.Is(err, ErrDuplicateHalfDay) {
		t.Fatalf("expected ErrDuplicateHalfDay, got %v", err)
	}

	err = ValidateDay(category.HalfDay, SubOption{Slot: "noonish"}, existing)
	if !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestValidateDayHalfDayAgainstShort(t *testing.T) {
	// Short window ends before the 12:30 boundary.
	morning := []DayEntry{{Category: category.Short, FromSec: 32400, ToSec: 39600}}
	if err := ValidateDay(category.HalfDay, SubOption{Slot: SlotBeforeNoon}, morning); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidateDay(category.HalfDay, SubOption{Slot: SlotAfterNoon}, morning)
	if !errors.Is(err, ErrNoonBoundary) {
		t.Fatalf("expected ErrNoonBoundary, got %v", err)
	}

	// Window crossing the boundary conflicts with either slot.
	crossing := []DayEntry{{Category: category.Short, FromSec: 43200, ToSec: 50400}}
	for _, slot := range []string{SlotBeforeNoon, SlotAfterNoon} {
		err := ValidateDay(category.HalfDay, SubOption{Slot: slot}, crossing)
		if !errors.Is(err, ErrNoonBoundary) {
			t.Fatalf("%s: expected ErrNoonBoundary, got %v", slot, err)
		}
	}
}

func TestValidateDayShortTimeRange(t *testing.T) {
	for _, tc := range []struct {
		from, to int
	}{
		{39600, 32400},
		{32400, 32400},
		{-1, 3600},
		{80000, 90000},
	} {
		err := ValidateDay(category.Short, SubOption{FromSec: tc.from, ToSec: tc.to}, nil)
		if !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("[%d,%d): expected ErrInvalidTime, got %v", tc.from, tc.to, err)
		}
	}
}

func TestValidateDayShortAgainstHalfDay(t *testing.T) {
	beforeNoon := []DayEntry{{Category: category.HalfDay, Slot: SlotBeforeNoon}}
	if err := ValidateDay(category.Short, SubOption{FromSec: 32400, ToSec: 39600}, beforeNoon); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidateDay(category.Short, SubOption{FromSec: 43200, ToSec: 50400}, beforeNoon)
	if !errors.Is(err, ErrNoonBoundary) {
		t.Fatalf("expected ErrNoonBoundary, got %v", err)
	}

	afterNoon := []DayEntry{{Category: category.HalfDay, Slot: SlotAfterNoon}}
	if err := ValidateDay(category.Short, SubOption{FromSec: 46800, ToSec: 54000}, afterNoon); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = ValidateDay(category.Short, SubOption{FromSec: 32400, ToSec: 39600}, afterNoon)
	if !errors.Is(err, ErrNoonBoundary) {
		t.Fatalf("expected ErrNoonBoundary, got %v", err)
	}
}

func TestValidateDayShortIntervals(t *testing.T) {
	existing := []DayEntry{{Category: category.Short, FromSec: 28800, ToSec: 36000}} // 08:00-10:00

	// 09:30-11:00 intersects.
	err := ValidateDay(category.Short, SubOption{FromSec: 34200, ToSec: 39600}, existing)
	if !errors.Is(err, ErrShortOverlap) {
		t.Fatalf("expected ErrShortOverlap, got %v", err)
	}

	// Touching boundaries are half-open and do not intersect.
	if err := ValidateDay(category.Short, SubOption{FromSec: 36000, ToSec: 39600}, existing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDayAdjustmentBypassesChecks(t *testing.T) {
	existing := []DayEntry{{Category: category.Medical}}
	if err := ValidateDay(category.GrantedAdjustment, SubOption{Amount: 2}, existing); err != nil {
		t.Fatalf("adjustment must bypass overlap checks, got %v", err)
	}
}
