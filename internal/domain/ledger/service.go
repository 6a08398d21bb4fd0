package ledger

import (
	"context"
	"log/slog"
	"time"

	"leaveledger/internal/domain/category"
)

// Service is the ledger transaction manager. Each operation runs as one
// storage transaction: load, validate, write, recount, commit or roll back.
type Service struct {
	Store Store
	Gate  AccessGate
	Audit AuditSink
}

func NewService(store Store, gate AccessGate, audit AuditSink) *Service {
	return &Service{Store: store, Gate: gate, Audit: audit}
}

// CreateLeave books leave for a member. Date ranges are only valid for
// full-day categories; the whole operation aborts with zero writes on the
// first rejected date. The adjustment pseudo-category credits the member's
// granted and remaining counters instead of writing entries.
func (s *Service) CreateLeave(ctx context.Context, actor Actor, memberID string, cat category.Category, spec DateSpec, sub SubOption) ([]string, error) {
	if err := s.authorize(ctx, actor, memberID); err != nil {
		return nil, err
	}

	if cat == category.GrantedAdjustment {
		if sub.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		err := s.Store.WithTx(ctx, func(tx Tx) error {
			if err := tx.LockMember(ctx, memberID); err != nil {
				return err
			}
			balances, err := tx.Balances(ctx, memberID)
			if err != nil {
				return err
			}
			b := balances[cat]
			b.Granted += sub.Amount
			b.Remaining += sub.Amount
			balances[cat] = b
			if err := tx.UpdateBalance(ctx, memberID, cat, b); err != nil {
				return err
			}
			return reproject(ctx, tx, memberID, balances)
		})
		if err != nil {
			return nil, err
		}
		s.record(ctx, actor, "leave.adjustment.credit", "member", memberID, map[string]any{
			"category": cat,
			"amount":   sub.Amount,
		})
		return nil, nil
	}

	days, err := ExpandDates(cat, spec)
	if err != nil {
		return nil, err
	}

	var entryIDs []string
	err = s.Store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockMember(ctx, memberID); err != nil {
			return err
		}
		balances, err := tx.Balances(ctx, memberID)
		if err != nil {
			return err
		}

		existing, err := tx.EntriesForDays(ctx, memberID, days)
		if err != nil {
			return err
		}
		byDay := groupByDay(existing)
		for _, day := range days {
			if err := ValidateDay(cat, sub, byDay[day]); err != nil {
				return err
			}
		}

		// One unit per date regardless of a short window's duration.
		units := float64(len(days))
		if balances[cat].Remaining < units {
			return ErrInsufficientBalance
		}

		scopeID, err := tx.MemberScope(ctx, memberID)
		if err != nil {
			return err
		}
		for _, day := range days {
			id, err := tx.InsertEntry(ctx, Entry{
				MemberID:  memberID,
				Category:  cat,
				Day:       day,
				ScopeID:   scopeID,
				CreatedBy: actor.ID,
			})
			if err != nil {
				return err
			}
			if detail, ok := detailFor(cat, sub); ok {
				if err := tx.InsertDetail(ctx, id, detail); err != nil {
					return err
				}
			}
			entryIDs = append(entryIDs, id)
		}

		return recount(ctx, tx, memberID, balances)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, actor, "leave.create", "member", memberID, map[string]any{
		"category": cat,
		"entryIds": entryIDs,
		"days":     len(days),
	})
	return entryIDs, nil
}

// DeleteLeave removes one entry and rebuilds every category's remaining
// counter from ground truth, healing any prior drift instead of compounding
// it.
func (s *Service) DeleteLeave(ctx context.Context, actor Actor, entryID string) error {
	var memberID string
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		entry, err := tx.EntryByID(ctx, entryID)
		if err != nil {
			return err
		}
		memberID = entry.MemberID
		if err := s.authorize(ctx, actor, memberID); err != nil {
			return err
		}
		if err := tx.LockMember(ctx, memberID); err != nil {
			return err
		}
		if err := tx.DeleteDetail(ctx, entryID); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, entryID); err != nil {
			return err
		}
		balances, err := tx.Balances(ctx, memberID)
		if err != nil {
			return err
		}
		return recount(ctx, tx, memberID, balances)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, "leave.delete", "leave_entry", entryID, map[string]any{
		"memberId": memberID,
	})
	return nil
}

// AdjustGrantedBalances sets new granted values per supplied category and
// shifts remaining by the same delta. An adjustment that would drive any
// remaining counter negative is rejected outright.
func (s *Service) AdjustGrantedBalances(ctx context.Context, actor Actor, memberID string, granted map[category.Category]float64) error {
	if err := s.authorize(ctx, actor, memberID); err != nil {
		return err
	}

	err := s.Store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockMember(ctx, memberID); err != nil {
			return err
		}
		balances, err := tx.Balances(ctx, memberID)
		if err != nil {
			return err
		}
		for _, cat := range category.All() {
			newGranted, ok := granted[cat]
			if !ok {
				continue
			}
			if newGranted < 0 {
				return ErrInvalidAmount
			}
			b := balances[cat]
			b.Remaining += newGranted - b.Granted
			if b.Remaining < 0 {
				return ErrNegativeRemaining
			}
			b.Granted = newGranted
			balances[cat] = b
			if err := tx.UpdateBalance(ctx, memberID, cat, b); err != nil {
				return err
			}
		}
		return reproject(ctx, tx, memberID, balances)
	})
	if err != nil {
		return err
	}

	s.record(ctx, actor, "leave.balance.adjust", "member", memberID, granted)
	return nil
}

// BalanceSnapshot returns per-category counters plus projected aggregates.
func (s *Service) BalanceSnapshot(ctx context.Context, actor Actor, memberID string) (BalanceSnapshot, error) {
	if err := s.authorize(ctx, actor, memberID); err != nil {
		return BalanceSnapshot{}, err
	}

	var snapshot BalanceSnapshot
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockMember(ctx, memberID); err != nil {
			return err
		}
		balances, err := tx.Balances(ctx, memberID)
		if err != nil {
			return err
		}
		granted, remaining := Aggregate(balances)
		snapshot = BalanceSnapshot{
			MemberID:           memberID,
			PerCategory:        balances,
			AggregateGranted:   granted,
			AggregateRemaining: remaining,
		}
		return nil
	})
	if err != nil {
		return BalanceSnapshot{}, err
	}
	return snapshot, nil
}

// ListEntries returns the member's entries with details for an inclusive
// date window.
func (s *Service) ListEntries(ctx context.Context, actor Actor, memberID string, from, to time.Time) ([]Entry, error) {
	if err := s.authorize(ctx, actor, memberID); err != nil {
		return nil, err
	}
	if !to.IsZero() && DayKey(to).Before(DayKey(from)) {
		return nil, ErrInvalidDateRange
	}

	var entries []Entry
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		var err error
		entries, err = tx.EntriesBetween(ctx, memberID, DayKey(from), DayKey(to))
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) authorize(ctx context.Context, actor Actor, memberID string) error {
	if s.Gate == nil {
		return nil
	}
	allowed, err := s.Gate.CanAccess(ctx, actor, memberID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor Actor, action, entityType, entityID string, details any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actor.ID, action, entityType, entityID, details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

// recount rebuilds remaining = granted − count(entries) for every category
// and refreshes the aggregates, all inside the caller's transaction.
func recount(ctx context.Context, tx Tx, memberID string, balances map[category.Category]CategoryBalance) error {
	counts, err := tx.CountEntries(ctx, memberID)
	if err != nil {
		return err
	}
	for _, cat := range category.All() {
		b := balances[cat]
		want := b.Granted - float64(counts[cat])
		if b.Remaining == want {
			continue
		}
		b.Remaining = want
		balances[cat] = b
		if err := tx.UpdateBalance(ctx, memberID, cat, b); err != nil {
			return err
		}
	}
	return reproject(ctx, tx, memberID, balances)
}

func reproject(ctx context.Context, tx Tx, memberID string, balances map[category.Category]CategoryBalance) error {
	granted, remaining := Aggregate(balances)
	return tx.UpdateAggregates(ctx, memberID, granted, remaining)
}

func detailFor(cat category.Category, sub SubOption) (Detail, bool) {
	switch cat.Granularity() {
	case category.HalfDayPart:
		return Detail{Slot: sub.Slot}, true
	case category.SubDayRange:
		return Detail{FromSec: sub.FromSec, ToSec: sub.ToSec}, true
	}
	return Detail{}, false
}

func groupByDay(entries []Entry) map[time.Time][]DayEntry {
	out := make(map[time.Time][]DayEntry, len(entries))
	for _, e := range entries {
		flat := DayEntry{Category: e.Category}
		if e.Detail != nil {
			flat.Slot = e.Detail.Slot
			flat.FromSec = e.Detail.FromSec
			flat.ToSec = e.Detail.ToSec
		}
		day := DayKey(e.Day)
		out[day] = append(out[day], flat)
	}
	return out
}
