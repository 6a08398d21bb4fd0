package ledger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"leaveledger/internal/domain/category"
)

type fakeMember struct {
	scopeID            string
	aggregateGranted   float64
	aggregateRemaining float64
}

type fakeStore struct {
	members  map[string]*fakeMember
	balances map[string]map[category.Category]CategoryBalance
	entries  map[string]Entry
	nextID   int
}

func newFakeStore(memberID string, granted map[category.Category]float64) *fakeStore {
	balances := make(map[category.Category]CategoryBalance)
	for _, cat := range category.All() {
		g := granted[cat]
		balances[cat] = CategoryBalance{Granted: g, Remaining: g}
	}
	s := &fakeStore{
		members:  map[string]*fakeMember{memberID: {scopeID: "scope-1"}},
		balances: map[string]map[category.Category]CategoryBalance{memberID: balances},
		entries:  map[string]Entry{},
	}
	ag, ar := Aggregate(balances)
	s.members[memberID].aggregateGranted = ag
	s.members[memberID].aggregateRemaining = ar
	return s
}

func (s *fakeStore) clone() *fakeStore {
	out := &fakeStore{
		members:  map[string]*fakeMember{},
		balances: map[string]map[category.Category]CategoryBalance{},
		entries:  map[string]Entry{},
		nextID:   s.nextID,
	}
	for id, m := range s.members {
		copied := *m
		out.members[id] = &copied
	}
	for id, perCat := range s.balances {
		inner := map[category.Category]CategoryBalance{}
		for cat, b := range perCat {
			inner[cat] = b
		}
		out.balances[id] = inner
	}
	for id, e := range s.entries {
		if e.Detail != nil {
			detail := *e.Detail
			e.Detail = &detail
		}
		out.entries[id] = e
	}
	return out
}

// WithTx runs fn against a copy and commits it only on success, matching the
// all-or-nothing semantics of the real store.
func (s *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	staged := s.clone()
	if err := fn(&fakeTx{s: staged}); err != nil {
		return err
	}
	*s = *staged
	return nil
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) LockMember(ctx context.Context, memberID string) error {
	if _, ok := t.s.members[memberID]; !ok {
		return ErrMemberNotFound
	}
	return nil
}

func (t *fakeTx) MemberScope(ctx context.Context, memberID string) (string, error) {
	m, ok := t.s.members[memberID]
	if !ok {
		return "", ErrMemberNotFound
	}
	return m.scopeID, nil
}

func (t *fakeTx) Balances(ctx context.Context, memberID string) (map[category.Category]CategoryBalance, error) {
	out := map[category.Category]CategoryBalance{}
	for cat, b := range t.s.balances[memberID] {
		out[cat] = b
	}
	return out, nil
}

func (t *fakeTx) EntriesForDays(ctx context.Context, memberID string, days []time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range t.s.entries {
		if e.MemberID != memberID {
			continue
		}
		for _, day := range days {
			if e.Day.Equal(day) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

func (t *fakeTx) EntriesBetween(ctx context.Context, memberID string, from, to time.Time) ([]Entry, error) {
	var out []Entry
	for _, e := range t.s.entries {
		if e.MemberID != memberID || e.Day.Before(from) {
			continue
		}
		if !to.IsZero() && e.Day.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *fakeTx) InsertEntry(ctx context.Context, e Entry) (string, error) {
	t.s.nextID++
	e.ID = fmt.Sprintf("entry-%d", t.s.nextID)
	e.CreatedAt = time.Now()
	t.s.entries[e.ID] = e
	return e.ID, nil
}

func (t *fakeTx) InsertDetail(ctx context.Context, entryID string, d Detail) error {
	e, ok := t.s.entries[entryID]
	if !ok {
		return ErrEntryNotFound
	}
	e.Detail = &d
	t.s.entries[entryID] = e
	return nil
}

func (t *fakeTx) EntryByID(ctx context.Context, entryID string) (Entry, error) {
	e, ok := t.s.entries[entryID]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (t *fakeTx) DeleteDetail(ctx context.Context, entryID string) error {
	if e, ok := t.s.entries[entryID]; ok {
		e.Detail = nil
		t.s.entries[entryID] = e
	}
	return nil
}

func (t *fakeTx) DeleteEntry(ctx context.Context, entryID string) error {
	if _, ok := t.s.entries[entryID]; !ok {
		return ErrEntryNotFound
	}
	delete(t.s.entries, entryID)
	return nil
}

func (t *fakeTx) CountEntries(ctx context.Context, memberID string) (map[category.Category]int, error) {
	counts := map[category.Category]int{}
	for _, e := range t.s.entries {
		if e.MemberID == memberID {
			counts[e.Category]++
		}
	}
	return counts, nil
}

func (t *fakeTx) UpdateBalance(ctx context.Context, memberID string, cat category.Category, b CategoryBalance) error {
	t.s.balances[memberID][cat] = b
	return nil
}

func (t *fakeTx) UpdateAggregates(ctx context.Context, memberID string, granted, remaining float64) error {
	m, ok := t.s.members[memberID]
	if !ok {
		return ErrMemberNotFound
	}
	m.aggregateGranted = granted
	m.aggregateRemaining = remaining
	return nil
}

type allowGate struct{}

func (allowGate) CanAccess(ctx context.Context, actor Actor, memberID string) (bool, error) {
	return true, nil
}

type denyGate struct{}

func (denyGate) CanAccess(ctx context.Context, actor Actor, memberID string) (bool, error) {
	return false, nil
}

var testActor = Actor{ID: "actor-1", Role: "admin"}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(store *fakeStore) *Service {
	return NewService(store, allowGate{}, nil)
}

func TestCreateLeaveRangeConsumesUnits(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5})
	svc := newTestService(store)

	before := store.members["m1"].aggregateRemaining

	ids, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 1, 10), To: day(2024, 1, 12)}, SubOption{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(ids))
	}
	if got := store.balances["m1"][category.Casual].Remaining; got != 2 {
		t.Fatalf("expected remaining 2, got %v", got)
	}
	if drop := before - store.members["m1"].aggregateRemaining; drop != 3.0 {
		t.Fatalf("expected aggregate drop 3.0, got %v", drop)
	}
}

func TestCreateLeaveRejectionIsNoOp(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5, category.Short: 3})
	svc := newTestService(store)

	if _, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 1, 10)}, SubOption{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snapshot := store.clone()

	_, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Short,
		DateSpec{From: day(2024, 1, 10)}, SubOption{FromSec: 32400, ToSec: 39600})
	if !errors.Is(err, ErrFullDayExists) {
		t.Fatalf("expected ErrFullDayExists, got %v", err)
	}

	if !reflect.DeepEqual(snapshot.balances, store.balances) {
		t.Fatal("balances mutated by a rejected create")
	}
	if len(store.entries) != len(snapshot.entries) {
		t.Fatal("entries mutated by a rejected create")
	}
}

func TestCreateLeaveRangeAbortsOnAnyConflict(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5, category.Medical: 5})
	svc := newTestService(store)

	if _, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Medical,
		DateSpec{From: day(2024, 3, 6)}, SubOption{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 3-day range whose middle day is occupied: nothing may be written.
	_, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 3, 5), To: day(2024, 3, 7)}, SubOption{})
	if !errors.Is(err, ErrFullDayExists) {
		t.Fatalf("expected ErrFullDayExists, got %v", err)
	}
	if got := store.balances["m1"][category.Casual].Remaining; got != 5 {
		t.Fatalf("expected casual remaining 5, got %v", got)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(store.entries))
	}
}

func TestCreateLeaveHalfDaySlots(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.HalfDay: 4})
	svc := newTestService(store)
	ctx := context.Background()
	date := DateSpec{From: day(2024, 2, 1)}

	if _, err := svc.CreateLeave(ctx, testActor, "m1", category.HalfDay, date, SubOption{Slot: SlotBeforeNoon}); err != nil {
		t.Fatalf("before_noon: unexpected error: %v", err)
	}
	if _, err := svc.CreateLeave(ctx, testActor, "m1", category.HalfDay, date, SubOption{Slot: SlotAfterNoon}); err != nil {
		t.Fatalf("after_noon: unexpected error: %v", err)
	}
	_, err := svc.CreateLeave(ctx, testActor, "m1", category.HalfDay, date, SubOption{Slot: SlotBeforeNoon})
	if !errors.Is(err, ErrDuplicateHalfDay) {
		t.Fatalf("expected ErrDuplicateHalfDay, got %v", err)
	}
	if got := store.balances["m1"][category.HalfDay].Remaining; got != 2 {
		t.Fatalf("expected remaining 2, got %v", got)
	}
}

func TestCreateLeaveShortOverlapRejected(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Short: 3})
	svc := newTestService(store)
	ctx := context.Background()
	date := DateSpec{From: day(2024, 2, 5)}

	if _, err := svc.CreateLeave(ctx, testActor, "m1", category.Short, date,
		SubOption{FromSec: 28800, ToSec: 36000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.CreateLeave(ctx, testActor, "m1", category.Short, date,
		SubOption{FromSec: 34200, ToSec: 39600})
	if !errors.Is(err, ErrShortOverlap) {
		t.Fatalf("expected ErrShortOverlap, got %v", err)
	}
	// Short consumes 1 unit per request regardless of duration.
	if got := store.balances["m1"][category.Short].Remaining; got != 2 {
		t.Fatalf("expected remaining 2, got %v", got)
	}
}

func TestCreateLeaveInsufficientBalance(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 2})
	svc := newTestService(store)

	_, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 4, 1), To: day(2024, 4, 3)}, SubOption{})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatal("rejected create must not write entries")
	}
}

func TestCreateLeaveInvalidDateRanges(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5, category.HalfDay: 5})
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.CreateLeave(ctx, testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 4, 3), To: day(2024, 4, 1)}, SubOption{})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for inverted range, got %v", err)
	}

	_, err = svc.CreateLeave(ctx, testActor, "m1", category.HalfDay,
		DateSpec{From: day(2024, 4, 1), To: day(2024, 4, 2)}, SubOption{Slot: SlotBeforeNoon})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange for half-day range, got %v", err)
	}
}

func TestCreateLeaveAcademicOutsideAggregate(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Academic: 4, category.Casual: 2})
	svc := newTestService(store)

	before := store.members["m1"].aggregateRemaining
	if _, err := svc.CreateLeave(context.Background(), testActor, "m1", category.Academic,
		DateSpec{From: day(2024, 5, 6)}, SubOption{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.balances["m1"][category.Academic].Remaining; got != 3 {
		t.Fatalf("expected academic remaining 3, got %v", got)
	}
	if store.members["m1"].aggregateRemaining != before {
		t.Fatal("academic leave must not move the aggregate")
	}
}

func TestCreateLeaveAdjustmentCredit(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 1})
	svc := newTestService(store)

	ids, err := svc.CreateLeave(context.Background(), testActor, "m1", category.GrantedAdjustment,
		DateSpec{}, SubOption{Amount: 2.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatal("adjustment credit must not create entries")
	}
	b := store.balances["m1"][category.GrantedAdjustment]
	if b.Granted != 2.5 || b.Remaining != 2.5 {
		t.Fatalf("expected credit 2.5/2.5, got %+v", b)
	}
	if got := store.members["m1"].aggregateRemaining; got != 3.5 {
		t.Fatalf("expected aggregate remaining 3.5, got %v", got)
	}

	if _, err := svc.CreateLeave(context.Background(), testActor, "m1", category.GrantedAdjustment,
		DateSpec{}, SubOption{}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestDeleteLeaveRecountsFromGroundTruth(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5, category.Medical: 3})
	svc := newTestService(store)
	ctx := context.Background()

	ids, err := svc.CreateLeave(ctx, testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 6, 3), To: day(2024, 6, 4)}, SubOption{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.CreateLeave(ctx, testActor, "m1", category.Medical,
		DateSpec{From: day(2024, 6, 10)}, SubOption{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Inject drift: the delete path must heal it, not compound it.
	store.balances["m1"][category.Casual] = CategoryBalance{Granted: 5, Remaining: 1}

	if err := svc.DeleteLeave(ctx, testActor, ids[0]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.balances["m1"][category.Casual].Remaining; got != 4 {
		t.Fatalf("expected healed casual remaining 4, got %v", got)
	}
	if got := store.balances["m1"][category.Medical].Remaining; got != 2 {
		t.Fatalf("medical remaining must stay 2, got %v", got)
	}
	if got := store.members["m1"].aggregateRemaining; got != 6.0 {
		t.Fatalf("expected aggregate remaining 6.0, got %v", got)
	}
}

func TestDeleteLeaveUnknownEntry(t *testing.T) {
	store := newFakeStore("m1", nil)
	svc := newTestService(store)

	err := svc.DeleteLeave(context.Background(), testActor, "missing")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestAdjustGrantedBalances(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Medical: 1})
	svc := newTestService(store)

	err := svc.AdjustGrantedBalances(context.Background(), testActor, "m1",
		map[category.Category]float64{category.Medical: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := store.balances["m1"][category.Medical]
	if b.Granted != 3 || b.Remaining != 3 {
		t.Fatalf("expected 3/3, got %+v", b)
	}
	if got := store.members["m1"].aggregateRemaining; got != 3.0 {
		t.Fatalf("expected aggregate remaining 3.0, got %v", got)
	}
}

func TestAdjustGrantedBalancesRejectsNegativeRemaining(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 3})
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.CreateLeave(ctx, testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 7, 1), To: day(2024, 7, 2)}, SubOption{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Remaining is 1; lowering granted to 1 would leave remaining at -1.
	err := svc.AdjustGrantedBalances(ctx, testActor, "m1",
		map[category.Category]float64{category.Casual: 1})
	if !errors.Is(err, ErrNegativeRemaining) {
		t.Fatalf("expected ErrNegativeRemaining, got %v", err)
	}
	b := store.balances["m1"][category.Casual]
	if b.Granted != 3 || b.Remaining != 1 {
		t.Fatalf("rejected adjust must not mutate, got %+v", b)
	}
}

func TestBalanceSnapshotProjection(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{
		category.Casual:   4,
		category.HalfDay:  2,
		category.Academic: 6,
	})
	svc := newTestService(store)

	snap, err := svc.BalanceSnapshot(context.Background(), testActor, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.MemberID != "m1" {
		t.Fatalf("unexpected member id %q", snap.MemberID)
	}
	if snap.AggregateRemaining != 5.0 {
		t.Fatalf("expected aggregate remaining 5.0, got %v", snap.AggregateRemaining)
	}
	if got := snap.PerCategory[category.Academic].Remaining; got != 6 {
		t.Fatalf("expected academic remaining 6, got %v", got)
	}
}

func TestOperationsRequireAccess(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5})
	svc := NewService(store, denyGate{}, nil)
	ctx := context.Background()

	if _, err := svc.CreateLeave(ctx, testActor, "m1", category.Casual,
		DateSpec{From: day(2024, 8, 1)}, SubOption{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.AdjustGrantedBalances(ctx, testActor, "m1",
		map[category.Category]float64{category.Casual: 6}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.BalanceSnapshot(ctx, testActor, "m1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateLeaveUnknownMember(t *testing.T) {
	store := newFakeStore("m1", map[category.Category]float64{category.Casual: 5})
	svc := newTestService(store)

	_, err := svc.CreateLeave(context.Background(), testActor, "ghost", category.Casual,
		DateSpec{From: day(2024, 8, 1)}, SubOption{})
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}
