package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"dailymoney/internal/core"
)

type stubSnapshots struct {
	snap    Snapshot
	ok      bool
	loadErr error
	saveErr error
	saved   []Snapshot
}

func (s *stubSnapshots) Snapshot(context.Context) (Snapshot, bool, error) {
	return s.snap, s.ok, s.loadErr
}

func (s *stubSnapshots) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.saved = append(s.saved, snap)
	return s.saveErr
}

func tx(date time.Time, amount, category string) core.Transaction {
	return core.Transaction{
		Amount:    amount,
		Category:  category,
		Date:      date,
		Timestamp: float64(date.Unix()),
	}
}

func TestDailyAllowanceFreshMonth(t *testing.T) {
	// March 22nd, 10 days left in the month: 100000/10 = 10000 exactly.
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	snaps := &stubSnapshots{}
	a := NewAllocator(snaps)

	got := a.DailyAllowance(context.Background(), 100000, nil, now)
	if got != 10000 {
		t.Fatalf("allowance = %v, want 10000", got)
	}
	if len(snaps.saved) != 1 || snaps.saved[0].Amount != 10000 {
		t.Fatalf("expected snapshot saved with 10000, got %+v", snaps.saved)
	}
}

func TestDailyAllowanceQuantization(t *testing.T) {
	// Last day of the month, so daysRemaining = 1 and the raw division is the
	// remaining amount itself.
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.Local)
	a := NewAllocator(&stubSnapshots{})

	cases := []struct {
		monthly float64
		want    float64
	}{
		{2499, 2000},
		{2500, 2500},
		{2999, 2500},
		{-2499, -2500}, // floor moves negatives away from zero
		{0, 0},
	}
	for i, tc := range cases {
		if got := a.DailyAllowance(context.Background(), tc.monthly, nil, now); got != tc.want {
			t.Fatalf("case %d: allowance for %v = %v, want %v", i, tc.monthly, got, tc.want)
		}
	}
}

func TestDailyAllowanceReusesSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	snaps := &stubSnapshots{
		snap: Snapshot{Amount: 7500, ComputedAt: now.Add(-2 * time.Hour), MonthlyAmount: 100000},
		ok:   true,
	}
	a := NewAllocator(snaps)

	if got := a.DailyAllowance(context.Background(), 100000, nil, now); got != 7500 {
		t.Fatalf("allowance = %v, want cached 7500", got)
	}
	if len(snaps.saved) != 0 {
		t.Fatal("snapshot should not be rewritten on reuse")
	}
}

func TestDailyAllowanceNegativeCacheReadsZero(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	snaps := &stubSnapshots{
		snap: Snapshot{Amount: -500, ComputedAt: now.Add(-time.Hour), MonthlyAmount: 100000},
		ok:   true,
	}
	a := NewAllocator(snaps)

	if got := a.DailyAllowance(context.Background(), 100000, nil, now); got != 0 {
		t.Fatalf("allowance = %v, want 0 for negative cache", got)
	}
}

func TestDailyAllowanceRecalcTriggers(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	cases := []struct {
		name string
		snap Snapshot
	}{
		{"previous day", Snapshot{Amount: 9000, ComputedAt: now.AddDate(0, 0, -1), MonthlyAmount: 100000}},
		{"pre-reset snapshot", Snapshot{
			Amount:        9000,
			ComputedAt:    time.Date(2026, 3, 22, 2, 0, 0, 0, time.Local),
			MonthlyAmount: 100000,
		}},
		{"budget changed", Snapshot{Amount: 9000, ComputedAt: now.Add(-time.Hour), MonthlyAmount: 90000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snaps := &stubSnapshots{snap: tc.snap, ok: true}
			a := NewAllocator(snaps)
			if got := a.DailyAllowance(context.Background(), 100000, nil, now); got != 10000 {
				t.Fatalf("allowance = %v, want recalculated 10000", got)
			}
		})
	}
}

func TestDailyAllowancePreResetReuse(t *testing.T) {
	// Both snapshot and now are before 6AM of the same day: still fresh.
	now := time.Date(2026, 3, 22, 5, 30, 0, 0, time.Local)
	snaps := &stubSnapshots{
		snap: Snapshot{Amount: 9000, ComputedAt: now.Add(-time.Hour), MonthlyAmount: 100000},
		ok:   true,
	}
	a := NewAllocator(snaps)

	if got := a.DailyAllowance(context.Background(), 100000, nil, now); got != 9000 {
		t.Fatalf("allowance = %v, want cached 9000", got)
	}
}

func TestDailyAllowanceSnapshotErrorsDegrade(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	snaps := &stubSnapshots{
		loadErr: errors.New("boom"),
		saveErr: errors.New("boom"),
	}
	a := NewAllocator(snaps)

	if got := a.DailyAllowance(context.Background(), 100000, nil, now); got != 10000 {
		t.Fatalf("allowance = %v, want 10000 despite store failures", got)
	}
}

func TestDailyAllowanceSubtractsMonthSpend(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	transactions := []core.Transaction{
		tx(time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local), "30000", "продукты"),
		tx(time.Date(2026, 2, 28, 12, 0, 0, 0, time.Local), "99999", "продукты"), // previous month
		tx(time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local), "0", core.FreeDayCategory),
	}
	a := NewAllocator(&stubSnapshots{})

	// (100000 - 30000) / 10 days = 7000.
	if got := a.DailyAllowance(context.Background(), 100000, transactions, now); got != 7000 {
		t.Fatalf("allowance = %v, want 7000", got)
	}
}

func TestMonthSpent(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	transactions := []core.Transaction{
		tx(time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), "100", "кафе"),
		tx(time.Date(2026, 3, 31, 23, 59, 59, 0, time.Local), "200", "кафе"),
		tx(time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local), "400", "кафе"),
		tx(time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local), "0", core.FreeDayCategory),
	}
	if got := MonthSpent(transactions, now); got != 300 {
		t.Fatalf("month spent = %v, want 300", got)
	}
}

func TestTodaySpent(t *testing.T) {
	now := time.Date(2026, 3, 22, 12, 0, 0, 0, time.Local)
	transactions := []core.Transaction{
		tx(time.Date(2026, 3, 22, 0, 0, 0, 0, time.Local), "100", "кафе"),
		tx(time.Date(2026, 3, 22, 23, 59, 59, 0, time.Local), "50", "такси"),
		tx(time.Date(2026, 3, 21, 23, 59, 59, 0, time.Local), "999", "кафе"),
		tx(time.Date(2026, 3, 23, 0, 0, 0, 0, time.Local), "999", "кафе"),
	}
	if got := TodaySpent(transactions, now); got != 150 {
		t.Fatalf("today spent = %v, want 150", got)
	}
}

func TestDaysRemaining(t *testing.T) {
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local), 31},
		{time.Date(2026, 3, 31, 12, 0, 0, 0, time.Local), 1},
		{time.Date(2026, 2, 28, 12, 0, 0, 0, time.Local), 1}, // 2026 is not a leap year
		{time.Date(2024, 2, 28, 12, 0, 0, 0, time.Local), 2}, // 2024 is
	}
	for i, tc := range cases {
		if got := daysRemaining(tc.now); got != tc.want {
			t.Fatalf("case %d: days remaining at %v = %d, want %d", i, tc.now, got, tc.want)
		}
	}
}
