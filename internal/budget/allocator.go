package budget

import (
	"context"
	"log/slog"
	"math"
	"time"

	"dailymoney/internal/core"
)

// resetHour is the local-time boundary at which a new daily allowance becomes
// due. A snapshot computed between midnight and this hour is considered stale
// once the hour has passed.
const resetHour = 6

// quantum is the rounding step for the daily allowance. The raw division is
// floored down to the nearest multiple so the displayed number stays stable
// and round instead of a jittery fraction.
const quantum = 500

// Snapshot is the cached daily allowance. It is overwritten on every
// recalculation and invalidated only by failing its own freshness check.
type Snapshot struct {
	Amount        float64
	ComputedAt    time.Time
	MonthlyAmount float64
}

// SnapshotStore persists the single budget snapshot between runs.
type SnapshotStore interface {
	Snapshot(ctx context.Context) (Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Allocator derives the daily spending allowance from the monthly budget and
// the spend history, recalculating only at day boundaries.
type Allocator struct {
	snapshots SnapshotStore
}

func NewAllocator(snapshots SnapshotStore) *Allocator {
	return &Allocator{snapshots: snapshots}
}

// DailyAllowance returns today's allowance for the given monthly budget.
//
// The cached snapshot is reused unless it predates today, was computed before
// today's reset hour while now is past it, or was computed for a different
// monthly amount. A non-positive cached amount is reported as zero.
func (a *Allocator) DailyAllowance(ctx context.Context, monthlyBudget float64, transactions []core.Transaction, now time.Time) float64 {
	snap, ok, err := a.snapshots.Snapshot(ctx)
	if err != nil {
		// A broken snapshot read degrades to a recalculation.
		slog.WarnContext(ctx, "Failed to load budget snapshot", "error", err)
		ok = false
	}

	if ok && !needsRecalc(snap, monthlyBudget, now) {
		if snap.Amount > 0 {
			return snap.Amount
		}
		return 0
	}

	remaining := monthlyBudget - MonthSpent(transactions, now)
	days := daysRemaining(now)
	allowance := math.Floor(remaining/float64(days)/quantum) * quantum

	if err := a.snapshots.SaveSnapshot(ctx, Snapshot{
		Amount:        allowance,
		ComputedAt:    now,
		MonthlyAmount: monthlyBudget,
	}); err != nil {
		slog.WarnContext(ctx, "Failed to persist budget snapshot", "error", err)
	}

	slog.DebugContext(ctx, "Recalculated daily allowance",
		"allowance", allowance,
		"remaining", remaining,
		"days_remaining", days)

	return allowance
}

func needsRecalc(snap Snapshot, monthlyBudget float64, now time.Time) bool {
	today := dayStart(now)
	snapDay := dayStart(snap.ComputedAt)

	if snapDay.Before(today) {
		return true
	}

	boundary := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, now.Location())
	if snapDay.Equal(today) && snap.ComputedAt.Before(boundary) && !now.Before(boundary) {
		return true
	}

	if math.Abs(snap.MonthlyAmount-monthlyBudget) > 0.01 {
		return true
	}

	return false
}

// daysRemaining counts today plus every calendar day through month end.
func daysRemaining(now time.Time) int {
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	days := lastDay - now.Day() + 1
	if days < 1 {
		days = 1
	}
	return days
}

// MonthSpent sums amounts of the current calendar month, excluding free-day
// placeholders.
func MonthSpent(transactions []core.Transaction, now time.Time) float64 {
	var sum float64
	for _, t := range transactions {
		if t.IsFreeDay() {
			continue
		}
		y, m, _ := t.Date.In(now.Location()).Date()
		if y == now.Year() && m == now.Month() {
			sum += t.AmountValue()
		}
	}
	return sum
}

// TodaySpent sums amounts attributed to [start of today, start of tomorrow),
// excluding free-day placeholders. It is not cached: together with the daily
// allowance it yields the live "remaining today" figure.
func TodaySpent(transactions []core.Transaction, now time.Time) float64 {
	start := dayStart(now)
	end := start.AddDate(0, 0, 1)
	var sum float64
	for _, t := range transactions {
		if t.IsFreeDay() {
			continue
		}
		d := t.Date.In(now.Location())
		if !d.Before(start) && d.Before(end) {
			sum += t.AmountValue()
		}
	}
	return sum
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
