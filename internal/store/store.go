// Package store holds the app's persisted state behind a flat key/value
// contract: the transaction list, the monthly budget, the sync marker, the
// cached budget snapshot and the remote credentials.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"dailymoney/internal/budget"
	"dailymoney/internal/core"
)

// KV is the opaque-string storage port implemented by the memory and sqlite
// backends.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// DefaultMonthlyAmount applies when no monthly budget has ever been saved.
const DefaultMonthlyAmount = 120000

const (
	keyTransactions    = "daily_money_transactions"
	keyMonthlyAmount   = "monthly_amount"
	keyLastSync        = "last_sync_timestamp"
	keySnapshotAmount  = "daily_budget"
	keySnapshotDate    = "daily_budget_date"
	keySnapshotMonthly = "last_monthly_amount_for_budget"
	keyToken           = "github_token"
	keyDocumentID      = "github_gist_id"
)

// Store exposes the named keys with their types and defaults.
type Store struct {
	kv KV
}

// Ensure interface conformance
var _ budget.SnapshotStore = (*Store)(nil)

func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Transactions loads the working set. Corrupt persisted JSON is recovered as
// an empty list rather than surfaced.
func (s *Store) Transactions(ctx context.Context) ([]core.Transaction, error) {
	raw, ok, err := s.kv.Get(ctx, keyTransactions)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var transactions []core.Transaction
	if err := json.Unmarshal([]byte(raw), &transactions); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt transaction log", "error", err)
		return nil, nil
	}
	return transactions, nil
}

func (s *Store) SaveTransactions(ctx context.Context, transactions []core.Transaction) error {
	if transactions == nil {
		transactions = []core.Transaction{}
	}
	raw, err := json.Marshal(transactions)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	return s.kv.Set(ctx, keyTransactions, string(raw))
}

func (s *Store) MonthlyAmount(ctx context.Context) (float64, error) {
	return s.getFloat(ctx, keyMonthlyAmount, DefaultMonthlyAmount)
}

func (s *Store) SetMonthlyAmount(ctx context.Context, amount float64) error {
	return s.kv.Set(ctx, keyMonthlyAmount, strconv.FormatFloat(amount, 'f', -1, 64))
}

// LastSync is the timestamp of the newest transaction known to be mirrored
// remotely, 0 before the first successful sync.
func (s *Store) LastSync(ctx context.Context) (float64, error) {
	return s.getFloat(ctx, keyLastSync, 0)
}

func (s *Store) SetLastSync(ctx context.Context, timestamp float64) error {
	return s.kv.Set(ctx, keyLastSync, strconv.FormatFloat(timestamp, 'f', -1, 64))
}

// Snapshot implements budget.SnapshotStore over the three snapshot keys.
func (s *Store) Snapshot(ctx context.Context) (budget.Snapshot, bool, error) {
	dateRaw, ok, err := s.kv.Get(ctx, keySnapshotDate)
	if err != nil || !ok || dateRaw == "" {
		return budget.Snapshot{}, false, err
	}
	computedAt, err := time.Parse(time.RFC3339, dateRaw)
	if err != nil {
		return budget.Snapshot{}, false, fmt.Errorf("parse snapshot date: %w", err)
	}
	amount, err := s.getFloat(ctx, keySnapshotAmount, 0)
	if err != nil {
		return budget.Snapshot{}, false, err
	}
	monthly, err := s.getFloat(ctx, keySnapshotMonthly, 0)
	if err != nil {
		return budget.Snapshot{}, false, err
	}
	return budget.Snapshot{
		Amount:        amount,
		ComputedAt:    computedAt.Local(),
		MonthlyAmount: monthly,
	}, true, nil
}

func (s *Store) SaveSnapshot(ctx context.Context, snap budget.Snapshot) error {
	if err := s.kv.Set(ctx, keySnapshotAmount, strconv.FormatFloat(snap.Amount, 'f', -1, 64)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keySnapshotDate, snap.ComputedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	return s.kv.Set(ctx, keySnapshotMonthly, strconv.FormatFloat(snap.MonthlyAmount, 'f', -1, 64))
}

func (s *Store) Token(ctx context.Context) (string, error) {
	token, _, err := s.kv.Get(ctx, keyToken)
	return token, err
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, keyToken, token)
}

func (s *Store) ClearToken(ctx context.Context) error {
	return s.kv.Delete(ctx, keyToken)
}

// DocumentID is the handle of the remote log document, empty before the
// first sync creates one.
func (s *Store) DocumentID(ctx context.Context) (string, error) {
	id, _, err := s.kv.Get(ctx, keyDocumentID)
	return id, err
}

func (s *Store) SetDocumentID(ctx context.Context, id string) error {
	return s.kv.Set(ctx, keyDocumentID, id)
}

func (s *Store) ClearDocumentID(ctx context.Context) error {
	return s.kv.Delete(ctx, keyDocumentID)
}

func (s *Store) getFloat(ctx context.Context, key string, fallback float64) (float64, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring unparseable stored number", "key", key, "value", raw)
		return fallback, nil
	}
	return v, nil
}
