package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FreeDayCategory marks a zero-spend placeholder day. Transactions carrying it
// are excluded from every monetary sum.
const FreeDayCategory = "бесплатный день"

// Transaction is one recorded expense. It is immutable once created: the ID is
// always derivable from the timestamp and never assigned independently.
type Transaction struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Category  string    `json:"category"`
	Date      time.Time `json:"date"`
	Timestamp float64   `json:"timestamp"`
}

var (
	ErrEmptyAmount   = errors.New("empty amount")
	ErrEmptyCategory = errors.New("empty category")
)

// New creates a transaction at the current wall-clock instant.
//
// The timestamp is fractional seconds since the epoch plus a sub-second offset
// derived from a fresh UUID, rounded to tenths of a second, the canonical
// precision for the numeric timestamp field. Tenths leave only ten slots per
// wall-clock second, so the process additionally remembers the last issued
// timestamp and bumps past it on collision; timestamps are strictly
// increasing within a process no matter how fast entries arrive.
func New(amount, category string) Transaction {
	return newAt(time.Now(), amount, category)
}

var (
	issueMu    sync.Mutex
	lastIssued float64
)

func newAt(now time.Time, amount, category string) Transaction {
	base := float64(now.UnixNano()) / 1e9
	ts := roundTenths(base + uniqueOffset())

	issueMu.Lock()
	if ts <= lastIssued {
		ts = roundTenths(lastIssued + 0.1)
	}
	lastIssued = ts
	issueMu.Unlock()

	instant := instantOf(ts)
	return Transaction{
		ID:        instant.UTC().Format(time.RFC3339),
		Amount:    amount,
		Category:  category,
		Date:      instant,
		Timestamp: ts,
	}
}

// FromInstant builds a transaction from a parsed wire-format instant. The
// numeric timestamp carries whole seconds only, matching the precision of the
// serialized form.
func FromInstant(instant time.Time, amount, category string) Transaction {
	return Transaction{
		ID:        instant.UTC().Format(time.RFC3339),
		Amount:    amount,
		Category:  category,
		Date:      instant,
		Timestamp: float64(secondKeyOf(float64(instant.UnixNano()) / 1e9)),
	}
}

// SecondKey returns the timestamp rounded to whole seconds. Two transactions
// are the same transaction iff their second keys are equal; every dedup and
// merge decision goes through this accessor.
func (t Transaction) SecondKey() int64 {
	return secondKeyOf(t.Timestamp)
}

// DisplayTimestamp returns the timestamp at its canonical tenths-of-a-second
// precision.
func (t Transaction) DisplayTimestamp() float64 {
	return roundTenths(t.Timestamp)
}

// Instant returns the wall-clock moment the second key denotes, in UTC.
func (t Transaction) Instant() time.Time {
	return time.Unix(t.SecondKey(), 0).UTC()
}

// IsFreeDay reports whether the transaction is the zero-spend placeholder.
func (t Transaction) IsFreeDay() bool {
	return t.Category == FreeDayCategory
}

// AmountValue parses the amount for arithmetic. The amount is kept as a
// string end-to-end; an unparseable value sums as zero.
func (t Transaction) AmountValue() float64 {
	s := strings.TrimSpace(t.Amount)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// Validate checks the fields the caller is responsible for. Amount and
// category are opaque strings and only required to be non-empty.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Amount) == "" {
		return ErrEmptyAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// uniqueOffset maps a fixed-length hex prefix of a fresh UUID onto [0,1).
func uniqueOffset() float64 {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	v, err := strconv.ParseUint(id[:12], 16, 64)
	if err != nil {
		// Unreachable for a well-formed UUID; fall back to no offset.
		return 0
	}
	return float64(v%1_000_000_000_000) / 1e12
}

func roundTenths(ts float64) float64 {
	return math.Round(ts*10) / 10
}

func secondKeyOf(ts float64) int64 {
	return int64(math.Round(ts))
}

func instantOf(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
