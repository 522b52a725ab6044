package core

import (
	"testing"
	"time"
)

func TestNewDistinctTimestamps(t *testing.T) {
	seen := make(map[float64]bool)
	prev := 0.0
	for i := 0; i < 1000; i++ {
		tx := New("100", "продукты")
		if seen[tx.Timestamp] {
			t.Fatalf("duplicate timestamp %v after %d transactions", tx.Timestamp, i)
		}
		seen[tx.Timestamp] = true
		if tx.Timestamp <= prev {
			t.Fatalf("timestamp %v not after previous %v", tx.Timestamp, prev)
		}
		prev = tx.Timestamp
	}
}

func TestNewAtSameInstantDistinct(t *testing.T) {
	// Ten slots per second at tenths precision: a burst within one frozen
	// instant must still issue distinct, increasing, tenths-aligned
	// timestamps by bumping past the last issued one.
	now := time.Date(2026, 3, 22, 10, 0, 0, 0, time.Local)
	seen := make(map[float64]bool)
	prev := 0.0
	for i := 0; i < 100; i++ {
		tx := newAt(now, "100", "продукты")
		if seen[tx.Timestamp] {
			t.Fatalf("duplicate timestamp %v after %d transactions", tx.Timestamp, i)
		}
		seen[tx.Timestamp] = true
		if tx.Timestamp <= prev {
			t.Fatalf("timestamp %v not after previous %v", tx.Timestamp, prev)
		}
		if tx.Timestamp != tx.DisplayTimestamp() {
			t.Fatalf("timestamp %v drifted off tenths precision", tx.Timestamp)
		}
		prev = tx.Timestamp
	}
}

func TestNewTimestampPrecision(t *testing.T) {
	tx := New("100", "продукты")
	if tx.Timestamp != tx.DisplayTimestamp() {
		t.Fatalf("timestamp %v not at tenths precision", tx.Timestamp)
	}
	now := float64(time.Now().UnixNano()) / 1e9
	if diff := tx.Timestamp - now; diff < -2 || diff > 2 {
		t.Fatalf("timestamp %v too far from now %v", tx.Timestamp, now)
	}
}

func TestNewIDFormat(t *testing.T) {
	tx := New("50", "такси")
	parsed, err := time.Parse(time.RFC3339, tx.ID)
	if err != nil {
		t.Fatalf("id %q is not RFC3339: %v", tx.ID, err)
	}
	if parsed.Nanosecond() != 0 {
		t.Fatalf("id %q carries sub-second precision", tx.ID)
	}
}

func TestSecondKey(t *testing.T) {
	cases := []struct {
		ts   float64
		want int64
	}{
		{1742630400.0, 1742630400},
		{1742630400.4, 1742630400},
		{1742630400.5, 1742630401},
		{1742630400.9, 1742630401},
	}
	for i, tc := range cases {
		tx := Transaction{Timestamp: tc.ts}
		if got := tx.SecondKey(); got != tc.want {
			t.Fatalf("case %d: key for %v = %d, want %d", i, tc.ts, got, tc.want)
		}
	}
}

func TestFromInstantWholeSeconds(t *testing.T) {
	instant := time.Date(2026, 3, 22, 14, 30, 15, 0, time.UTC)
	tx := FromInstant(instant, "700", "продукты")

	if tx.Timestamp != float64(instant.Unix()) {
		t.Fatalf("timestamp = %v, want %v", tx.Timestamp, float64(instant.Unix()))
	}
	if tx.ID != "2026-03-22T14:30:15Z" {
		t.Fatalf("id = %q", tx.ID)
	}
	if got := tx.Instant(); !got.Equal(instant) {
		t.Fatalf("instant = %v, want %v", got, instant)
	}
}

func TestAmountValue(t *testing.T) {
	cases := []struct {
		amount string
		want   float64
	}{
		{"700", 700},
		{"149.90", 149.9},
		{"149,90", 149.9},
		{" 250 ", 250},
		{"-300", -300},
		{"", 0},
		{"abc", 0},
	}
	for i, tc := range cases {
		tx := Transaction{Amount: tc.amount}
		if got := tx.AmountValue(); got != tc.want {
			t.Fatalf("case %d: value of %q = %v, want %v", i, tc.amount, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := (Transaction{Amount: "100", Category: "кафе"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Transaction{Amount: " ", Category: "кафе"}).Validate(); err != ErrEmptyAmount {
		t.Fatalf("expected ErrEmptyAmount, got %v", err)
	}
	if err := (Transaction{Amount: "100", Category: ""}).Validate(); err != ErrEmptyCategory {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestIsFreeDay(t *testing.T) {
	if !(Transaction{Category: FreeDayCategory}).IsFreeDay() {
		t.Fatal("expected free day")
	}
	if (Transaction{Category: "продукты"}).IsFreeDay() {
		t.Fatal("expected regular transaction")
	}
}
