// Package syncer merges the local transaction log with its remote mirror.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"dailymoney/internal/core"
	"dailymoney/internal/format"
	"dailymoney/internal/remote"
	"dailymoney/internal/store"
)

var (
	// ErrNotConfigured means no remote backend is set up; reported before any
	// network activity.
	ErrNotConfigured = errors.New("remote sync is not configured")

	// ErrSyncBusy rejects a sync started while another is in flight. Syncs
	// are never queued.
	ErrSyncBusy = errors.New("a sync is already in progress")
)

// Syncer reconciles the local log against the remote document. The remote
// copy is the authoritative merge target; the local copy stays the working
// set the caller renders.
type Syncer struct {
	remote remote.DocumentStore
	store  *store.Store
	mu     sync.Mutex
}

func New(documents remote.DocumentStore, st *store.Store) *Syncer {
	return &Syncer{remote: documents, store: st}
}

// Configured reports whether a remote backend is wired in.
func (s *Syncer) Configured() bool {
	return s.remote != nil
}

// Sync merges local with the remote log and writes the merged set back to
// the remote document. The merged set is returned; persisting it locally and
// advancing the sync marker is the caller's job (see Run).
//
// A missing or stale remote document is recreated seeded with the header
// row. Any transport failure before the write-back aborts the whole
// operation without touching the remote document.
func (s *Syncer) Sync(ctx context.Context, local []core.Transaction) ([]core.Transaction, error) {
	if s.remote == nil {
		return nil, ErrNotConfigured
	}
	if !s.mu.TryLock() {
		return nil, ErrSyncBusy
	}
	defer s.mu.Unlock()

	documentID, err := s.store.DocumentID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document id: %w", err)
	}

	content := remote.Header
	if documentID != "" {
		content, err = s.remote.Fetch(ctx, documentID)
		if remote.IsNotFound(err) {
			// Stale handle: the document was deleted out from under us.
			slog.WarnContext(ctx, "Remote log document is gone, recreating", "document_id", documentID)
			if err := s.store.ClearDocumentID(ctx); err != nil {
				return nil, fmt.Errorf("clear stale document id: %w", err)
			}
			documentID = ""
		} else if err != nil {
			return nil, err
		}
	}
	if documentID == "" {
		documentID, err = s.remote.Create(ctx, remote.Header)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetDocumentID(ctx, documentID); err != nil {
			return nil, fmt.Errorf("save document id: %w", err)
		}
		content = remote.Header
	}

	remoteTransactions, err := format.ParseCSV(content)
	if remote.IsMalformed(err) {
		// A garbled remote document counts as no prior remote data.
		slog.WarnContext(ctx, "Remote log is unreadable, treating as empty")
		remoteTransactions = nil
	} else if err != nil {
		return nil, err
	}

	merged := Merge(local, remoteTransactions)

	if err := s.remote.Overwrite(ctx, documentID, format.FormatCSV(merged)); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Synchronized transaction log",
		"local", len(local),
		"remote", len(remoteTransactions),
		"merged", len(merged))

	return merged, nil
}

// Run performs a full sync cycle: merge, write back remotely, overwrite the
// local store with the merged set and advance the sync marker.
func (s *Syncer) Run(ctx context.Context) ([]core.Transaction, error) {
	local, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	merged, err := s.Sync(ctx, local)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTransactions(ctx, merged); err != nil {
		return nil, fmt.Errorf("persist merged log: %w", err)
	}
	if err := s.store.SetLastSync(ctx, MaxTimestamp(merged)); err != nil {
		return nil, fmt.Errorf("advance sync marker: %w", err)
	}
	return merged, nil
}

// Merge combines both sets keyed by second key. Remote entries win ties: a
// local transaction recorded at the same second as a remote one is discarded
// as a duplicate. The result is sorted newest first and is deterministic, so
// merging is idempotent.
func Merge(local, remoteSet []core.Transaction) []core.Transaction {
	byKey := make(map[int64]struct{}, len(local)+len(remoteSet))
	merged := make([]core.Transaction, 0, len(local)+len(remoteSet))

	for _, t := range remoteSet {
		key := t.SecondKey()
		if _, ok := byKey[key]; ok {
			continue
		}
		byKey[key] = struct{}{}
		merged = append(merged, t)
	}
	for _, t := range local {
		key := t.SecondKey()
		if _, ok := byKey[key]; ok {
			continue
		}
		byKey[key] = struct{}{}
		merged = append(merged, t)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	return merged
}

// HasUnsynchronized reports whether any transaction postdates the sync
// marker. With a zero marker, any transaction at all counts.
func HasUnsynchronized(transactions []core.Transaction, lastSync float64) bool {
	if lastSync == 0 {
		return len(transactions) > 0
	}
	for _, t := range transactions {
		if t.Timestamp > lastSync {
			return true
		}
	}
	return false
}

// MaxTimestamp returns the newest timestamp in the set, 0 for an empty set.
func MaxTimestamp(transactions []core.Transaction) float64 {
	var max float64
	for _, t := range transactions {
		if t.Timestamp > max {
			max = t.Timestamp
		}
	}
	return max
}
