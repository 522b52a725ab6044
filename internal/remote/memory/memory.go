// Package memory is an in-process document store used for tests and for
// running the app without any remote credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"dailymoney/internal/remote"
)

type Store struct {
	mu   sync.Mutex
	docs map[string]string
	next int
}

// Ensure interface conformance
var _ remote.DocumentStore = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[string]string)}
}

func (s *Store) Create(_ context.Context, initialContent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("doc-%d", s.next)
	s.docs[id] = initialContent
	return id, nil
}

func (s *Store) Fetch(_ context.Context, documentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[documentID]
	if !ok {
		return "", remote.NewError(remote.KindDocumentNotFound, "fetch document", nil)
	}
	return content, nil
}

func (s *Store) Overwrite(_ context.Context, documentID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[documentID]; !ok {
		return remote.NewError(remote.KindDocumentNotFound, "overwrite document", nil)
	}
	s.docs[documentID] = content
	return nil
}

// Content returns the current document body, for assertions in tests.
func (s *Store) Content(documentID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[documentID]
	return content, ok
}
