package remote

import "context"

// Header is the first line of every remote log document.
const Header = "timestamp,amount,comment\n"

// DocumentStore is the port for the hosted text document the transaction log
// is mirrored to. Implementations live in the gist, drive and memory
// subpackages.
type DocumentStore interface {
	// Create makes a new document seeded with initialContent and returns its id.
	Create(ctx context.Context, initialContent string) (string, error)

	// Fetch returns the full document content.
	Fetch(ctx context.Context, documentID string) (string, error)

	// Overwrite replaces the full document content, never patches.
	Overwrite(ctx context.Context, documentID, content string) error
}
