package remote

import (
	"errors"
	"fmt"
)

// Kind is the closed set of remote failure categories. Callers branch on the
// kind, never on error strings.
type Kind int

const (
	// KindInvalidCredential is an authentication rejection (HTTP 401-equivalent).
	KindInvalidCredential Kind = iota + 1
	// KindTransport is a network failure or any unrecognized non-2xx response.
	KindTransport
	// KindDocumentNotFound means the referenced document no longer exists.
	KindDocumentNotFound
	// KindMalformedContent means a fetched document yielded no usable rows
	// where rows were expected. It is a soft case: callers treat it as "no
	// prior remote data".
	KindMalformedContent
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid credential"
	case KindTransport:
		return "transport failure"
	case KindDocumentNotFound:
		return "document not found"
	case KindMalformedContent:
		return "malformed content"
	default:
		return "unknown"
	}
}

// Error tags a remote failure with its kind and an optional underlying cause.
type Error struct {
	Kind  Kind
	Op    string
	Cause error
}

func NewError(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

func hasKind(err error, k Kind) bool {
	var re *Error
	return errors.As(err, &re) && re.Kind == k
}

func IsInvalidCredential(err error) bool { return hasKind(err, KindInvalidCredential) }
func IsTransport(err error) bool         { return hasKind(err, KindTransport) }
func IsNotFound(err error) bool          { return hasKind(err, KindDocumentNotFound) }
func IsMalformed(err error) bool         { return hasKind(err, KindMalformedContent) }
