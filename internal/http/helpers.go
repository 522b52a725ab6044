package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dailymoney/internal/remote"
	"dailymoney/internal/syncer"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeSyncError maps the sync failure taxonomy onto HTTP statuses. The
// client shows a message per tag; local data stays untouched either way.
func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case err == syncer.ErrSyncBusy:
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "kind": "busy"})
	case err == syncer.ErrNotConfigured:
		writeJSON(w, http.StatusPreconditionFailed, map[string]string{"error": err.Error(), "kind": "not_configured"})
	case remote.IsInvalidCredential(err):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error(), "kind": "invalid_credential"})
	case remote.IsNotFound(err):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "kind": "document_not_found"})
	case remote.IsTransport(err):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "kind": "transport"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error(), "kind": "internal"})
	}
}
