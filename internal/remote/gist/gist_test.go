package gist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailymoney/internal/remote"
)

func newTestClient(srv *httptest.Server) *Client {
	c := New("test-token")
	c.baseURL = srv.URL
	c.httpClient = srv.Client()
	return c
}

func TestCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "token test-token" {
			t.Fatalf("authorization = %q", got)
		}

		var req gistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Public == nil || *req.Public {
			t.Fatal("gist must be private")
		}
		if req.Files[logFileName].Content != remote.Header {
			t.Fatalf("initial content = %q", req.Files[logFileName].Content)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "abc123"})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).Create(context.Background(), remote.Header)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("id = %q, want abc123", id)
	}
}

func TestFetch(t *testing.T) {
	content := "timestamp,amount,comment\n2026-03-22T10:00:00Z,700,\"продукты food\"\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/abc123" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "abc123",
			"files": map[string]any{
				logFileName: map[string]string{"content": content},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != content {
		t.Fatalf("content = %q, want %q", got, content)
	}
}

func TestFetchMissingLogFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "abc123",
			"files": map[string]any{
				"other.txt": map[string]string{"content": "unrelated"},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv).Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != remote.Header {
		t.Fatalf("content = %q, want bare header", got)
	}
}

func TestFetchTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "abc123",
			"files": map[string]any{
				logFileName: map[string]any{
					"content":   "timestamp,amount,comment\n",
					"truncated": true,
				},
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Fetch(context.Background(), "abc123")
	if !remote.IsTransport(err) {
		t.Fatalf("expected transport error for truncated content, got %v", err)
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Fetch(context.Background(), "gone")
	if !remote.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestBadCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.Create(context.Background(), remote.Header); !remote.IsInvalidCredential(err) {
		t.Fatalf("create: expected credential error, got %v", err)
	}
	if _, err := c.Fetch(context.Background(), "abc123"); !remote.IsInvalidCredential(err) {
		t.Fatalf("fetch: expected credential error, got %v", err)
	}
	if err := c.Overwrite(context.Background(), "abc123", "x"); !remote.IsInvalidCredential(err) {
		t.Fatalf("overwrite: expected credential error, got %v", err)
	}
}

func TestOverwrite(t *testing.T) {
	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("method = %s, want PATCH", r.Method)
		}
		var req gistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotContent = req.Files[logFileName].Content
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "abc123"})
	}))
	defer srv.Close()

	content := "timestamp,amount,comment\n2026-03-22T10:00:00Z,700,\"продукты food\"\n"
	if err := newTestClient(srv).Overwrite(context.Background(), "abc123", content); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if gotContent != content {
		t.Fatalf("written content = %q, want %q", gotContent, content)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Fetch(context.Background(), "abc123")
	if !remote.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
