// Package gist stores the remote log as a single private GitHub gist holding
// one CSV file.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"dailymoney/internal/remote"
)

const (
	defaultBaseURL = "https://api.github.com/gists"
	logFileName    = "DailyMoneyLog.csv"
	description    = "DailyMoney Log"
)

type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string
}

// Ensure interface conformance
var _ remote.DocumentStore = (*Client)(nil)

// New creates a gist client authenticated with a personal access token.
func New(token string) *Client {
	return &Client{
		httpClient: newHTTPClient(),
		token:      token,
		baseURL:    defaultBaseURL,
	}
}

// newHTTPClient builds a pooled client with explicit timeouts so a stalled
// request surfaces as a transport failure instead of hanging a sync.
func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 20 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: 30 * time.Second,
	}
}

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Description string              `json:"description,omitempty"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]gistFile `json:"files"`
}

type gistResponse struct {
	ID    string `json:"id"`
	Files map[string]struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
	} `json:"files"`
}

// Create makes a new private gist seeded with initialContent.
func (c *Client) Create(ctx context.Context, initialContent string) (string, error) {
	public := false
	body := gistRequest{
		Description: description,
		Public:      &public,
		Files:       map[string]gistFile{logFileName: {Content: initialContent}},
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return "", remote.NewError(remote.KindTransport, "create gist", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "create gist", http.StatusCreated, http.StatusOK); err != nil {
		return "", err
	}

	var created gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", remote.NewError(remote.KindTransport, "create gist", err)
	}
	return created.ID, nil
}

// Fetch returns the log file content. A gist that exists but no longer holds
// the log file yields the bare header, which callers treat as an empty log.
func (c *Client) Fetch(ctx context.Context, documentID string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+documentID, nil)
	if err != nil {
		return "", remote.NewError(remote.KindTransport, "fetch gist", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "fetch gist", http.StatusOK); err != nil {
		return "", err
	}

	var fetched gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return "", remote.NewError(remote.KindTransport, "fetch gist", err)
	}
	file, ok := fetched.Files[logFileName]
	if !ok || file.Content == "" {
		return remote.Header, nil
	}
	if file.Truncated {
		// The API truncates large file bodies. Merging a partial log and
		// writing it back would drop the truncated tail, so refuse.
		return "", remote.NewError(remote.KindTransport, "fetch gist",
			fmt.Errorf("log file content truncated by API"))
	}
	return file.Content, nil
}

// Overwrite replaces the log file content wholesale.
func (c *Client) Overwrite(ctx context.Context, documentID, content string) error {
	body := gistRequest{
		Files: map[string]gistFile{logFileName: {Content: content}},
	}

	resp, err := c.do(ctx, http.MethodPatch, c.baseURL+"/"+documentID, &body)
	if err != nil {
		return remote.NewError(remote.KindTransport, "update gist", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp, "update gist", http.StatusOK)
}

func (c *Client) do(ctx context.Context, method, url string, body *gistRequest) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func (c *Client) checkStatus(resp *http.Response, op string, want ...int) error {
	for _, code := range want {
		if resp.StatusCode == code {
			return nil
		}
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return remote.NewError(remote.KindInvalidCredential, op, nil)
	case http.StatusNotFound:
		return remote.NewError(remote.KindDocumentNotFound, op, nil)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return remote.NewError(remote.KindTransport, op,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail))
	}
}
