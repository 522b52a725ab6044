// Package drive stores the remote log as a plain-text file on Google Drive.
// It is the alternative to the gist backend for users who already carry
// Google service-account credentials.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"dailymoney/internal/remote"
)

const logFileName = "DailyMoneyLog.csv"

// ErrNoCredentials means no service-account credentials are present in the
// environment. Callers can treat it as "sync disabled" rather than fatal.
var ErrNoCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")

type Client struct {
	svc      *gdrive.Service
	folderID string
}

// Ensure interface conformance
var _ remote.DocumentStore = (*Client)(nil)

// NewFromEnv creates a Drive client using service-account credentials.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS. Optional: DRIVE_FOLDER_ID to place the
// log file inside a folder.
func NewFromEnv(ctx context.Context) (*Client, error) {
	credentialsJSON, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Client{
		svc:      svc,
		folderID: strings.TrimSpace(os.Getenv("DRIVE_FOLDER_ID")),
	}, nil
}

func loadCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, ErrNoCredentials
	}
	credentialsJSON, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return credentialsJSON, nil
}

func (c *Client) Create(ctx context.Context, initialContent string) (string, error) {
	meta := &gdrive.File{
		Name:     logFileName,
		MimeType: "text/csv",
	}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	file, err := c.svc.Files.Create(meta).
		Media(strings.NewReader(initialContent), googleapi.ContentType("text/csv")).
		Context(ctx).Do()
	if err != nil {
		return "", wrapErr("create drive file", err)
	}
	return file.Id, nil
}

func (c *Client) Fetch(ctx context.Context, documentID string) (string, error) {
	resp, err := c.svc.Files.Get(documentID).Context(ctx).Download()
	if err != nil {
		return "", wrapErr("fetch drive file", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", remote.NewError(remote.KindTransport, "fetch drive file", err)
	}
	return string(content), nil
}

func (c *Client) Overwrite(ctx context.Context, documentID, content string) error {
	_, err := c.svc.Files.Update(documentID, &gdrive.File{}).
		Media(strings.NewReader(content), googleapi.ContentType("text/csv")).
		Context(ctx).Do()
	if err != nil {
		return wrapErr("update drive file", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return remote.NewError(remote.KindInvalidCredential, op, err)
		case 404:
			return remote.NewError(remote.KindDocumentNotFound, op, err)
		}
	}
	return remote.NewError(remote.KindTransport, op, err)
}
