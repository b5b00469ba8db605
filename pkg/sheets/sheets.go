// Package sheets mirrors time entries to a Google Sheets spreadsheet and
// exposes the spreadsheet's project-name column as a cached read source.
// Everything here is best effort: the core write path never blocks on or
// fails because of this package.
package sheets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	projectRange  = "Sheet1!A:A"
	projectHeader = "Project Names"
	entryRange    = "TimeEntries!A:F"

	cacheTTL = 5 * time.Minute
)

// EntryRow is the mirrored form of a time entry. It doubles as the JSON
// payload published to the mirror queue.
type EntryRow struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	ProjectName string    `json:"projectName"`
	Date        string    `json:"date"`
	TimeSpent   float64   `json:"timeSpent"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Client talks to one spreadsheet. Project names are cached for five
// minutes; a failed refresh serves the last good list instead of an error.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	logger        *logrus.Logger

	mu        sync.Mutex
	cache     []string
	fetchedAt time.Time

	// Injection points for tests.
	now   func() time.Time
	fetch func(ctx context.Context) ([]string, error)
}

// New builds a Sheets client. If credentialsPath is empty, Application
// Default Credentials are used.
func New(ctx context.Context, spreadsheetID, credentialsPath string, logger *logrus.Logger) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id required")
	}
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	c := &Client{svc: svc, spreadsheetID: spreadsheetID, logger: logger}
	c.now = time.Now
	c.fetch = c.fetchProjectNames
	return c, nil
}

// ListProjectNames returns the spreadsheet's project column. Results are
// cached for five minutes, an empty column included; on fetch failure the
// last good cache is returned (empty if nothing was ever fetched).
func (c *Client) ListProjectNames(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < cacheTTL {
		return append([]string(nil), c.cache...), nil
	}

	names, err := c.fetch(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("sheets: project fetch failed, serving cached list")
		}
		return append([]string{}, c.cache...), nil
	}
	c.cache = names
	c.fetchedAt = c.now()
	return append([]string(nil), names...), nil
}

func (c *Client) fetchProjectNames(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, projectRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		name, ok := row[0].(string)
		if !ok || name == "" || name == projectHeader {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// AppendEntry appends one mirrored entry row to the TimeEntries sheet.
func (c *Client) AppendEntry(ctx context.Context, row EntryRow) error {
	vr := &gsheets.ValueRange{
		Values: [][]interface{}{{
			row.ID,
			row.Username,
			row.ProjectName,
			row.Date,
			row.TimeSpent,
			row.CreatedAt.UTC().Format(time.RFC3339),
		}},
	}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, entryRange, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}
