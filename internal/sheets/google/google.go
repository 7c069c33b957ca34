// Package google mirrors transactions into a Google Sheets worksheet, one
// row per transaction id kept in column A.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Transactions"

// Options configures the client. ServiceAccountJSON wins over
// ServiceAccountFile; with neither, GOOGLE_APPLICATION_CREDENTIALS is read.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	// RowCacheTTL bounds how long the id to row index is trusted.
	RowCacheTTL time.Duration
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu                 sync.Mutex
	rowIndex           map[int64]int
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var _ sheets.Mirror = (*Client)(nil)

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, opts), nil
}

func newClient(svc *gsheet.Service, opts Options) *Client {
	sheet := strings.TrimSpace(opts.SheetName)
	if sheet == "" {
		sheet = defaultSheetName
	}
	ttl := opts.RowCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(opts.SpreadsheetID),
		sheet:              sheet,
		cacheValidDuration: ttl,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

func (c *Client) Upsert(ctx context.Context, r sheets.Row) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureIndex(ctx); err != nil {
		return err
	}
	if c.cachedRowCount == 0 {
		if err := c.writeRow(ctx, 1, headerValues()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		c.cachedRowCount = 1
	}

	row, ok := c.rowIndex[r.ID]
	if !ok {
		row = c.cachedRowCount + 1
	}
	if err := c.writeRow(ctx, row, r.Values()); err != nil {
		c.invalidateLocked()
		return fmt.Errorf("write transaction %d: %w", r.ID, err)
	}
	if !ok {
		c.rowIndex[r.ID] = row
		c.cachedRowCount = row
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureIndex(ctx); err != nil {
		return err
	}
	row, ok := c.rowIndex[id]
	if !ok {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn(), row)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		c.invalidateLocked()
		return fmt.Errorf("clear transaction %d: %w", id, err)
	}
	delete(c.rowIndex, id)
	return nil
}

// InvalidateRowCache forces the next call to re-read column A.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Client) invalidateLocked() {
	c.rowIndex = nil
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}

func (c *Client) cacheValid(now time.Time) bool {
	return c.rowIndex != nil && now.Before(c.cacheExpiresAt)
}

func (c *Client) ensureIndex(ctx context.Context) error {
	now := time.Now()
	if c.cacheValid(now) {
		return nil
	}
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ids from %s: %w", c.sheet, err)
	}
	c.rowIndex, c.cachedRowCount = indexRows(resp.Values)
	c.cacheExpiresAt = now.Add(c.cacheValidDuration)
	slog.DebugContext(ctx, "Row index refreshed", "sheet", c.sheet, "rows", c.cachedRowCount)
	return nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheet, row, lastColumn(), row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}

// indexRows maps ids found in column A to their 1-based row numbers and
// returns the number of rows read. Non-numeric cells such as the header are
// skipped.
func indexRows(values [][]any) (map[int64]int, int) {
	index := make(map[int64]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		index[id] = i + 1
	}
	return index, len(values)
}

func headerValues() []any {
	out := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		out[i] = h
	}
	return out
}

func lastColumn() string {
	return string(rune('A' + len(sheets.Header) - 1))
}
