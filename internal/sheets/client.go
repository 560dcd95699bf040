// Package sheets fetches reference data from the company spreadsheet. Each
// call re-fetches the workbook; caching and retries are the caller's concern.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/time/rate"
)

// Error kinds the orchestrator can branch on. All of them are terminal from
// this package's point of view.
var (
	// ErrUnauthorized means the source rejected our credentials.
	ErrUnauthorized = eris.New("sheets: unauthorized")
	// ErrSheetNotFound means the workbook has no sheet with the given name.
	ErrSheetNotFound = eris.New("sheets: sheet not found")
)

// Options configures the workbook client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RatePerSec int
}

// Client downloads spreadsheet workbooks in XLSX export format.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a workbook client.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	return &Client{
		baseURL: opts.BaseURL,
		token:   opts.Token,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.RatePerSec),
	}
}

// Workbook fetches the document's XLSX export and parses it.
func (c *Client) Workbook(ctx context.Context, docID string) (*xlsx.File, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sheets: rate limiter wait")
	}

	url := fmt.Sprintf("%s/%s/export?format=xlsx", c.baseURL, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: fetch workbook")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, eris.Wrapf(ErrUnauthorized, "doc %s: status %d", docID, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("sheets: unexpected status %d fetching doc %s", resp.StatusCode, docID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read workbook body")
	}

	f, err := xlsx.OpenBinary(body)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: parse workbook")
	}
	return f, nil
}

func sheetByName(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Wrapf(ErrSheetNotFound, "sheet %q", name)
	}
	return sheet, nil
}
