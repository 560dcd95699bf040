// Package bitrix talks to a Bitrix24 portal through an inbound webhook URL.
// The webhook embeds the credentials, so there is no separate auth step.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lavka-group/shop-assistant/internal/resilience"
)

// Client performs CRM lead operations against Bitrix24.
type Client interface {
	CreateLead(ctx context.Context, fields map[string]any) (int64, error)
	UpdateLead(ctx context.Context, leadID int64, fields map[string]any) error
}

// Option configures the client.
type Option func(*httpClient)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	webhookURL string
	http       *http.Client
}

// NewClient creates a Bitrix24 webhook client. The webhook URL carries the
// portal address and the access token.
func NewClient(webhookURL string, opts ...Option) (Client, error) {
	if webhookURL == "" {
		return nil, eris.New("bitrix: webhook URL is required")
	}
	c := &httpClient{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type apiResponse struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// CreateLead adds a CRM lead and returns its ID.
func (c *httpClient) CreateLead(ctx context.Context, fields map[string]any) (int64, error) {
	resp, err := c.post(ctx, "crm.lead.add", map[string]any{"fields": fields})
	if err != nil {
		return 0, err
	}

	var leadID int64
	if err := json.Unmarshal(resp.Result, &leadID); err != nil {
		return 0, eris.Wrap(err, "bitrix: unexpected result for lead creation")
	}
	return leadID, nil
}

// UpdateLead modifies the fields of an existing lead.
func (c *httpClient) UpdateLead(ctx context.Context, leadID int64, fields map[string]any) error {
	_, err := c.post(ctx, "crm.lead.update", map[string]any{
		"ID":     leadID,
		"fields": fields,
	})
	return err
}

// post calls a REST method on the webhook. Transport failures and 5xx
// responses are transient; an "error" field in the payload is a protocol
// error and terminal.
func (c *httpClient) post(ctx context.Context, method string, payload map[string]any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: marshal %s payload", method)
	}

	url := c.webhookURL + "/" + method + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: create %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "bitrix: send %s request", method), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "bitrix: read %s response", method), 0)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("bitrix: %s status %d: %s", method, resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var out apiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, eris.Wrapf(err, "bitrix: decode %s response", method)
	}
	if out.Error != "" {
		return nil, eris.Errorf("bitrix: %s: %s: %s", method, out.Error, out.ErrorDescription)
	}
	return &out, nil
}
