// Package ollama talks to an Ollama server's chat endpoint. Responses are
// streamed as NDJSON chunks and reassembled into one completed string before
// being returned; callers never see partial output.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/resilience"
)

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "llama3.2:3b"
)

// Client performs chat completions against an Ollama server.
type Client interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHost overrides the default server address.
func WithHost(host string) Option {
	return func(c *httpClient) {
		c.host = host
	}
}

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithTimeout overrides the per-call timeout. Generation on small hardware
// can legitimately take minutes.
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
	host  string
	model string
	http  *http.Client
}

// NewClient creates an Ollama chat client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		host:  defaultHost,
		model: defaultModel,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunk struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Chat sends the prompt and reassembles the streamed chunks into the full
// completion. Transport failures, 5xx responses and a wholly garbled stream
// are transient; a clean 4xx from the endpoint is terminal.
func (c *httpClient) Chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	})
	if err != nil {
		return "", eris.Wrap(err, "ollama: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "ollama: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", resilience.NewTransientError(eris.Wrap(err, "ollama: send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := eris.Errorf("ollama: status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	return c.collectStream(resp.Body)
}

// collectStream reads NDJSON chunks and concatenates their message content.
// Individual malformed lines are skipped; a stream that yields nothing but
// garbage is reported as transient so the caller can retry the whole call.
func (c *httpClient) collectStream(r io.Reader) (string, error) {
	var full bytes.Buffer
	var malformed int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			malformed++
			zap.L().Warn("ollama: skipping malformed stream chunk", zap.Error(err))
			continue
		}
		full.WriteString(chunk.Message.Content)
	}

	if err := scanner.Err(); err != nil {
		return "", resilience.NewTransientError(eris.Wrap(err, "ollama: read stream"), 0)
	}
	if full.Len() == 0 && malformed > 0 {
		return "", resilience.NewTransientError(
			eris.Errorf("ollama: stream contained only malformed chunks (%d)", malformed), 0)
	}

	return full.String(), nil
}
