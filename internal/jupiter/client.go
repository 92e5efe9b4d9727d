package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http/httpguts"
)

const DefaultBaseURL = "https://api.jup.ag/swap/v1"

// maxErrorBody caps how much of a non-2xx body is kept in HTTPError.
const maxErrorBody = 64 << 10

// ErrInvalidAPIKey means the key cannot be sent as an HTTP header value.
var ErrInvalidAPIKey = errors.New("jupiter: api key is not a valid header value")

// ClientConfig holds configuration for the swap API client. Zero durations
// and limits fall back to defaults.
type ClientConfig struct {
	BaseURL             string
	APIKey              string
	Timeout             time.Duration
	ConnectTimeout      time.Duration
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	Logger              *logrus.Logger
}

// Client calls the quote, swap and swap-instructions endpoints. It is safe
// for concurrent use; the underlying HTTP client is never modified after
// NewClient returns.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

// HTTPError is returned when the service answers with a non-2xx status.
// Body is empty if it could not be read.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

// DecodeError is returned when a 2xx body does not match the expected type.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode jupiter %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewClient builds the client and its shared transport.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		if !httpguts.ValidHeaderFieldValue(cfg.APIKey) {
			return nil, ErrInvalidAPIKey
		}
		header.Set("x-api-key", cfg.APIKey)
	}

	httpClient, err := newHTTPClient(cfg, header)
	if err != nil {
		return nil, fmt.Errorf("configure transport: %w", err)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
		logger:  cfg.Logger,
	}, nil
}

// MustNewClient is like NewClient but panics on misconfiguration.
func MustNewClient(cfg ClientConfig) *Client {
	c, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Quote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	q, err := req.Values()
	if err != nil {
		return nil, err
	}

	var out QuoteResponse
	if err := c.do(ctx, http.MethodGet, "/quote?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Swap(ctx context.Context, req *SwapRequest) (*SwapResponse, error) {
	var out SwapResponse
	if err := c.do(ctx, http.MethodPost, "/swap", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SwapInstructions(ctx context.Context, req *SwapRequest) (*SwapInstructionsResponse, error) {
	var out swapInstructionsResponseInternal
	if err := c.do(ctx, http.MethodPost, "/swap-instructions", req, &out); err != nil {
		return nil, err
	}
	return out.into(), nil
}

// do sends one request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpointName(path), err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpointName(path),
		"status":   res.StatusCode,
		"duration": time.Since(start),
	}).Debug("jupiter request")

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, readErr := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		if readErr != nil {
			b = nil
		}
		return &HTTPError{StatusCode: res.StatusCode, Body: b}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return &DecodeError{Endpoint: endpointName(path), Err: err}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &DecodeError{Endpoint: endpointName(path), Err: err}
	}
	if cr, ok := out.(checkedResponse); ok {
		if err := checkResponse(b, cr); err != nil {
			return &DecodeError{Endpoint: endpointName(path), Err: err}
		}
	}
	return nil
}

// checkedResponse is a response body with fields the service always sends.
type checkedResponse interface {
	requiredFields() []string
	validate() error
}

// checkResponse rejects bodies that decode cleanly but miss a required
// field, such as {} or {"error": "..."} served with a 2xx status.
func checkResponse(body []byte, cr checkedResponse) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	for _, name := range cr.requiredFields() {
		v, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return cr.validate()
}

func endpointName(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
