// Package apiclient talks to a running huntlog daemon over its HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/huntlog/internal/daemon"
	"github.com/theirongolddev/huntlog/internal/model"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 8 << 20
)

var (
	// ErrTooLarge means the daemon refused a log over its size limit.
	ErrTooLarge = errors.New("apiclient: log exceeds the daemon's size limit")
	// ErrUnprocessable means the daemon parsed the log but could not use
	// it, e.g. no layout matched or the session has no start/end.
	ErrUnprocessable = errors.New("apiclient: log not usable")
	// ErrUnavailable means the daemon runs without a session store.
	ErrUnavailable = errors.New("apiclient: daemon has no session store")
)

// Client calls one daemon.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for addr, either "host:port" or a full URL.
func New(addr string) (*Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("apiclient: empty daemon address")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid daemon address %q", addr)
	}
	return &Client{
		base: strings.TrimRight(u.String(), "/"),
		http: &http.Client{},
	}, nil
}

// Status returns the daemon's /v1/status document.
func (c *Client) Status(ctx context.Context) (daemon.Status, error) {
	var st daemon.Status
	err := c.do(ctx, http.MethodGet, "/v1/status", nil, nil, &st)
	return st, err
}

// Parse sends text to POST /v1/parse. With strategyOnly, logs no layout
// recognises fail with ErrUnprocessable.
func (c *Client) Parse(ctx context.Context, text string, strategyOnly bool) (daemon.ParseResponse, error) {
	q := url.Values{}
	if strategyOnly {
		q.Set("strategy_only", "1")
	}
	var pr daemon.ParseResponse
	err := c.do(ctx, http.MethodPost, "/v1/parse", q, strings.NewReader(text), &pr)
	return pr, err
}

// CreateSession stores text as a session of character on the daemon.
func (c *Client) CreateSession(ctx context.Context, text, character string, strategyOnly bool) (model.HuntSession, error) {
	q := url.Values{}
	if character != "" {
		q.Set("character", character)
	}
	if strategyOnly {
		q.Set("strategy_only", "1")
	}
	var hs model.HuntSession
	err := c.do(ctx, http.MethodPost, "/v1/sessions", q, strings.NewReader(text), &hs)
	return hs, err
}

// Sessions lists stored sessions newest first; limit <= 0 means all.
func (c *Client) Sessions(ctx context.Context, limit int) ([]model.HuntSession, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.HuntSession
	err := c.do(ctx, http.MethodGet, "/v1/sessions", q, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("apiclient: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}

	resp, err := c.http.Do(req) //nolint:gosec // URL is the user's own daemon
	if err != nil {
		return fmt.Errorf("apiclient: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("apiclient: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("apiclient: parsing %s: %w", path, err)
	}
	return nil
}

// statusError maps a failed response to a sentinel, keeping the daemon's
// message.
func statusError(code int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(bytes.TrimSpace(body), &payload)
	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch code {
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", ErrTooLarge, msg)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrUnprocessable, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("apiclient: HTTP %d: %s", code, msg)
	}
}
