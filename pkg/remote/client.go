// Package remote is the synchronous JSON client services use to call each
// other. Every call is bounded by a per-call timeout. Reads are retried with
// exponential backoff while the upstream is unavailable; writes are sent
// exactly once so a lost response can never double-apply them.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
	"github.com/dmehra2102/order-fulfillment/pkg/tracing"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	log      *slog.Logger
	name     string
	baseURL  string
	http     Doer
	timeout  time.Duration
	maxTries uint
	backoff  func() backoff.BackOff
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.backoff = f }
}

// New builds a client for the upstream called name (used in error messages)
// rooted at baseURL.
func New(log *slog.Logger, name, baseURL string, opts ...Option) *Client {
	c := &Client{
		log:      log,
		name:     name,
		baseURL:  baseURL,
		http:     http.DefaultClient,
		timeout:  5 * time.Second,
		maxTries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the response into out. Only UpstreamUnavailable failures are
// retried.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil {
			return struct{}{}, nil
		}
		if !apperr.Retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		c.log.Warn("remote read failed", "upstream", c.name, "path", path, "attempt", attempt, "err", err)
		return struct{}{}, err
	}, backoff.WithBackOff(c.backoff()), backoff.WithMaxTries(c.maxTries))
	return err
}

// Post sends one request. It is never retried.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.name, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.InjectHTTPHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream(err, "%s %s %s", c.name, method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Upstream(err, "%s %s %s: read body", c.name, method, path)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", c.name, err)
		}
		return nil
	}
	return c.failure(resp.StatusCode, raw)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// failure turns a non-2xx response into a typed error: the kind reported by
// the upstream wins, the status code decides otherwise.
func (c *Client) failure(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	kind := apperr.ParseKind(body.Kind)
	if kind == apperr.KindInternal {
		kind = kindForStatus(status)
	}
	if kind == apperr.KindUpstreamUnavailable {
		return apperr.Upstream(errors.New(msg), "%s returned %d", c.name, status)
	}
	return apperr.New(kind, "%s: %s", c.name, msg)
}

func kindForStatus(status int) apperr.Kind {
	switch {
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case status == http.StatusBadRequest:
		return apperr.KindValidation
	case status == http.StatusConflict:
		return apperr.KindReservationFailure
	case status == http.StatusUnprocessableEntity:
		return apperr.KindIneligibleState
	case status == http.StatusTooManyRequests, status >= 500:
		return apperr.KindUpstreamUnavailable
	default:
		return apperr.KindInternal
	}
}
