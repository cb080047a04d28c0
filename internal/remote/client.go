package remote

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/session"
)

// DefaultTimeout bounds a single call when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Options configures a Client.
type Options struct {
	// BaseURL is the service root; calls go to BaseURL + "/rpc".
	BaseURL string

	// Token is sent when the context carries no session.
	Token string

	Timeout    time.Duration
	HTTPClient *http.Client

	// PageSize is requested for paged listings; zero lets the service
	// choose.
	PageSize int

	// Invalidator is told when the service rejects the session.
	Invalidator session.Invalidator

	Logger *zerolog.Logger
}

// Client calls the ledger service.
type Client struct {
	endpoint    string
	token       string
	pageSize    int
	http        *http.Client
	invalidator session.Invalidator
	log         zerolog.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("service URL is required")
	}
	c := &Client{
		endpoint:    base + "/rpc",
		token:       opts.Token,
		pageSize:    opts.PageSize,
		http:        opts.HTTPClient,
		invalidator: opts.Invalidator,
		log:         logger.WithComponent("remote"),
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	return c, nil
}

func (c *Client) bearer(ctx context.Context) string {
	if tok := session.Token(ctx); tok != "" {
		return tok
	}
	return c.token
}

// call sends one request and decodes its result into out. Every failure
// comes back classified: ErrUnauthorized, *DenialError, *TransientError,
// or a protocol error.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	return c.callWithToken(ctx, c.bearer(ctx), method, params, out)
}

func (c *Client) callWithToken(ctx context.Context, token, method string, params, out any) error {
	id := uuid.NewString()
	log := c.log.With().Str("method", method).Str("id", id).Logger()

	body, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("call failed")
		return &TransientError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return c.unauthorized(log, method, resp.Status)
	case resp.StatusCode >= 500:
		return &TransientError{Op: method, Err: fmt.Errorf("server returned %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Op: method, Err: fmt.Errorf("reading response: %w", err)}
	}
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrMalformed, err)
	}
	if raw.ID != id {
		return fmt.Errorf("%s: %w: response id %q does not match %q", method, ErrMalformed, raw.ID, id)
	}
	log.Debug().Dur("elapsed", time.Since(start)).Bool("error", raw.Error != nil).Msg("call complete")

	if raw.Error != nil {
		switch raw.Error.Code {
		case CodeUnauthorized:
			return c.unauthorized(log, method, raw.Error.Message)
		case CodeDenied:
			return &DenialError{Op: method, Message: raw.Error.Message}
		case CodeInternal:
			return &TransientError{Op: method, Err: raw.Error}
		}
		return fmt.Errorf("%s: %w", method, raw.Error)
	}
	if out == nil {
		return nil
	}
	if len(raw.Result) == 0 || string(raw.Result) == "null" {
		return fmt.Errorf("%s: %w: empty result", method, ErrMalformed)
	}
	if err := json.Unmarshal(raw.Result, out); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrMalformed, err)
	}
	return nil
}

func (c *Client) unauthorized(log zerolog.Logger, method, reason string) error {
	log.Warn().Str("reason", reason).Msg("session rejected")
	if c.invalidator != nil {
		c.invalidator.Invalidate(reason)
	}
	return fmt.Errorf("%s: %w", method, ErrUnauthorized)
}
