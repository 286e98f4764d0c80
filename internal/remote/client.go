package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/framehello/internal/bridge"
	"github.com/muurk/framehello/internal/discovery"
	"github.com/muurk/framehello/internal/logging"
	"github.com/muurk/framehello/internal/session"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second
)

// Client drives a session served by a framehello bridge
type Client struct {
	// BaseURL is the bridge URL (e.g., "http://192.168.1.20:8787")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Dialer opens the live update stream
	Dialer *websocket.Dialer

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool
}

// NewClient creates a client for the bridge at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a client with a full base URL
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimSuffix(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		Dialer:                &websocket.Dialer{HandshakeTimeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// NewClientForBridge creates a client for a discovered bridge
func NewClientForBridge(b *discovery.Bridge) *Client {
	return NewClientWithURL(b.BaseURL())
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
	c.Dialer.HandshakeTimeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// State returns the bridge's current session state
func (c *Client) State(ctx context.Context) (*bridge.StateView, error) {
	var view bridge.StateView
	err := c.retry(ctx, IsRetryable, func() error {
		return c.doJSON(ctx, http.MethodGet, "/state", http.StatusOK, &view)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Log returns session log entries from sequence number since onwards
func (c *Client) Log(ctx context.Context, since int) ([]session.LogEntry, error) {
	var entries []session.LogEntry
	err := c.retry(ctx, IsRetryable, func() error {
		return c.doJSON(ctx, http.MethodGet, "/log?since="+strconv.Itoa(since), http.StatusOK, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Do asks the session to perform a. It returns once the session accepted
// the action, not when the action completes; see Wait.
func (c *Client) Do(ctx context.Context, a session.Action) (*bridge.StateView, error) {
	var view bridge.StateView
	// Only a refused connection is certain not to have reached the session.
	refused := func(err error) bool {
		var rerr *Error
		return errors.As(err, &rerr) && rerr.Type == ErrTypeConnectionRefused
	}
	err := c.retry(ctx, refused, func() error {
		return c.doJSON(ctx, http.MethodPost, "/actions/"+string(a), http.StatusAccepted, &view)
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Wait follows the live update stream until pred holds for a state the
// bridge reports, and returns that state.
func (c *Client) Wait(ctx context.Context, pred func(*bridge.StateView) bool) (*bridge.StateView, error) {
	conn, _, err := c.Dialer.DialContext(ctx, c.webSocketURL(), nil)
	if err != nil {
		return nil, NewNetworkError("failed to open update stream", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock ReadJSON when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var msg bridge.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, NewNetworkError("update stream closed", err)
		}
		if msg.Type == bridge.MessageError {
			logging.Debug("Bridge reported error", zap.String("error", msg.Error))
			continue
		}
		if msg.State != nil && pred(msg.State) {
			return msg.State, nil
		}
	}
}

// Run performs a and waits for the session to go idle again.
func (c *Client) Run(ctx context.Context, a session.Action) (*bridge.StateView, error) {
	if _, err := c.Do(ctx, a); err != nil {
		return nil, err
	}
	return c.Wait(ctx, func(v *bridge.StateView) bool { return !v.Busy })
}

func (c *Client) webSocketURL() string {
	return "ws" + strings.TrimPrefix(c.BaseURL, "http") + discovery.DefaultPath
}

// retry runs attempt until it succeeds, fails with an error should rejects,
// or the retries run out.
func (c *Client) retry(ctx context.Context, should func(error) bool, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			logging.Debug("Retrying bridge request",
				zap.Int("attempt", i),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(currentDelay):
			case <-ctx.Done():
				return ctx.Err()
			}

			// Exponential backoff
			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !should(err) {
			return err
		}
	}

	return lastErr
}

// doJSON performs one request and decodes a want-status response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, want int, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return NewNetworkError("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError(method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != want {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return NewHTTPError(resp.StatusCode, e.Error)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewParseError(fmt.Sprintf("failed to parse %s response", path), err)
	}
	return nil
}
