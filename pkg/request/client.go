package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"adisglobe/pkg/tracker"
	"adisglobe/pkg/version"
)

var (
	defaultUserAgent = fmt.Sprintf("adisglobe/%s (+https://github.com/adisglobe/adisglobe)", version.Version)
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d from %s", e.Code, e.URL)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || (e.Code >= 500 && e.Code < 600)
}

// Options tune a Client. Zero fields take the defaults.
type Options struct {
	// Attempts per request. The default of 1 never retries.
	Attempts  int
	Timeout   time.Duration
	BaseDelay time.Duration
	UserAgent string
	// Cooldown delays the next request to a host after a failure.
	Cooldown *HostBackoff
}

// Client handles HTTP requests with per-host queuing and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	opts       Options

	// Queues per host
	queues map[string]chan job
	mu     sync.Mutex // Protects queues map
}

// job represents a queued request.
type job struct {
	req      *http.Request
	headers  map[string]string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client.
func New(t *tracker.Tracker, opts Options) *Client {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if t == nil {
		t = tracker.New()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		tracker:    t,
		opts:       opts,
		queues:     make(map[string]chan job),
	}
}

// Tracker returns the usage tracker.
func (c *Client) Tracker() *tracker.Tracker { return c.tracker }

// Get performs a queued GET request.
func (c *Client) Get(ctx context.Context, u string) ([]byte, error) {
	return c.GetWithHeaders(ctx, u, nil)
}

// GetWithHeaders performs a queued GET request with custom headers.
func (c *Client) GetWithHeaders(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	return c.get(ctx, u, headers)
}

// get queues a bodyless GET. The request carries no body, so it can be sent
// again on retry.
func (c *Client) get(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %q: unsupported scheme", u)
	}
	host := hostKey(parsedURL.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(host, job{req: req, headers: headers, respChan: respChan})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

// hostKey groups requests for serialization: case-insensitive, ignoring a
// leading "www.".
func hostKey(host string) string {
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// dispatch sends the job to the host's queue, creating the queue/worker if needed.
func (c *Client) dispatch(host string, j job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[host]
	if !ok {
		// Create new queue and start worker
		q = make(chan job, 100)
		c.queues[host] = q
		go c.worker(host, q)
	}

	// We block here if the queue is full, effectively throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		// Caller gave up before we could even enqueue
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific host sequentially.
func (c *Client) worker(host string, q <-chan job) {
	for j := range q {
		ctx := j.req.Context()
		// Check context before processing
		if ctx.Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "host", host, "error", ctx.Err())
			j.respChan <- jobResult{err: ctx.Err()}
			continue
		}
		if c.opts.Cooldown != nil {
			if err := c.opts.Cooldown.Wait(ctx, host); err != nil {
				j.respChan <- jobResult{err: err}
				continue
			}
		}

		// Apply User-Agent (Default if not provided)
		uaMatch := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaMatch = true
			}
		}
		if !uaMatch {
			j.req.Header.Set("User-Agent", c.opts.UserAgent)
		}

		start := time.Now()
		body, err := c.execute(j.req)

		if err == nil {
			c.tracker.TrackSuccess(host, len(body), time.Since(start))
			if c.opts.Cooldown != nil {
				c.opts.Cooldown.RecordSuccess(host)
			}
		} else {
			c.tracker.TrackFailure(host, err)
			if c.opts.Cooldown != nil && !errors.Is(err, context.Canceled) {
				c.opts.Cooldown.RecordFailure(host)
			}
		}

		j.respChan <- jobResult{body: body, err: err}
	}
}

// execute performs up to Attempts tries with exponential backoff between
// them on network errors, 429 and 5xx.
func (c *Client) execute(req *http.Request) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			sleepDur := time.Duration(math.Pow(2, float64(attempt-1))) * c.opts.BaseDelay
			select {
			case <-time.After(sleepDur):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
		// Verify context is still alive before dialing
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}

		slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Check if the error is a context cancellation from OUR side
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			slog.Warn("Request failed", "url", req.URL, "attempt", attempt+1, "error", err)
			lastErr = fmt.Errorf("request %s: %w", req.URL, err)
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			serr := &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
			if !serr.Retryable() {
				return nil, serr
			}
			slog.Warn("API Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			lastErr = serr
			continue
		}

		// Success
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return body, nil
	}
	return nil, lastErr
}
