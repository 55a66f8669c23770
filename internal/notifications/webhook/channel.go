// Package webhook implements outbound delivery of rendered notifications to
// webhook-style chat endpoints.
//
// It handles wire serialization (Discord-style embed JSON), rate-limit-aware
// retry with a finite attempt cap, per-destination circuit breaking and
// pacing, and diagnostic escalation to an operator alert endpoint. Delivery
// is best effort: failures never propagate to the code that triggered the
// notification.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"chatrelay/internal/config"
	"chatrelay/internal/notifications/core"
	"chatrelay/internal/notifications/route"
	"chatrelay/internal/types"
)

// maxResponseBodyRead limits how much of a response body is read for error
// messages and rate-limit parsing.
const maxResponseBodyRead = 4096

// alertColor is the embed color for operator failure diagnostics (red).
const alertColor = 0xF44336

// Client delivers serialized notifications to webhook endpoints. One attempt
// sequence runs per destination; destinations are independent, so a failure
// on one never blocks or aborts another.
type Client struct {
	cfg        config.DeliveryConfig
	httpClient *http.Client
	logger     types.Logger
	sleeper    types.Sleeper
	clock      types.Clock

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*types.DeliveryResult]
	limiters map[string]*rate.Limiter
}

// NewClient creates a Client with an HTTP client honoring the configured
// timeout and optional outbound proxy.
func NewClient(cfg config.DeliveryConfig, logger types.Logger) (*Client, error) {
	if cfg.PrimaryURL == "" {
		return nil, fmt.Errorf("webhook client: primary endpoint is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("webhook client: logger is nil")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("webhook client: invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger:   logger,
		sleeper:  types.RealSleeper{},
		clock:    types.RealClock{},
		breakers: make(map[string]*gobreaker.CircuitBreaker[*types.DeliveryResult]),
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// NewClientWithHTTP creates a Client with a caller-supplied HTTP client.
// This constructor exists for testing against httptest servers.
func NewClientWithHTTP(cfg config.DeliveryConfig, httpClient *http.Client, logger types.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
		sleeper:    types.RealSleeper{},
		clock:      types.RealClock{},
		breakers:   make(map[string]*gobreaker.CircuitBreaker[*types.DeliveryResult]),
		limiters:   make(map[string]*rate.Limiter),
	}
}

// SetSleeper overrides the retry sleep for testing.
func (c *Client) SetSleeper(s types.Sleeper) {
	c.sleeper = s
}

// SetClock overrides the delivery-duration clock for testing.
func (c *Client) SetClock(clk types.Clock) {
	c.clock = clk
}

// Deliver serializes the message once and sends it to every destination in
// the set. Destinations are attempted concurrently; the per-destination
// sequence (serialize, send, rate-limit sleep, retry, escalate) stays
// strictly ordered. Deliver never returns an error to its caller.
func (c *Client) Deliver(ctx context.Context, msg types.OutboundMessage, set route.DestinationSet) {
	payload, err := Encode(msg)
	if err != nil {
		// Cannot happen for well-formed messages; log and drop.
		c.logger.Error("failed to encode outbound message", "error", err.Error())
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, dest := range set.All() {
		dest := dest
		g.Go(func() error {
			c.deliverOne(ctx, payload, dest)
			return nil
		})
	}
	_ = g.Wait()
}

// deliverOne runs the full attempt sequence for a single destination behind
// that destination's circuit breaker, recording metrics and escalating
// failures to the operator alert endpoint.
func (c *Client) deliverOne(ctx context.Context, payload []byte, dest string) {
	start := c.clock.Now()

	result, err := c.breakerFor(dest).Execute(func() (*types.DeliveryResult, error) {
		res := c.attemptSequence(ctx, payload, dest)
		if res.Status != types.DeliveryStatusSent {
			// Surface failure to the breaker so consecutive failures
			// open it.
			return res, fmt.Errorf("webhook delivery failed: %s", res.FailureReason)
		}
		return res, nil
	})

	elapsed := c.clock.Now().Sub(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		// No operator alert here: the failure that opened the breaker was
		// already escalated, and alerting per skipped send would flood the
		// operator channel.
		result = &types.DeliveryResult{
			Status:        types.DeliveryStatusSkipped,
			FailureReason: "circuit_breaker_open",
		}
		core.RecordDelivery(core.OutcomeBreakerOpen, elapsed)
		c.logger.Warn("destination skipped, circuit breaker open",
			"destination", dest,
			"status", string(result.Status),
		)
		return
	}

	if err != nil {
		core.RecordDelivery(core.OutcomeFailure, elapsed)
		reason := err.Error()
		if result != nil {
			reason = result.FailureReason
		}
		c.logger.Error("webhook delivery failed",
			"destination", dest,
			"reason", reason,
		)
		c.sendAlert(dest, reason)
		return
	}

	core.RecordDelivery(core.OutcomeSuccess, elapsed)
	c.logger.Info("webhook delivered",
		"destination", dest,
		"duration_ms", elapsed.Milliseconds(),
	)
}

// attemptSequence performs up to MaxAttempts sends to one destination.
// Retries happen only when the destination signals a rate-limit condition
// via a structured retry_after value in the response body; any other
// non-success outcome fails immediately.
func (c *Client) attemptSequence(ctx context.Context, payload []byte, dest string) *types.DeliveryResult {
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiterFor(dest).Wait(ctx); err != nil {
			return &types.DeliveryResult{
				Status:        types.DeliveryStatusFailed,
				FailureReason: fmt.Sprintf("pacing_wait: %v", err),
			}
		}

		result := c.sendOnce(ctx, payload, dest)
		if result.Status == types.DeliveryStatusSent {
			return result
		}

		if result.RetryAfter == nil {
			// Transport failure or hard rejection: no retry.
			return result
		}

		wait := *result.RetryAfter
		core.RecordRateLimitHit()

		if wait > c.cfg.MaxRetryWait {
			return &types.DeliveryResult{
				Status:        types.DeliveryStatusFailed,
				FailureReason: fmt.Sprintf("rate_limited: retry_after %s exceeds cap %s", wait, c.cfg.MaxRetryWait),
			}
		}

		// No attempts left: abandon without serving the final backoff.
		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.logger.Warn("destination rate limited, backing off",
			"destination", dest,
			"retry_after_ms", wait.Milliseconds(),
			"attempt", attempt,
		)
		c.sleeper.Sleep(wait)
	}

	return &types.DeliveryResult{
		Status:        types.DeliveryStatusFailed,
		FailureReason: fmt.Sprintf("rate_limited: retry cap of %d attempts exhausted", c.cfg.MaxAttempts),
	}
}

// sendOnce performs a single HTTP POST and classifies the response.
//
// Status handling:
//   - 200, 204: accepted.
//   - Any other status with a retry_after value in the body: rate limited,
//     RetryAfter set for the caller's backoff.
//   - Anything else (including transport errors): failed, no retry.
func (c *Client) sendOnce(ctx context.Context, payload []byte, dest string) *types.DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(payload))
	if err != nil {
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusFailed,
			FailureReason: fmt.Sprintf("build_request: %v", err),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusFailed,
			FailureReason: fmt.Sprintf("network_error: %v", err),
		}
	}
	defer resp.Body.Close()

	// Read a bounded prefix of the body for rate-limit parsing and error
	// diagnostics.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return &types.DeliveryResult{Status: types.DeliveryStatusSent}
	}

	if wait, ok := parseRetryAfter(body); ok {
		return &types.DeliveryResult{
			Status:        types.DeliveryStatusRetrying,
			FailureReason: fmt.Sprintf("rate_limited_%d", resp.StatusCode),
			Retryable:     true,
			RetryAfter:    &wait,
		}
	}

	return &types.DeliveryResult{
		Status:        types.DeliveryStatusFailed,
		FailureReason: fmt.Sprintf("status_%d: %s", resp.StatusCode, truncateBody(body)),
	}
}

// parseRetryAfter extracts the rate-limit wait from a response body. The
// contract is a JSON object with a numeric retry_after field in seconds,
// possibly fractional. A missing or malformed field means no retry is
// warranted.
func parseRetryAfter(body []byte) (time.Duration, bool) {
	var rl rateLimitBody
	if err := json.Unmarshal(body, &rl); err != nil || rl.RetryAfter == nil {
		return 0, false
	}
	if *rl.RetryAfter < 0 {
		return 0, false
	}
	return time.Duration(*rl.RetryAfter * float64(time.Second)), true
}

// sendAlert posts a diagnostic failure embed to the operator alert endpoint.
// It makes exactly one attempt with a short deadline and never re-enters the
// retry machinery; a failed alert is only logged.
func (c *Client) sendAlert(dest string, reason string) {
	if c.cfg.AlertURL == "" {
		return
	}

	msg := types.OutboundMessage{
		Color:       alertColor,
		Body:        fmt.Sprintf("Notification delivery to %s failed: %s", dest, reason),
		DisplayName: "Chatrelay",
	}

	payload, err := Encode(msg)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AlertURL, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("operator alert delivery failed",
			"alert_url", c.cfg.AlertURL,
			"error", err.Error(),
		)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyRead))
}

// breakerFor returns the circuit breaker for a destination, creating it on
// first use.
func (c *Client) breakerFor(dest string) *gobreaker.CircuitBreaker[*types.DeliveryResult] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[dest]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker[*types.DeliveryResult](gobreaker.Settings{
		Name:        dest,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	c.breakers[dest] = cb
	return cb
}

// limiterFor returns the pacing limiter for a destination, creating it on
// first use.
func (c *Client) limiterFor(dest string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.limiters[dest]; ok {
		return l
	}

	l := rate.NewLimiter(rate.Limit(c.cfg.PacingRPS), c.cfg.PacingBurst)
	c.limiters[dest] = l
	return l
}

// truncateBody shortens a response body for log and alert messages.
func truncateBody(body []byte) string {
	const maxLen = 200
	s := string(body)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
