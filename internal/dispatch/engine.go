// Package dispatch composes the policy engine, message builder, endpoint
// resolver, and delivery client into the single public Notify entry point.
package dispatch

import (
	"context"
	"fmt"

	"chatrelay/internal/config"
	"chatrelay/internal/notifications/core"
	"chatrelay/internal/notifications/message"
	"chatrelay/internal/notifications/route"
	"chatrelay/internal/types"
)

// Deliverer abstracts the delivery client so the engine is testable without
// network I/O.
type Deliverer interface {
	Deliver(ctx context.Context, msg types.OutboundMessage, set route.DestinationSet)
}

// Engine is the notification dispatch orchestrator. It is safe for
// concurrent use: all mutable configuration is read through the FeedSource
// per call, so operator changes apply between dispatches without a restart.
type Engine struct {
	primaryURL string
	feeds      config.FeedSource
	policy     *core.PolicyEngine
	deliverer  Deliverer
	logger     types.Logger
}

// NewEngine constructs the dispatch engine. It fails fast when no primary
// endpoint is configured: a relay with nowhere to deliver must refuse to
// start rather than drop every notification at runtime.
func NewEngine(primaryURL string, feeds config.FeedSource, deliverer Deliverer, logger types.Logger) (*Engine, error) {
	if primaryURL == "" {
		return nil, fmt.Errorf("dispatch engine: primary endpoint is required")
	}
	if feeds == nil {
		return nil, fmt.Errorf("dispatch engine: feed source is nil")
	}
	if deliverer == nil {
		return nil, fmt.Errorf("dispatch engine: deliverer is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("dispatch engine: logger is nil")
	}

	return &Engine{
		primaryURL: primaryURL,
		feeds:      feeds,
		policy:     core.NewPolicyEngine(),
		deliverer:  deliverer,
		logger:     logger,
	}, nil
}

// Notify runs one event through the pipeline: policy evaluation, message
// building, endpoint resolution, delivery. Suppressed events return
// immediately with no side effects beyond a counter. Notify is best effort
// relative to its caller: it has no error return, and delivery failures are
// handled inside the delivery client.
func (e *Engine) Notify(ctx context.Context, event types.Event) {
	core.DispatchedTotal.WithLabelValues(string(event.Action)).Inc()

	feed, err := e.feeds.Snapshot()
	if err != nil {
		// Best effort: a broken live config must not swallow the event.
		// Deliver to the primary endpoint with default styling and no
		// exclusions rather than dropping it.
		e.logger.Error("feed config unavailable, using defaults",
			"error", err.Error(),
		)
		feed = &config.FeedConfig{}
	}

	verdict := e.policy.Evaluate(event.Actor, event.Action, event.Experimental, &feed.Exclude)
	if verdict.Suppressed() {
		core.SuppressedTotal.WithLabelValues(string(event.Action), verdict.Layer).Inc()
		e.logger.Info("notification suppressed",
			"action", string(event.Action),
			"actor", event.Actor.Name,
			"layer", verdict.Layer,
			"reason", verdict.Reason,
		)
		return
	}

	msg := message.Build(event, feed.Style)
	set := route.Resolve(event, e.primaryURL, feed.Routing)

	e.logger.Info("dispatching notification",
		"action", string(event.Action),
		"actor", event.Actor.Name,
		"experimental", event.Experimental,
		"destinations", len(set.All()),
	)

	e.deliverer.Deliver(ctx, msg, set)
}
