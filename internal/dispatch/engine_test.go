package dispatch

import (
	"context"
	"errors"
	"testing"

	"chatrelay/internal/config"
	"chatrelay/internal/notifications/route"
	"chatrelay/internal/types"
)

const primaryURL = "https://chat.example/hooks/primary"

type mockLogger struct{}

func (mockLogger) Info(msg string, args ...any)  {}
func (mockLogger) Error(msg string, args ...any) {}
func (mockLogger) Warn(msg string, args ...any)  {}
func (mockLogger) With(args ...any) types.Logger { return mockLogger{} }

// recordingDeliverer captures every delivery instead of hitting the network.
type recordingDeliverer struct {
	calls []deliveryCall
}

type deliveryCall struct {
	msg types.OutboundMessage
	set route.DestinationSet
}

func (d *recordingDeliverer) Deliver(ctx context.Context, msg types.OutboundMessage, set route.DestinationSet) {
	d.calls = append(d.calls, deliveryCall{msg: msg, set: set})
}

// failingSource simulates a broken live config file.
type failingSource struct{}

func (failingSource) Snapshot() (*config.FeedConfig, error) {
	return nil, errors.New("feed file unreadable")
}

func newTestEngine(t *testing.T, feed *config.FeedConfig) (*Engine, *recordingDeliverer) {
	t.Helper()
	deliverer := &recordingDeliverer{}
	engine, err := NewEngine(primaryURL, &config.StaticSource{Config: feed}, deliverer, mockLogger{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, deliverer
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	feeds := &config.StaticSource{Config: &config.FeedConfig{}}
	deliverer := &recordingDeliverer{}

	if _, err := NewEngine("", feeds, deliverer, mockLogger{}); err == nil {
		t.Error("expected error for empty primary endpoint")
	}
	if _, err := NewEngine(primaryURL, nil, deliverer, mockLogger{}); err == nil {
		t.Error("expected error for nil feed source")
	}
	if _, err := NewEngine(primaryURL, feeds, nil, mockLogger{}); err == nil {
		t.Error("expected error for nil deliverer")
	}
	if _, err := NewEngine(primaryURL, feeds, deliverer, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestNotify_DeliversAllowedEvent(t *testing.T) {
	engine, deliverer := newTestEngine(t, &config.FeedConfig{
		Style: config.StyleConfig{SiteName: "Wiki"},
	})

	engine.Notify(context.Background(), types.Event{
		Actor:        types.Actor{Name: "Alice"},
		Action:       types.ActionArticleSaved,
		RenderedText: "Alice edited a page",
	})

	if len(deliverer.calls) != 1 {
		t.Fatalf("delivery calls = %d, want 1", len(deliverer.calls))
	}
	call := deliverer.calls[0]
	if call.msg.Body != "Alice edited a page" {
		t.Errorf("body = %q", call.msg.Body)
	}
	if call.msg.DisplayName != "Wiki" {
		t.Errorf("display name = %q, want site name", call.msg.DisplayName)
	}
	if call.set.Primary != primaryURL {
		t.Errorf("primary = %q, want %q", call.set.Primary, primaryURL)
	}
}

func TestNotify_SuppressedEventNeverReachesDeliverer(t *testing.T) {
	engine, deliverer := newTestEngine(t, &config.FeedConfig{
		Exclude: config.ExclusionPolicy{
			Global: config.RuleSet{Groups: config.StringList{"bot"}},
		},
	})

	engine.Notify(context.Background(), types.Event{
		Actor:        types.Actor{Name: "AutoBot", Groups: []string{"bot"}},
		Action:       types.ActionArticleSaved,
		RenderedText: "AutoBot edited a page",
	})

	if len(deliverer.calls) != 0 {
		t.Fatalf("suppressed event was delivered: %+v", deliverer.calls)
	}
}

func TestNotify_RoutingAppliedPerDispatch(t *testing.T) {
	engine, deliverer := newTestEngine(t, &config.FeedConfig{
		Routing: config.RoutingConfig{
			Mirrors: []string{"https://chat.example/hooks/mirror"},
		},
	})

	engine.Notify(context.Background(), types.Event{
		Actor:        types.Actor{Name: "Alice"},
		Action:       types.ActionUserBlocked,
		RenderedText: "Alice blocked Bob",
	})

	if len(deliverer.calls) != 1 {
		t.Fatalf("delivery calls = %d, want 1", len(deliverer.calls))
	}
	set := deliverer.calls[0].set
	if len(set.All()) != 2 {
		t.Fatalf("destinations = %v, want primary plus one mirror", set.All())
	}
}

func TestNotify_FeedErrorFallsBackToDefaults(t *testing.T) {
	deliverer := &recordingDeliverer{}
	engine, err := NewEngine(primaryURL, failingSource{}, deliverer, mockLogger{})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	engine.Notify(context.Background(), types.Event{
		Actor:        types.Actor{Name: "Alice"},
		Action:       types.ActionArticleSaved,
		RenderedText: "Alice edited a page",
	})

	// A broken live config must not drop the event: it goes to the primary
	// with no exclusions applied.
	if len(deliverer.calls) != 1 {
		t.Fatalf("delivery calls = %d, want 1", len(deliverer.calls))
	}
	if got := deliverer.calls[0].set.Primary; got != primaryURL {
		t.Errorf("primary = %q, want %q", got, primaryURL)
	}
}

func TestNotify_ExperimentalIgnoresStandardActionRules(t *testing.T) {
	engine, deliverer := newTestEngine(t, &config.FeedConfig{
		Routing: config.RoutingConfig{
			ExperimentalURL: "https://chat.example/hooks/cvt",
		},
		Exclude: config.ExclusionPolicy{
			Actions: map[types.ActionKind]config.RuleSet{
				types.ActionArticleSaved: {Groups: config.StringList{"bot"}},
			},
		},
	})

	engine.Notify(context.Background(), types.Event{
		Actor:        types.Actor{Name: "AutoBot", Groups: []string{"bot"}},
		Action:       types.ActionArticleSaved,
		RenderedText: "AutoBot edited a page",
		Experimental: true,
	})

	if len(deliverer.calls) != 1 {
		t.Fatalf("delivery calls = %d, want 1 (standard action rules do not apply)", len(deliverer.calls))
	}
	if got := deliverer.calls[0].set.Primary; got != "https://chat.example/hooks/cvt" {
		t.Errorf("primary = %q, want experimental endpoint", got)
	}
}
