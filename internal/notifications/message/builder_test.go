package message

import (
	"bytes"
	"testing"

	"chatrelay/internal/config"
	"chatrelay/internal/notifications/webhook"
	"chatrelay/internal/types"
)

func testStyle() config.StyleConfig {
	return config.StyleConfig{
		SiteName:           "Example Wiki",
		FooterText:         "Example Wiki activity feed",
		ExperimentalFooter: "CVT feed | #countervandalism",
	}
}

func TestColorFor_KnownKinds(t *testing.T) {
	seen := make(map[int]types.ActionKind)
	for _, kind := range types.KnownActionKinds {
		c := ColorFor(kind)
		if c == colorDefault {
			t.Errorf("kind %s resolved to the default color", kind)
		}
		if prev, dup := seen[c]; dup {
			t.Errorf("kinds %s and %s share color %#x", prev, kind, c)
		}
		seen[c] = kind
	}
}

func TestColorFor_UnknownKindGetsDefault(t *testing.T) {
	if c := ColorFor(types.ActionKind("holographic_merge")); c != colorDefault {
		t.Fatalf("unknown kind: expected default color %#x, got %#x", colorDefault, c)
	}
	if c := ColorFor(types.ActionKind("")); c != colorDefault {
		t.Fatalf("empty kind: expected default color, got %#x", c)
	}
}

func TestBuild_NormalizesBody(t *testing.T) {
	event := types.Event{
		Action:       types.ActionArticleSaved,
		RenderedText: "Alice edited <https://wiki.example/Page|Page>\r\nminor fix",
	}

	msg := Build(event, testStyle())

	want := "Alice edited [Page](https://wiki.example/Page) minor fix"
	if msg.Body != want {
		t.Fatalf("body = %q, want %q", msg.Body, want)
	}
}

func TestBuild_MultipleLinksAndBreaks(t *testing.T) {
	event := types.Event{
		Action:       types.ActionArticleMoved,
		RenderedText: "moved <https://w/a|A>\nto <https://w/b|B>\r\n",
	}

	msg := Build(event, testStyle())

	want := "moved [A](https://w/a) to [B](https://w/b)"
	if msg.Body != want {
		t.Fatalf("body = %q, want %q", msg.Body, want)
	}
}

func TestBuild_DropsEmptyFields(t *testing.T) {
	event := types.Event{
		Action: types.ActionUserBlocked,
		Fields: []types.Field{
			{Name: "Duration", Value: "2 weeks"},
			{Name: "Reason", Value: ""},
			{Name: "Flag", Value: "x"}, // length 1 is kept
		},
	}

	msg := Build(event, testStyle())

	if len(msg.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d: %+v", len(msg.Fields), msg.Fields)
	}
	if msg.Fields[0].Name != "Duration" || msg.Fields[1].Name != "Flag" {
		t.Fatalf("field order not preserved: %+v", msg.Fields)
	}
}

func TestBuild_DisplayName(t *testing.T) {
	event := types.Event{Action: types.ActionArticleSaved, RenderedText: "x"}

	style := testStyle()
	if msg := Build(event, style); msg.DisplayName != "Example Wiki" {
		t.Errorf("expected site name fallback, got %q", msg.DisplayName)
	}

	style.DisplayName = "RC Feed"
	if msg := Build(event, style); msg.DisplayName != "RC Feed" {
		t.Errorf("expected override, got %q", msg.DisplayName)
	}
}

func TestBuild_FooterRules(t *testing.T) {
	standard := types.Event{Action: types.ActionArticleSaved, RenderedText: "x"}
	experimental := types.Event{Action: types.ActionArticleSaved, RenderedText: "x", Experimental: true}

	style := testStyle()
	if msg := Build(standard, style); msg.FooterText != "Example Wiki activity feed" {
		t.Errorf("standard footer missing: %q", msg.FooterText)
	}
	if msg := Build(experimental, style); msg.FooterText != "CVT feed | #countervandalism" {
		t.Errorf("experimental footer wrong: %q", msg.FooterText)
	}

	// The disable flag drops standard footers but never the experimental
	// one -- it identifies the contact channel.
	style.DisableFooter = true
	if msg := Build(standard, style); msg.FooterText != "" {
		t.Errorf("disabled footer still present: %q", msg.FooterText)
	}
	if msg := Build(experimental, style); msg.FooterText != "CVT feed | #countervandalism" {
		t.Errorf("experimental footer must survive the disable flag: %q", msg.FooterText)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	// Building the same event twice yields byte-identical payloads.
	event := types.Event{
		Actor:        types.Actor{Name: "Alice"},
		Action:       types.ActionFileUploaded,
		RenderedText: "Alice uploaded <https://wiki.example/File|File.png>",
		Fields: []types.Field{
			{Name: "Size", Value: "4 KB"},
			{Name: "Comment", Value: "screenshot"},
		},
	}
	style := testStyle()
	style.AvatarURL = "https://wiki.example/logo.png"

	first, err := webhook.Encode(Build(event, style))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, err := webhook.Encode(Build(event, style))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("payloads differ:\n%s\n%s", first, second)
	}
}
