// Package types defines the shared domain model for the chatrelay dispatch
// engine: events, actors, action kinds, outbound messages, and the small
// infrastructure interfaces (Logger, Clock) used across packages.
package types

import "time"

// ActionKind is the closed category of a platform event. Unknown kinds are
// accepted (the color table falls back to a default) but only the values
// below have dedicated visual coding and policy scoping.
type ActionKind string

const (
	ActionArticleSaved      ActionKind = "article_saved"
	ActionArticleInserted   ActionKind = "article_inserted"
	ActionArticleDeleted    ActionKind = "article_deleted"
	ActionArticleMoved      ActionKind = "article_moved"
	ActionArticleProtected  ActionKind = "article_protected"
	ActionNewUserAccount    ActionKind = "new_user_account"
	ActionFileUploaded      ActionKind = "file_uploaded"
	ActionUserBlocked       ActionKind = "user_blocked"
	ActionUserGroupsChanged ActionKind = "user_groups_changed"
	ActionFlow              ActionKind = "flow"
	ActionImportComplete    ActionKind = "import_complete"
)

// KnownActionKinds lists every action kind with dedicated handling, in a
// stable order. Used for validation and for iterating the color table in tests.
var KnownActionKinds = []ActionKind{
	ActionArticleSaved,
	ActionArticleInserted,
	ActionArticleDeleted,
	ActionArticleMoved,
	ActionArticleProtected,
	ActionNewUserAccount,
	ActionFileUploaded,
	ActionUserBlocked,
	ActionUserGroupsChanged,
	ActionFlow,
	ActionImportComplete,
}

// IsKnown reports whether k is one of the enumerated action kinds.
func (k ActionKind) IsKnown() bool {
	for _, known := range KnownActionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Actor is the identity that performed the platform action. Groups and
// Permissions come from the identity collaborator; an anonymous or system
// actor has Registered=false and typically empty group/permission sets.
type Actor struct {
	Name        string
	Registered  bool
	Groups      []string
	Permissions []string
}

// InGroup reports whether the actor belongs to the named group.
func (a Actor) InGroup(group string) bool {
	for _, g := range a.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// HasPermission reports whether the actor holds the named permission.
func (a Actor) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Field is a single name/value pair rendered as an embed field.
// Field order is significant and preserved end to end.
type Field struct {
	Name  string
	Value string
}

// Event is the input unit of the dispatch engine. It is constructed fresh
// per notification, never mutated, and discarded after dispatch completes.
//
// RenderedText is owned by the caller: localization and link formatting
// happen upstream in the event-detection layer.
type Event struct {
	Actor        Actor
	Action       ActionKind
	RenderedText string
	Fields       []Field

	// ExplicitDestination, when set, bypasses normal routing entirely:
	// it becomes the only destination and mirrors are never applied.
	ExplicitDestination string

	// Experimental marks an event offered to the experimental (CVT) feed
	// rather than the standard feed. It selects the experimental policy
	// subtree and the experimental endpoint.
	Experimental bool
}

// OutboundMessage is the rendered artifact produced by the message builder.
// Once built it is immutable; serializing it twice yields identical bytes.
type OutboundMessage struct {
	Color       int
	Body        string
	DisplayName string
	AvatarURL   string
	Fields      []Field
	FooterText  string
}

// DeliveryStatus describes the terminal state of one delivery attempt sequence.
type DeliveryStatus string

const (
	DeliveryStatusSent     DeliveryStatus = "sent"
	DeliveryStatusFailed   DeliveryStatus = "failed"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
	DeliveryStatusSkipped  DeliveryStatus = "skipped"
)

// DeliveryResult tracks the outcome of a single webhook POST.
type DeliveryResult struct {
	Status        DeliveryStatus
	FailureReason string
	Retryable     bool
	// RetryAfter is set when the destination signalled a rate-limit wait
	// via a retry_after value in the response body.
	RetryAfter *time.Duration
}
