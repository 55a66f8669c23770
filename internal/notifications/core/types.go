// Package core provides the shared notification infrastructure used by the
// dispatch engine: the exclusion-policy evaluator and delivery telemetry.
package core

// PolicyDecision represents the outcome of a policy evaluation.
type PolicyDecision string

const (
	// PolicyDeliver indicates the notification should be dispatched.
	PolicyDeliver PolicyDecision = "deliver"

	// PolicySuppress indicates the notification must not be sent.
	PolicySuppress PolicyDecision = "suppress"
)

// PolicyResult contains the outcome and diagnostics from a policy evaluation.
// Reason is a human-readable description of the first matching rule; it is
// used for logging and metrics labels, never for control flow.
type PolicyResult struct {
	Decision PolicyDecision
	Reason   string

	// Layer names the policy layer that matched: "global",
	// "experimental_global", "experimental_action", or "action".
	// Empty when the decision is PolicyDeliver.
	Layer string
}

// Suppressed is a convenience accessor.
func (r PolicyResult) Suppressed() bool {
	return r.Decision == PolicySuppress
}
