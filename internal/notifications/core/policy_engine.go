package core

import (
	"fmt"

	"chatrelay/internal/config"
	"chatrelay/internal/types"
)

// PolicyEngine evaluates the layered exclusion policy. It is stateless and
// side-effect free: identical inputs always yield identical results, and it
// performs no I/O, so it runs before any rendering work.
type PolicyEngine struct{}

// NewPolicyEngine creates a PolicyEngine.
func NewPolicyEngine() *PolicyEngine {
	return &PolicyEngine{}
}

// Evaluate decides whether a notification for the given actor and action is
// suppressed.
//
// The layers are evaluated as an ordered short-circuit OR -- the first
// matching rule suppresses:
//
//  1. Global rules (groups, permissions, users) apply to every event,
//     experimental or not.
//  2. Experimental events then consult only the experimental subtree: its
//     global rules, then its per-action rules. Scoped rules outside the
//     experimental subtree never apply to experimental events.
//  3. Standard events instead consult the per-action scoped rules.
//
// There is no precedence between group and permission matches; either alone
// is sufficient. Absence of a key at any level means "no restriction at that
// level". A nil policy restricts nothing.
func (e *PolicyEngine) Evaluate(actor types.Actor, action types.ActionKind, experimental bool, policy *config.ExclusionPolicy) PolicyResult {
	if policy == nil {
		return PolicyResult{Decision: PolicyDeliver}
	}

	if reason, ok := ruleSetMatches(actor, policy.Global); ok {
		return PolicyResult{
			Decision: PolicySuppress,
			Reason:   reason,
			Layer:    "global",
		}
	}

	if experimental {
		if reason, ok := ruleSetMatches(actor, policy.Experimental.Global); ok {
			return PolicyResult{
				Decision: PolicySuppress,
				Reason:   reason,
				Layer:    "experimental_global",
			}
		}
		if reason, ok := ruleSetMatches(actor, policy.Experimental.Actions[action]); ok {
			return PolicyResult{
				Decision: PolicySuppress,
				Reason:   reason,
				Layer:    "experimental_action",
			}
		}
		return PolicyResult{Decision: PolicyDeliver}
	}

	if reason, ok := ruleSetMatches(actor, policy.Actions[action]); ok {
		return PolicyResult{
			Decision: PolicySuppress,
			Reason:   reason,
			Layer:    "action",
		}
	}

	return PolicyResult{Decision: PolicyDeliver}
}

// ruleSetMatches applies one layer of rules to the actor. An actor with no
// groups and no permissions (a logged-out caller performing a system action)
// can still match a users rule by exact name.
func ruleSetMatches(actor types.Actor, rules config.RuleSet) (string, bool) {
	for _, p := range rules.Permissions {
		if actor.HasPermission(p) {
			return fmt.Sprintf("actor holds excluded permission %q", p), true
		}
	}
	for _, g := range rules.Groups {
		if actor.InGroup(g) {
			return fmt.Sprintf("actor in excluded group %q", g), true
		}
	}
	for _, u := range rules.Users {
		if actor.Name == u {
			return fmt.Sprintf("actor %q is excluded by name", u), true
		}
	}
	return "", false
}
