// Package route computes the destination endpoint set for a notification.
// Resolution is recomputed per notification from the live routing
// configuration; nothing here is cached across calls.
package route

import (
	"chatrelay/internal/config"
	"chatrelay/internal/types"
)

// DestinationSet is the resolved list of endpoint URLs for one notification.
type DestinationSet struct {
	Primary string
	Mirrors []string
}

// All returns the primary followed by the mirrors.
func (d DestinationSet) All() []string {
	out := make([]string, 0, 1+len(d.Mirrors))
	out = append(out, d.Primary)
	out = append(out, d.Mirrors...)
	return out
}

// Resolve computes the destinations for an event.
//
// An explicit destination override is the only destination -- mirrors are
// never applied alongside it. Overrides exist precisely to steer specific
// traffic away from the general-purpose channel and its copies.
//
// Experimental events go to the experimental endpoint (primary when none is
// configured) and reach mirrors only when MirrorExperimental is set.
//
// Standard events go to the per-action alternate endpoint when one is
// configured for the event's action kind, else the primary, plus every
// configured mirror.
func Resolve(event types.Event, primaryURL string, routing config.RoutingConfig) DestinationSet {
	if event.ExplicitDestination != "" {
		return DestinationSet{Primary: event.ExplicitDestination}
	}

	if event.Experimental {
		primary := routing.ExperimentalURL
		if primary == "" {
			primary = primaryURL
		}
		set := DestinationSet{Primary: primary}
		if routing.MirrorExperimental {
			set.Mirrors = mirrorsExcluding(routing.Mirrors, primary)
		}
		return set
	}

	primary := primaryURL
	if alt, ok := routing.Actions[event.Action]; ok && alt != "" {
		primary = alt
	}

	return DestinationSet{
		Primary: primary,
		Mirrors: mirrorsExcluding(routing.Mirrors, primary),
	}
}

// mirrorsExcluding copies the mirror list, dropping empty entries and any
// mirror identical to the primary so a destination is never posted twice.
func mirrorsExcluding(mirrors []string, primary string) []string {
	var out []string
	for _, m := range mirrors {
		if m == "" || m == primary {
			continue
		}
		out = append(out, m)
	}
	return out
}
