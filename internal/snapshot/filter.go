// Package snapshot selects the services the tray shows and detects changes
// between two observations of them.
package snapshot

import (
	"regexp"

	"github.com/rescale/svctray/internal/service"
)

// Filter selects services by name or display name. A nil pattern matches
// nothing, so a zero Filter selects no services. Callers guarantee that at
// least one pattern is set before first use.
type Filter struct {
	DisplayName *regexp.Regexp
	Name        *regexp.Regexp
}

// Matches reports whether either pattern matches its field of r.
func (f Filter) Matches(r service.Record) bool {
	if f.DisplayName != nil && f.DisplayName.MatchString(r.DisplayName) {
		return true
	}
	return f.Name != nil && f.Name.MatchString(r.Name)
}

// Match returns the matched services in source order. The result is never
// nil, so an empty match is distinguishable from "no snapshot yet".
func Match(all []service.Record, f Filter) Snapshot {
	matched := make(Snapshot, 0, len(all))
	for _, r := range all {
		if f.Matches(r) {
			matched = append(matched, r)
		}
	}
	return matched
}
