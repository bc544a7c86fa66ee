// Package subgraph expands contributed subcomponents round by round until no
// merge target gains a new one.
package subgraph

import (
	"fmt"
	"sort"

	"github.com/sghaida/odimerge/internal/decl"
	"github.com/sghaida/odimerge/internal/resolve"
)

// Event is the generation of one contributed subcomponent for one merge
// target.
type Event struct {
	Trigger  decl.ClassID
	Original decl.ClassID
}

func (e Event) String() string { return fmt.Sprintf("%s -> %s", e.Trigger, e.Original) }

// EventOf returns the event a resolved subcomponent stands for.
func EventOf(spec resolve.SubcomponentSpec) Event {
	return Event{Trigger: spec.Parent, Original: spec.Original}
}

// Pending returns the subcomponents of sets that have not been processed,
// ordered by trigger and then by original. It has no side effects; both
// drivers decide whether to run another round with it.
func Pending(sets []*resolve.ResolvedBindingSet, processed map[Event]bool) []resolve.SubcomponentSpec {
	var out []resolve.SubcomponentSpec
	seen := map[Event]bool{}
	for _, set := range sets {
		for _, spec := range set.Subcomponents {
			ev := EventOf(spec)
			if processed[ev] || seen[ev] {
				continue
			}
			seen[ev] = true
			out = append(out, spec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := EventOf(out[i]), EventOf(out[j])
		if a.Trigger != b.Trigger {
			return a.Trigger.Less(b.Trigger)
		}
		return a.Original.Less(b.Original)
	})
	return out
}
