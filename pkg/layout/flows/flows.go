// Package flows groups the functions of a protocol for display.
//
// Functions are grouped by a title derived from their response descriptor
// (DNS query, HTTP path) or from their name, sorted, filtered by the active
// display toggles and focus, and truncated to a fixed number of visible
// groups. Functions that do not fit are listed separately so a consumer can
// offer a "view all" affordance.
//
// Grouping is a pure function of its inputs: running [Group] twice on the same
// protocol yields identical titles, order and truncation.
package flows

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
)

const (
	// MaxGroups is the number of visible groups kept per protocol.
	MaxGroups = 5
	// DefaultTooManyFunctions is the function count above which hidden and
	// overflowing functions are listed in FilteredFunctions.
	DefaultTooManyFunctions = 5
)

// Kafka APIs that are kept; all other Kafka functions are dropped.
const (
	kafkaFetch   = "fetch"
	kafkaProduce = "produce"
	topicPrefix  = "topic="
)

// Function is a function prepared for display.
type Function struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	// Hidden is set when the function is filtered out by the display toggles
	// or the focus.
	Hidden                bool     `json:"hidden,omitempty"`
	AllowedSources        []string `json:"allowedSources,omitempty"`
	VisibleAllowedSources []string `json:"visibleAllowedSources,omitempty"`
}

// Group is a run of functions sharing a title. Untitled functions form
// single-function groups keyed by the function id.
type Group struct {
	Key       string     `json:"key"`
	Title     string     `json:"title,omitempty"`
	Functions []Function `json:"functions"`
}

// ProtocolFunctions is the grouped display model of one protocol.
type ProtocolFunctions struct {
	ProtocolID            string     `json:"protocolId"`
	L4                    string     `json:"l4,omitempty"`
	L7                    string     `json:"l7,omitempty"`
	Port                  int        `json:"port,omitempty"`
	VisibleAllowedSources []string   `json:"visibleAllowedSources,omitempty"`
	Groups                []Group    `json:"groups,omitempty"`
	VisibleGroups         []Group    `json:"visibleGroups,omitempty"`
	FilteredFunctions     []Function `json:"filteredFunctions,omitempty"`
}

// HasHidden reports whether any function of the protocol is hidden.
func (p *ProtocolFunctions) HasHidden() bool {
	for _, g := range p.Groups {
		for _, f := range g.Functions {
			if f.Hidden {
				return true
			}
		}
	}
	return false
}

// SourcePredicate reports whether traffic from src is shown on the protocol's
// endpoint.
type SourcePredicate func(src string) bool

// Options controls grouping.
type Options struct {
	// ShowL7Traffic shows individual functions; when false every function
	// is hidden.
	ShowL7Traffic bool
	// TooManyFunctions is the threshold above which non-visible functions
	// are listed. Zero means DefaultTooManyFunctions.
	TooManyFunctions int
	// Source filters allowed sources. Nil keeps every source.
	Source SourcePredicate
}

// GroupProtocol builds the display model of protocol p on endpoint endpointID.
func GroupProtocol(endpointID string, p *endpoint.Protocol, idx *connectivity.Index, opts Options) ProtocolFunctions {
	tooMany := opts.TooManyFunctions
	if tooMany <= 0 {
		tooMany = DefaultTooManyFunctions
	}
	focusActive := !idx.Focus().Empty()

	pf := ProtocolFunctions{
		ProtocolID:            p.ID,
		L4:                    p.L4,
		L7:                    p.L7,
		Port:                  p.Port,
		VisibleAllowedSources: visibleSources(p.AllowedSources, opts.Source),
	}

	fns := make([]Function, 0, len(p.Functions))
	for _, f := range p.Functions {
		title, keep := titleOf(p, &f)
		if !keep {
			continue
		}
		hidden := !opts.ShowL7Traffic ||
			(focusActive && !idx.Function(endpointID, p.ID, f.ID).Filtered)
		fns = append(fns, Function{
			ID:                    f.ID,
			Name:                  f.Name,
			Title:                 title,
			Hidden:                hidden,
			AllowedSources:        f.AllowedSources,
			VisibleAllowedSources: visibleSources(f.AllowedSources, opts.Source),
		})
	}

	sortFunctions(fns)
	pf.Groups = groupByTitle(fns)
	pf.VisibleGroups = visibleGroups(pf.Groups)

	if len(fns) > tooMany {
		shown := make(map[string]struct{})
		for _, g := range pf.VisibleGroups {
			for _, f := range g.Functions {
				shown[f.ID] = struct{}{}
			}
		}
		for _, f := range fns {
			if _, ok := shown[f.ID]; !ok {
				pf.FilteredFunctions = append(pf.FilteredFunctions, f)
			}
		}
	}
	return pf
}

// titleOf derives the group title of a function. keep is false for Kafka
// functions other than fetch and produce.
func titleOf(p *endpoint.Protocol, f *endpoint.Function) (title string, keep bool) {
	if p.IsKafka() {
		fields := strings.Fields(f.Name)
		if len(fields) == 0 {
			return "", false
		}
		api := strings.ToLower(fields[0])
		if api != kafkaFetch && api != kafkaProduce {
			return "", false
		}
		if len(fields) > 1 {
			title = strings.TrimPrefix(fields[1], topicPrefix)
		}
		return title, true
	}
	if t := f.Title(); t != "" {
		return t, true
	}
	_, tail, _ := strings.Cut(strings.TrimSpace(f.Name), " ")
	return strings.TrimSpace(tail), true
}

// Normalize case-folds s and strips everything but letters and digits.
func Normalize(s string) string {
	return normalize(cases.Fold(), s)
}

// normalize takes the caser as an argument; a Caser is stateful and must not
// be shared between goroutines.
func normalize(fold cases.Caser, s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, fold.String(s))
}

func sortFunctions(fns []Function) {
	fold := cases.Fold()
	type sortKey struct{ title, name string }
	keys := make(map[string]sortKey, len(fns))
	for _, f := range fns {
		keys[f.ID] = sortKey{normalize(fold, f.Title), normalize(fold, f.Name)}
	}
	slices.SortStableFunc(fns, func(a, b Function) int {
		ka, kb := keys[a.ID], keys[b.ID]
		if c := strings.Compare(ka.title, kb.title); c != 0 {
			return c
		}
		if c := strings.Compare(ka.name, kb.name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func groupByTitle(fns []Function) []Group {
	var groups []Group
	byTitle := make(map[string]int)
	for _, f := range fns {
		if f.Title == "" {
			groups = append(groups, Group{Key: f.ID, Functions: []Function{f}})
			continue
		}
		if i, ok := byTitle[f.Title]; ok {
			groups[i].Functions = append(groups[i].Functions, f)
			continue
		}
		byTitle[f.Title] = len(groups)
		groups = append(groups, Group{Key: f.Title, Title: f.Title, Functions: []Function{f}})
	}
	return groups
}

func visibleGroups(groups []Group) []Group {
	var out []Group
	for _, g := range groups {
		if len(out) == MaxGroups {
			break
		}
		var fns []Function
		for _, f := range g.Functions {
			if !f.Hidden {
				fns = append(fns, f)
			}
		}
		if len(fns) == 0 {
			continue
		}
		out = append(out, Group{Key: g.Key, Title: g.Title, Functions: fns})
	}
	return out
}

// visibleSources keeps the sources accepted by pred, dropping duplicates.
func visibleSources(sources []string, pred SourcePredicate) []string {
	var out []string
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if pred == nil || pred(s) {
			out = append(out, s)
		}
	}
	return out
}
