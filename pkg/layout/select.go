package layout

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
)

// SelectEndpoints filters endpoints down to the displayed set and sorts it by
// case-folded display name, ties broken by id.
//
// Host and world endpoints are dropped unless enabled by the display filters.
// When a focus is active and boundaries are requested, only endpoints in the
// focus match set are kept, plus outside sources (with ShowIngress) and
// outside destinations (with ShowEgress).
func SelectEndpoints(endpoints []endpoint.Endpoint, idx *connectivity.Index, opts Options) []*endpoint.Endpoint {
	narrow := !opts.Focus.Empty() && len(opts.Boundaries) > 0
	seen := make(map[string]struct{}, len(endpoints))

	var out []*endpoint.Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}

		if e.IsHost() && !opts.Display.ShowHost {
			continue
		}
		if e.IsWorld() && !opts.Display.ShowWorld {
			continue
		}
		if narrow {
			c := idx.Endpoint(e.ID)
			keep := c.Filtered ||
				(c.Outside && c.From && opts.Display.ShowIngress) ||
				(c.Outside && c.To && opts.Display.ShowEgress)
			if !keep {
				continue
			}
		}
		out = append(out, e)
	}

	fold := cases.Fold()
	names := make(map[string]string, len(out))
	for _, e := range out {
		names[e.ID] = fold.String(e.DisplayName())
	}
	slices.SortStableFunc(out, func(a, b *endpoint.Endpoint) int {
		if c := strings.Compare(names[a.ID], names[b.ID]); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
