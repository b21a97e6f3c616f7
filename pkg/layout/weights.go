package layout

import (
	"slices"

	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
)

// SlotKey identifies a weight slot: a level key and a weight.
type SlotKey struct {
	Level  string
	Weight int
}

// Slots counts the nodes assigned to each weight slot.
type Slots map[SlotKey]int

// Level keys for nodes outside the center region.
const (
	levelKeyLeft   = "left"
	levelKeyApp    = "app"
	levelKeyCenter = "center"
)

type boundaryMode int

const (
	modeNone boundaryMode = iota
	modeNamespace
	modeApp
)

func boundaryModeOf(requests []BoundaryRequest) boundaryMode {
	mode := modeNone
	for _, r := range requests {
		switch r.Kind {
		case BoundaryApp:
			return modeApp
		case BoundaryNamespace:
			mode = modeNamespace
		}
	}
	return mode
}

// AssignWeights gives every non-hidden node a weight and a level key and
// returns the resulting slot table.
//
// The seed weight of a node is the number of distinct nodes it reaches plus
// the number of distinct nodes reaching it. Reserved-world sources get
// [LeftWeight]. With an app boundary a center node takes the minimum seed of
// itself and its direct destinations. With namespace boundaries each namespace
// owns a disjoint band of weights. A slot holds at most [SlotCapacity] nodes;
// further nodes are moved to the next lower free weight.
func AssignWeights(g Graph, order []string, idx *connectivity.Index, requests []BoundaryRequest) Slots {
	visible := make([]string, 0, len(order))
	inView := make(map[string]struct{}, len(order))
	for _, id := range order {
		if n := g[id]; n != nil && !n.IsHidden() {
			visible = append(visible, id)
			inView[id] = struct{}{}
		}
	}

	seeds := make(map[string]int, len(visible))
	for _, id := range visible {
		seeds[id] = reach(id, idx.Destinations, inView) + reach(id, idx.Sources, inView)
	}

	mode := boundaryModeOf(requests)
	var bands map[string]int
	var span int
	if mode == modeNamespace {
		bands, span = namespaceBands(g, visible, requests)
	}

	center := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		if g[id].Placement == PlaceCenter {
			center[id] = struct{}{}
		}
	}

	slots := make(Slots)
	for _, id := range visible {
		n := g[id]
		var w int
		var key string
		switch {
		case n.Placement == PlaceLeft:
			w, key = LeftWeight, levelKeyLeft
		case n.Placement != PlaceCenter:
			w, key = seeds[id], string(n.Placement)
		case mode == modeApp:
			w, key = traverseForWeight(id, 1, idx, seeds, center), levelKeyApp
		case mode == modeNamespace:
			ns := n.Endpoint.Namespace()
			base := bands[ns]
			w, key = base+seeds[id], ns
			if seeds[id] == 0 {
				w = base + span - 1
			}
		default:
			w, key = seeds[id], levelKeyCenter
		}

		for slots[SlotKey{key, w}] >= SlotCapacity {
			w--
		}
		slots[SlotKey{key, w}]++
		n.Weight = &w
		n.LevelKey = key
	}
	return slots
}

// reach counts the distinct nodes reachable from start along next,
// restricted to nodes in view.
func reach(start string, next func(string) []string, inView map[string]struct{}) int {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	count := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range next(cur) {
			if _, ok := inView[nb]; !ok {
				continue
			}
			if _, ok := visited[nb]; ok {
				continue
			}
			visited[nb] = struct{}{}
			count++
			queue = append(queue, nb)
		}
	}
	return count
}

// traverseForWeight returns the minimum seed reachable from start along
// outbound edges within budget hops, restricted to candidates.
func traverseForWeight(start string, budget int, idx *connectivity.Index, seeds map[string]int, candidates map[string]struct{}) int {
	type frame struct {
		id     string
		budget int
	}
	best := seeds[start]
	visited := map[string]struct{}{start: {}}
	stack := []frame{{start, budget}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if w := seeds[top.id]; w < best {
			best = w
		}
		if top.budget <= 0 {
			continue
		}
		for _, dst := range idx.Destinations(top.id) {
			if _, ok := candidates[dst]; !ok {
				continue
			}
			if _, ok := visited[dst]; ok {
				continue
			}
			visited[dst] = struct{}{}
			stack = append(stack, frame{dst, top.budget - 1})
		}
	}
	return best
}

// namespaceBands returns the base weight of every namespace and the band span.
// Requested namespaces come first in request order; the rest follow sorted.
func namespaceBands(g Graph, visible []string, requests []BoundaryRequest) (map[string]int, int) {
	var names []string
	seen := make(map[string]struct{})
	requested := 0
	for _, r := range requests {
		if r.Kind != BoundaryNamespace {
			continue
		}
		requested++
		if _, ok := seen[r.Title]; !ok {
			seen[r.Title] = struct{}{}
			names = append(names, r.Title)
		}
	}
	var rest []string
	for _, id := range visible {
		if g[id].Placement != PlaceCenter {
			continue
		}
		ns := g[id].Endpoint.Namespace()
		if _, ok := seen[ns]; !ok {
			seen[ns] = struct{}{}
			rest = append(rest, ns)
		}
	}
	slices.Sort(rest)
	names = append(names, rest...)

	span := (len(visible) + requested) * 10
	bands := make(map[string]int, len(names))
	for i, ns := range names {
		bands[ns] = span*i + 30
	}
	return bands, span
}
