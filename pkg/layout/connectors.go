package layout

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
)

// RouteConnectors computes, for every laid-out node, the border point where
// each visible allowed source terminates.
//
// Sources at or left of the node end on its left edge (Connectors), the others
// on its right edge (RightConnectors). Each point starts at the midpoint of
// the anchors the source reaches, then neighbours closer than one function
// row are pushed apart and the set is re-centered on its original span.
func RouteConnectors(g Graph, order []string, idx *connectivity.Index, opts Options) {
	skip := aggregationSkip(idx, opts)
	for _, id := range order {
		n := g[id]
		if n.IsHidden() {
			continue
		}
		targets, sources := sourceTargets(n, g, skip)

		var left, right []connectorPoint
		for _, src := range sources {
			p := connectorPoint{id: src, y: n.Y + targets[src]}
			if g[src].X <= n.X {
				left = append(left, p)
			} else {
				right = append(right, p)
			}
		}

		n.Connectors = make(map[string]Point, len(left))
		for _, p := range spread(left) {
			n.Connectors[p.id] = Point{X: n.X, Y: p.y}
		}
		n.RightConnectors = make(map[string]Point, len(right))
		for _, p := range spread(right) {
			n.RightConnectors[p.id] = Point{X: n.X + n.Width, Y: p.y}
		}
	}
}

type connectorPoint struct {
	id string
	y  float64
}

// spread sorts points by y (ties by id), pushes neighbours closer than one
// function row apart symmetrically in a single pass, and re-centers the set
// on the original span.
func spread(points []connectorPoint) []connectorPoint {
	if len(points) < 2 {
		return points
	}
	slices.SortStableFunc(points, func(a, b connectorPoint) int {
		if c := cmp.Compare(a.y, b.y); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
	origMin, origMax := points[0].y, points[len(points)-1].y

	for i := 1; i < len(points); i++ {
		if gap := points[i].y - points[i-1].y; gap < FunctionRowHeight {
			d := (FunctionRowHeight - gap) / 2
			points[i-1].y -= d
			points[i].y += d
		}
	}

	newMin, newMax := points[0].y, points[0].y
	for _, p := range points[1:] {
		newMin, newMax = min(newMin, p.y), max(newMax, p.y)
	}
	delta := (origMin+origMax)/2 - (newMin+newMax)/2
	for i := range points {
		points[i].y += delta
	}
	return points
}

// aggregationSkip returns the predicate for sources whose connectors are
// aggregated away: many-ingress sources when no focus is active and
// many-ingress aggregation is on.
func aggregationSkip(idx *connectivity.Index, opts Options) func(string) bool {
	if !idx.Focus().Empty() || !opts.Display.AggregateManyIngress {
		return func(string) bool { return false }
	}
	return func(src string) bool {
		return idx.Endpoint(src).Type == connectivity.TypeManyIngressToApp
	}
}

// sourceTargets returns, for every eligible source of n, the midpoint of the
// protocol, function and "more" anchors it reaches, relative to n's top. The
// slice lists the sources in first-seen order.
func sourceTargets(n *Node, g Graph, skip func(string) bool) (map[string]float64, []string) {
	lo := make(map[string]float64)
	hi := make(map[string]float64)
	var sources []string
	add := func(src string, y float64) {
		s := g[src]
		if s == nil || s.IsHidden() || skip(src) {
			return
		}
		if _, ok := lo[src]; !ok {
			lo[src], hi[src] = y, y
			sources = append(sources, src)
			return
		}
		lo[src], hi[src] = min(lo[src], y), max(hi[src], y)
	}

	for _, p := range n.Protocols {
		if a, ok := n.ProtocolAnchors[p.ProtocolID]; ok {
			for _, src := range p.VisibleAllowedSources {
				add(src, a.Y)
			}
		}
		for _, grp := range p.VisibleGroups {
			for _, f := range grp.Functions {
				a, ok := n.FunctionAnchors[AnchorKey(p.ProtocolID, f.ID)]
				if !ok {
					continue
				}
				for _, src := range f.VisibleAllowedSources {
					add(src, a.Y)
				}
			}
		}
		if a, ok := n.MoreAnchors[p.ProtocolID]; ok {
			for _, f := range p.FilteredFunctions {
				for _, src := range f.VisibleAllowedSources {
					add(src, a.Y)
				}
			}
		}
	}

	targets := make(map[string]float64, len(sources))
	for _, src := range sources {
		targets[src] = (lo[src] + hi[src]) / 2
	}
	return targets, sources
}

// collectEdges lists the relationships a renderer draws, one per laid-out
// node and visible source, in node order.
func collectEdges(g Graph, order []string, idx *connectivity.Index, opts Options) []Edge {
	noSkip := func(string) bool { return false }
	ingress := aggregationSkip(idx, opts)
	egress := func(dst string) bool {
		return idx.Focus().Empty() && opts.Display.AggregateManyEgress &&
			idx.Endpoint(dst).Type == connectivity.TypeManyEgressFromApp
	}

	var edges []Edge
	for _, id := range order {
		n := g[id]
		if n.IsHidden() {
			continue
		}
		_, sources := sourceTargets(n, g, noSkip)
		for _, src := range sources {
			edges = append(edges, Edge{
				Source:      src,
				Destination: id,
				Aggregated:  ingress(src) || egress(id),
			})
		}
	}
	return edges
}
