package layout

import (
	"math"
	"slices"
	"strings"
)

// CalcBoundaries computes the requested boundary boxes from the final node
// positions. An app request yields one box over all laid-out center nodes; a
// namespace request yields one box per distinct namespace among them, sorted
// by title. Width and height are never negative.
func CalcBoundaries(g Graph, order []string, requests []BoundaryRequest) []Boundary {
	var center []*Node
	for _, id := range order {
		if n := g[id]; !n.IsHidden() && n.Placement == PlaceCenter {
			center = append(center, n)
		}
	}
	if len(center) == 0 {
		return nil
	}

	var out []Boundary
	wantApp, wantNamespaces := false, false
	appTitle := ""
	for _, r := range requests {
		switch r.Kind {
		case BoundaryApp:
			if !wantApp {
				appTitle = r.Title
			}
			wantApp = true
		case BoundaryNamespace:
			wantNamespaces = true
		}
	}

	if wantApp {
		out = append(out, boxOf(BoundaryApp, appTitle, center))
	}
	if wantNamespaces {
		byNS := make(map[string][]*Node)
		var names []string
		for _, n := range center {
			ns := n.Endpoint.Namespace()
			if ns == "" {
				continue
			}
			if _, ok := byNS[ns]; !ok {
				names = append(names, ns)
			}
			byNS[ns] = append(byNS[ns], n)
		}
		slices.SortFunc(names, strings.Compare)
		for _, ns := range names {
			out = append(out, boxOf(BoundaryNamespace, ns, byNS[ns]))
		}
	}
	return out
}

func boxOf(kind BoundaryKind, title string, nodes []*Node) Boundary {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxBottom := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX, minY = min(minX, n.X), min(minY, n.Y)
		maxX, maxBottom = max(maxX, n.X), max(maxBottom, n.Y+n.Height)
	}
	return Boundary{
		Kind:   kind,
		Title:  title,
		X:      minX,
		Y:      minY,
		Width:  max(0, maxX-minX+NodeWidth),
		Height: max(0, maxBottom-minY),
	}
}
