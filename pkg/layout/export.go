package layout

import (
	"slices"
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

// Export converts the result to its serialization format. Hidden nodes are
// omitted; connectors are listed left side first, each side sorted by source.
func (r *Result) Export() graph.Layout {
	out := graph.Layout{
		Version: graph.FormatVersion,
		Width:   r.Meta.Width,
		Height:  r.Meta.Height,
		Nodes:   make([]graph.Node, 0, len(r.Order)),
	}
	for _, n := range r.Nodes() {
		if n.IsHidden() {
			continue
		}
		out.Nodes = append(out.Nodes, exportNode(n))
	}
	for _, e := range r.Edges {
		out.Edges = append(out.Edges, graph.Edge{From: e.Source, To: e.Destination, Aggregated: e.Aggregated})
	}
	for _, b := range r.Meta.Boundaries {
		out.Boundaries = append(out.Boundaries, graph.Boundary{
			Kind: string(b.Kind), Title: b.Title,
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		})
	}
	return out
}

func exportNode(n *Node) graph.Node {
	e := n.Endpoint
	gn := graph.Node{
		ID:             e.ID,
		Label:          e.DisplayName(),
		Namespace:      e.Namespace(),
		Type:           string(e.Type),
		X:              n.X,
		Y:              n.Y,
		Width:          n.Width,
		Height:         n.Height,
		Weight:         n.Weight,
		Level:          n.Level,
		Row:            n.Row,
		Placement:      string(n.Placement),
		Visibility:     string(n.Visibility),
		Outside:        n.Connection.Outside,
		ConnectionType: string(n.Connection.Type),
		FlowsFiltered:  n.FlowsFiltered,
	}
	for _, l := range e.VisibleLabels() {
		gn.Labels = append(gn.Labels, graph.Label{Key: l.Key, Value: l.Value})
	}

	for _, p := range n.Protocols {
		gp := graph.Protocol{
			ID:     p.ProtocolID,
			L4:     p.L4,
			L7:     p.L7,
			Port:   p.Port,
			Anchor: toPoint(n.ProtocolAnchors[p.ProtocolID]),
		}
		for _, grp := range p.VisibleGroups {
			gg := graph.Group{Key: grp.Key, Title: grp.Title}
			if a, ok := n.GroupAnchors[AnchorKey(p.ProtocolID, grp.Key)]; ok {
				pt := toPoint(a)
				gg.Anchor = &pt
			}
			for _, f := range grp.Functions {
				gg.Functions = append(gg.Functions, graph.Function{
					ID:     f.ID,
					Name:   f.Name,
					Anchor: toPoint(n.FunctionAnchors[AnchorKey(p.ProtocolID, f.ID)]),
				})
			}
			gp.Groups = append(gp.Groups, gg)
		}
		if a, ok := n.MoreAnchors[p.ProtocolID]; ok {
			pt := toPoint(a)
			gp.More = &pt
			gp.MoreCount = len(p.FilteredFunctions)
		}
		gn.Protocols = append(gn.Protocols, gp)
	}

	gn.Connectors = append(connectorList(n.Connectors, graph.SideLeft), connectorList(n.RightConnectors, graph.SideRight)...)
	return gn
}

func connectorList(m map[string]Point, side string) []graph.Connector {
	out := make([]graph.Connector, 0, len(m))
	for src, p := range m {
		out = append(out, graph.Connector{Source: src, Side: side, X: p.X, Y: p.Y})
	}
	slices.SortFunc(out, func(a, b graph.Connector) int { return strings.Compare(a.Source, b.Source) })
	return out
}

func toPoint(p Point) graph.Point { return graph.Point{X: p.X, Y: p.Y} }
