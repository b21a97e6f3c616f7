package layout

import (
	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
	"github.com/matzehuels/flowmap/pkg/layout/flows"
)

// buildNodes creates one node per selected endpoint with its grouped
// protocols. The returned order follows selected.
func buildNodes(selected []*endpoint.Endpoint, idx *connectivity.Index, opts Options) (Graph, []string) {
	g := make(Graph, len(selected))
	order := make([]string, 0, len(selected))
	for _, e := range selected {
		g[e.ID] = &Node{Endpoint: e, Visibility: Visible}
	}

	for _, e := range selected {
		n := g[e.ID]
		n.Connection = idx.Endpoint(e.ID)
		n.Placement = placementOf(e, n.Connection)

		dst := e.ID
		source := func(src string) bool {
			if src == dst {
				return false
			}
			if _, ok := g[src]; !ok {
				return false
			}
			return trafficShown(idx.Endpoint(src).Outside, n.Connection.Outside, opts.Display) &&
				idx.EdgeMatches(src, dst)
		}
		fopts := flows.Options{
			ShowL7Traffic:    opts.Display.ShowL7Traffic,
			TooManyFunctions: opts.TooManyFunctions,
			Source:           source,
		}
		for i := range e.Protocols {
			pf := flows.GroupProtocol(e.ID, &e.Protocols[i], idx, fopts)
			if pf.HasHidden() {
				n.FlowsFiltered = true
			}
			n.Protocols = append(n.Protocols, pf)
		}
		order = append(order, e.ID)
	}
	return g, order
}

// trafficShown applies the ingress, egress and intra-app toggles to an edge
// classified by whether its ends are outside the app.
func trafficShown(srcOutside, dstOutside bool, d DisplayFilters) bool {
	switch {
	case srcOutside && !dstOutside:
		return d.ShowIngress
	case !srcOutside && dstOutside:
		return d.ShowEgress
	case !srcOutside && !dstOutside:
		return d.ShowIntraApp
	}
	return d.ShowIngress || d.ShowEgress
}

// placementOf decides the layout region: reserved-world sources go left,
// outside endpoints that only send go on top, all other outside endpoints go
// to the bottom, and in-app endpoints form the center.
func placementOf(e *endpoint.Endpoint, c connectivity.Connection) Placement {
	switch {
	case e.IsLeft():
		return PlaceLeft
	case !c.Outside:
		return PlaceCenter
	case c.From && !c.To:
		return PlaceTop
	}
	return PlaceBottom
}
