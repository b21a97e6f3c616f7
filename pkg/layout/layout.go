package layout

import (
	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
)

// Build computes the layout of endpoints under opts.
//
// Build runs every stage exactly once: connectivity indexing, endpoint
// selection, node model building, visibility mapping, content sizing, weight
// assignment, level layout, connector routing and boundary calculation. It
// never fails: references to unknown or hidden endpoints are skipped and an
// empty input yields an empty graph with zero-sized meta. Build does not
// modify endpoints.
func Build(endpoints []endpoint.Endpoint, opts Options) Result {
	idx := connectivity.Build(endpoints, opts.Focus)
	selected := SelectEndpoints(endpoints, idx, opts)

	g, order := buildNodes(selected, idx, opts)
	MapVisibility(g, idx, opts.Focus, opts.FocusVisibility)
	for _, id := range order {
		SizeContent(g[id])
	}

	slots := AssignWeights(g, order, idx, opts.Boundaries)
	width, height := layoutNodes(g, order, idx, opts)
	RouteConnectors(g, order, idx, opts)

	return Result{
		Graph: g,
		Meta: Meta{
			Width:      width,
			Height:     height,
			Boundaries: CalcBoundaries(g, order, opts.Boundaries),
		},
		Edges: collectEdges(g, order, idx, opts),
		Order: order,
		Slots: slots,
	}
}
