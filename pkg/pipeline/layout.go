package pipeline

import (
	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/layout"
)

// ComputeLayout runs the layout engine and exports its result. It never
// touches the cache.
func ComputeLayout(endpoints []endpoint.Endpoint, opts Options) graph.Layout {
	res := layout.Build(endpoints, opts.LayoutOptions())
	return res.Export()
}
