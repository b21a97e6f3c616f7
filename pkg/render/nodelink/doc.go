// Package nodelink renders computed layouts as Graphviz node-link diagrams.
//
// # Overview
//
// The diagram is a debugging view of a serialized layout: every node is a box
// pinned at its computed position and every displayed relationship is an
// arrow. Graphviz (neato) only routes the edges, so what you see is exactly
// what the layout engine produced.
//
// # Usage
//
//	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Render] also produces PNG, or returns the DOT source itself for
// processing with external Graphviz tools.
//
// # Styling
//
// Fogged nodes are dashed and grey, outside endpoints are tinted, and
// aggregated fan edges are dotted. With [Options.Boundaries] the namespace and
// app boxes are drawn as dashed frames.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
package nodelink
