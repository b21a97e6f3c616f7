// Package render groups the output renderers for computed layouts.
//
// The layout engine never paints: it produces positions, anchors and
// connector points. Renderers turn a serialized [graph.Layout] into
// something to look at. The [nodelink] subpackage draws a Graphviz
// node-link diagram with every node pinned at its computed position.
//
//	l := res.Export()
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(l, nodelink.Options{}))
//
// [graph.Layout]: github.com/matzehuels/flowmap/pkg/graph.Layout
// [nodelink]: github.com/matzehuels/flowmap/pkg/render/nodelink
package render
