// Package layout computes the geometry of a service-dependency map.
//
// # Overview
//
// [Build] is a pure function from endpoints and [Options] to a positioned
// [Graph] and its [Meta]. It holds no state between calls, performs no I/O
// and uses stable sorts everywhere, so identical inputs produce identical
// positions and connector maps.
//
// # Pipeline
//
// Build runs these stages once, leaves first:
//
//  1. Connectivity indexing ([connectivity.Build]) classifies every endpoint,
//     protocol and function by direction, outside status and focus.
//  2. [SelectEndpoints] filters and sorts the displayed endpoints.
//  3. Node building groups each protocol's functions ([flows.GroupProtocol]).
//  4. [MapVisibility] marks nodes outside the focus as fogged or hidden.
//  5. [SizeContent] computes heights and internal anchors in one walk.
//  6. [AssignWeights] seeds weights from reachability and resolves slot
//     collisions.
//  7. Level layout places center nodes in columns by descending weight, packs
//     outside nodes above and below, and reorders levels right to left.
//  8. [RouteConnectors] spaces the connector points of every node.
//  9. [CalcBoundaries] draws namespace and app boxes around center nodes.
//
// # Regions
//
// Every node has a [Placement]. Reserved-world sources are left nodes with a
// fixed [LeftWeight], so they form the leftmost level. Outside endpoints that
// only send are packed above the center; all other outside endpoints are
// packed below it. In-app endpoints form the leveled center.
//
// # Hidden Nodes
//
// Hidden nodes stay in the graph with [Hidden] visibility, zero geometry and a
// nil weight. They never receive connectors, levels or boundary membership.
//
// # Example
//
//	res := layout.Build(endpoints, layout.Options{
//	    Display:    layout.DefaultDisplayFilters(),
//	    Boundaries: []layout.BoundaryRequest{{Kind: layout.BoundaryApp, Title: "shop"}},
//	})
//	for _, n := range res.Nodes() {
//	    fmt.Println(n.ID(), n.X, n.Y)
//	}
package layout
