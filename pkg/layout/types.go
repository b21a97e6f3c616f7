package layout

import (
	"github.com/matzehuels/flowmap/pkg/endpoint"
	"github.com/matzehuels/flowmap/pkg/layout/connectivity"
	"github.com/matzehuels/flowmap/pkg/layout/flows"
)

// =============================================================================
// Geometry Constants
// =============================================================================

const (
	NodeWidth         = 300.0
	HorizontalPadding = 150.0
	VerticalPadding   = 40.0

	HeaderHeight         = 48.0
	IndicatorHeight      = 20.0
	LabelsPadding        = 12.0
	LabelRowHeight       = 18.0
	LabelRowMargin       = 4.0
	FlowsFilteredHeight  = 23.0
	FirstProtocolOffset  = 8.0
	ProtocolHeaderHeight = 36.0
	FunctionRowHeight    = 28.0
	MoreHeight           = 30.0
)

const (
	// LeftWeight places reserved-world sources in their own leftmost level.
	LeftWeight = 1 << 30
	// SlotCapacity is the number of nodes that may share one weight slot.
	SlotCapacity = 4
)

// =============================================================================
// Filters and Requests
// =============================================================================

// FocusFilter narrows which relationships are in focus.
type FocusFilter = connectivity.Focus

// DisplayFilters toggles which traffic kinds and reserved endpoints are shown.
// The zero value shows no traffic at all; start from [DefaultDisplayFilters].
type DisplayFilters struct {
	ShowIngress          bool `json:"showIngress" toml:"show_ingress"`
	ShowEgress           bool `json:"showEgress" toml:"show_egress"`
	ShowIntraApp         bool `json:"showIntraApp" toml:"show_intra_app"`
	ShowL7Traffic        bool `json:"showL7Traffic" toml:"show_l7_traffic"`
	AggregateManyIngress bool `json:"aggregateManyIngress" toml:"aggregate_many_ingress"`
	AggregateManyEgress  bool `json:"aggregateManyEgress" toml:"aggregate_many_egress"`
	ShowHost             bool `json:"showHost" toml:"show_host"`
	ShowWorld            bool `json:"showWorld" toml:"show_world"`
}

// DefaultDisplayFilters shows every traffic kind with aggregation enabled and
// hides the host and world endpoints.
func DefaultDisplayFilters() DisplayFilters {
	return DisplayFilters{
		ShowIngress:          true,
		ShowEgress:           true,
		ShowIntraApp:         true,
		ShowL7Traffic:        true,
		AggregateManyIngress: true,
		AggregateManyEgress:  true,
	}
}

// Visibility is the render state of a node.
type Visibility string

const (
	Visible Visibility = "visible"
	Fogged  Visibility = "fogged"
	Hidden  Visibility = "hidden"
)

// BoundaryKind selects how nodes are grouped into boundary boxes.
type BoundaryKind string

const (
	BoundaryNamespace BoundaryKind = "namespace"
	BoundaryApp       BoundaryKind = "app"
)

// BoundaryRequest asks for a named grouping region.
type BoundaryRequest struct {
	Kind  BoundaryKind `json:"kind" toml:"kind"`
	Title string       `json:"title" toml:"title"`
}

// Options are the inputs of [Build] besides the endpoints.
//
// Display is taken literally: the zero value hides every function and every
// ingress, egress and intra-app connector, leaving only unconnected boxes.
// Set it to [DefaultDisplayFilters] for an unfiltered map.
type Options struct {
	Focus FocusFilter
	// FocusVisibility is applied to nodes outside the focus. Fogged when empty.
	FocusVisibility  Visibility
	Display          DisplayFilters
	Boundaries       []BoundaryRequest
	TooManyFunctions int
}

// =============================================================================
// Output
// =============================================================================

// Placement is the layout region of a node.
type Placement string

const (
	PlaceCenter Placement = "center"
	PlaceLeft   Placement = "left"
	PlaceTop    Placement = "top"
	PlaceBottom Placement = "bottom"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one positioned endpoint.
//
// Anchors are relative to the node's top-left corner. Connectors are absolute
// canvas coordinates on the node border: Connectors on the left edge for
// sources at or left of the node, RightConnectors on the right edge for the
// others.
type Node struct {
	Endpoint *endpoint.Endpoint

	X, Y, Width, Height float64

	// Weight is nil for nodes that were never weighed (hidden nodes).
	Weight    *int
	LevelKey  string
	Level     int
	Row       int
	Placement Placement

	Connection      connectivity.Connection
	Connectors      map[string]Point
	RightConnectors map[string]Point

	ProtocolAnchors map[string]Point
	FunctionAnchors map[string]Point
	GroupAnchors    map[string]Point
	MoreAnchors     map[string]Point

	Protocols     []flows.ProtocolFunctions
	Visibility    Visibility
	FlowsFiltered bool
}

// ID returns the endpoint id of the node.
func (n *Node) ID() string { return n.Endpoint.ID }

// IsHidden reports whether the node is excluded from layout.
func (n *Node) IsHidden() bool { return n.Visibility == Hidden }

// CenterY returns the vertical center of the node.
func (n *Node) CenterY() float64 { return n.Y + n.Height/2 }

// AnchorKey joins a protocol id and a function id or group key into the key
// used by FunctionAnchors and GroupAnchors.
func AnchorKey(protocolID, key string) string { return protocolID + "/" + key }

// Graph maps endpoint ids to nodes.
type Graph map[string]*Node

// Boundary is a resolved boundary box.
type Boundary struct {
	Kind   BoundaryKind `json:"kind"`
	Title  string       `json:"title"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
}

// Meta carries canvas extents and boundary boxes.
type Meta struct {
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Boundaries []Boundary `json:"boundaries,omitempty"`
}

// Edge is a displayed relationship between two laid-out nodes. Aggregated
// edges belong to a many-ingress or many-egress fan that consumers draw as a
// bundle.
type Edge struct {
	Source      string
	Destination string
	Aggregated  bool
}

// Result is the output of [Build].
type Result struct {
	Graph Graph
	Meta  Meta
	Edges []Edge
	// Order lists node ids in selection order.
	Order []string
	// Slots is the weight slot table produced while assigning weights.
	Slots Slots
}

// Nodes returns the nodes in selection order.
func (r *Result) Nodes() []*Node {
	out := make([]*Node, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.Graph[id])
	}
	return out
}
