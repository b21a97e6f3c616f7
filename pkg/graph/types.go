package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// FormatVersion is the version of the layout wire format.
const FormatVersion = 1

// Connector sides.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Node visibilities and placements as they appear on the wire.
const (
	VisibilityVisible = "visible"
	VisibilityFogged  = "fogged"

	PlacementCenter = "center"
	PlacementLeft   = "left"
	PlacementTop    = "top"
	PlacementBottom = "bottom"
)

// =============================================================================
// Node - Positioned Endpoint
// =============================================================================

// Node is a positioned endpoint. Anchor coordinates are relative to the
// node's top-left corner; connector coordinates are absolute.
type Node struct {
	ID        string  `json:"id" bson:"id"`
	Label     string  `json:"label,omitempty" bson:"label,omitempty"`
	Namespace string  `json:"namespace,omitempty" bson:"namespace,omitempty"`
	Type      string  `json:"type,omitempty" bson:"type,omitempty"`
	Labels    []Label `json:"labels,omitempty" bson:"labels,omitempty"`

	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Weight    *int   `json:"weight,omitempty" bson:"weight,omitempty"`
	Level     int    `json:"level" bson:"level"`
	Row       int    `json:"row" bson:"row"`
	Placement string `json:"placement" bson:"placement"`

	Visibility     string `json:"visibility" bson:"visibility"`
	Outside        bool   `json:"outside,omitempty" bson:"outside,omitempty"`
	ConnectionType string `json:"connection_type,omitempty" bson:"connection_type,omitempty"`
	FlowsFiltered  bool   `json:"flows_filtered,omitempty" bson:"flows_filtered,omitempty"`

	Protocols  []Protocol  `json:"protocols,omitempty" bson:"protocols,omitempty"`
	Connectors []Connector `json:"connectors,omitempty" bson:"connectors,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// IsFogged reports whether the node should be drawn dimmed.
func (n *Node) IsFogged() bool { return n.Visibility == VisibilityFogged }

// Label is a displayed endpoint label.
type Label struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value,omitempty" bson:"value,omitempty"`
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// =============================================================================
// Protocol - Node Content
// =============================================================================

// Protocol is one protocol row of a node with its visible function groups.
type Protocol struct {
	ID     string  `json:"id" bson:"id"`
	L4     string  `json:"l4,omitempty" bson:"l4,omitempty"`
	L7     string  `json:"l7,omitempty" bson:"l7,omitempty"`
	Port   int     `json:"port,omitempty" bson:"port,omitempty"`
	Anchor Point   `json:"anchor" bson:"anchor"`
	Groups []Group `json:"groups,omitempty" bson:"groups,omitempty"`

	// More is the anchor of the "view all" row; MoreCount the number of
	// functions behind it.
	More      *Point `json:"more,omitempty" bson:"more,omitempty"`
	MoreCount int    `json:"more_count,omitempty" bson:"more_count,omitempty"`
}

// Group is a visible function group. Anchor is nil for untitled groups.
type Group struct {
	Key       string     `json:"key" bson:"key"`
	Title     string     `json:"title,omitempty" bson:"title,omitempty"`
	Anchor    *Point     `json:"anchor,omitempty" bson:"anchor,omitempty"`
	Functions []Function `json:"functions" bson:"functions"`
}

// Function is a visible function row.
type Function struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Anchor Point  `json:"anchor" bson:"anchor"`
}

// Connector is the point where traffic from Source terminates on a node.
type Connector struct {
	Source string  `json:"source" bson:"source"`
	Side   string  `json:"side" bson:"side"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
}

// =============================================================================
// Edge and Boundary
// =============================================================================

// Edge is a displayed relationship. Aggregated edges belong to a fan-in or
// fan-out that a renderer may draw as one bundle.
type Edge struct {
	From       string `json:"from" bson:"from"`
	To         string `json:"to" bson:"to"`
	Aggregated bool   `json:"aggregated,omitempty" bson:"aggregated,omitempty"`
}

// Boundary is a namespace or app grouping box.
type Boundary struct {
	Kind   string  `json:"kind" bson:"kind"`
	Title  string  `json:"title" bson:"title"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}
