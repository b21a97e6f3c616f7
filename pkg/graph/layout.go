package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Layout - Serialized Map
// =============================================================================

// Layout is the serialization format of a computed map. Hidden nodes are not
// part of it.
type Layout struct {
	Version int    `json:"version" bson:"version"`
	RunID   string `json:"run_id,omitempty" bson:"run_id,omitempty"`

	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Nodes      []Node     `json:"nodes" bson:"nodes"`
	Edges      []Edge     `json:"edges,omitempty" bson:"edges,omitempty"`
	Boundaries []Boundary `json:"boundaries,omitempty" bson:"boundaries,omitempty"`
}

// Node returns the node with the given id, or nil.
func (l *Layout) Node(id string) *Node {
	for i := range l.Nodes {
		if l.Nodes[i].ID == id {
			return &l.Nodes[i]
		}
	}
	return nil
}

// Validate checks structural consistency: unique node ids, non-negative sizes
// and edges that reference known nodes.
func (l *Layout) Validate() error {
	ids := make(map[string]struct{}, len(l.Nodes))
	for _, n := range l.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id: %s", n.ID)
		}
		ids[n.ID] = struct{}{}
		if n.Width < 0 || n.Height < 0 {
			return fmt.Errorf("node %s has negative size", n.ID)
		}
	}
	for _, e := range l.Edges {
		if _, ok := ids[e.From]; !ok {
			return fmt.Errorf("edge %s->%s: unknown node %s", e.From, e.To, e.From)
		}
		if _, ok := ids[e.To]; !ok {
			return fmt.Errorf("edge %s->%s: unknown node %s", e.From, e.To, e.To)
		}
	}
	for _, b := range l.Boundaries {
		if b.Width < 0 || b.Height < 0 {
			return fmt.Errorf("boundary %s has negative size", b.Title)
		}
	}
	return nil
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout and validates it.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Version == 0 {
		l.Version = FormatVersion
	}
	if l.Version > FormatVersion {
		return Layout{}, fmt.Errorf("unsupported layout version %d", l.Version)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout: %w", err)
	}
	return l, nil
}

// WriteLayout writes a Layout as JSON to w.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
