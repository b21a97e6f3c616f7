package graph

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func sampleLayout() Layout {
	w := 3
	return Layout{
		Version: FormatVersion,
		Width:   750,
		Height:  200,
		Nodes: []Node{
			{ID: "api", Label: "api", X: 450, Width: 300, Height: 160, Weight: &w, Placement: PlacementCenter, Visibility: VisibilityVisible,
				Protocols:  []Protocol{{ID: "http", L7: "http", Port: 80, Anchor: Point{Y: 94}}},
				Connectors: []Connector{{Source: "web", Side: SideLeft, X: 450, Y: 94}}},
			{ID: "web", Width: 300, Height: 68, Placement: PlacementCenter, Visibility: VisibilityFogged},
		},
		Edges:      []Edge{{From: "web", To: "api"}},
		Boundaries: []Boundary{{Kind: "app", Title: "shop", Width: 750, Height: 200}},
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	in := sampleLayout()
	data, err := MarshalLayout(in)
	if err != nil {
		t.Fatalf("MarshalLayout: %v", err)
	}
	out, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if len(out.Nodes) != 2 || out.Nodes[0].Connectors[0].Source != "web" {
		t.Errorf("round trip lost data: %+v", out)
	}
	if out.Nodes[0].Weight == nil || *out.Nodes[0].Weight != 3 {
		t.Errorf("Weight = %v, want 3", out.Nodes[0].Weight)
	}
	if !out.Nodes[1].IsFogged() {
		t.Error("IsFogged() = false, want true")
	}
}

func TestUnmarshalLayoutDefaultsVersion(t *testing.T) {
	l, err := UnmarshalLayout([]byte(`{"width": 1, "height": 1, "nodes": []}`))
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if l.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", l.Version, FormatVersion)
	}
}

func TestUnmarshalLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed", `{"nodes": [`, "unmarshal layout"},
		{"future version", `{"version": 99, "nodes": []}`, "unsupported layout version"},
		{"duplicate node", `{"nodes": [{"id": "a"}, {"id": "a"}]}`, "duplicate node id"},
		{"empty id", `{"nodes": [{"id": ""}]}`, "empty id"},
		{"dangling edge", `{"nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "b"}]}`, "unknown node b"},
		{"negative boundary", `{"nodes": [], "boundaries": [{"kind": "app", "title": "x", "width": -1}]}`, "negative size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalLayout([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	if err := WriteLayoutFile(sampleLayout(), path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	l, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if n := l.Node("api"); n == nil || n.DisplayLabel() != "api" {
		t.Errorf("Node(api) = %+v", n)
	}
	if l.Node("missing") != nil {
		t.Error("Node(missing) != nil")
	}

	if _, err := ReadLayoutFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("ReadLayoutFile(missing) error = nil")
	}
}

func TestWriteLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLayout(sampleLayout(), &buf); err != nil {
		t.Fatalf("WriteLayout: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	for _, key := range []string{"version", "width", "height", "nodes", "edges", "boundaries"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestDisplayLabelFallback(t *testing.T) {
	n := Node{ID: "svc"}
	if n.DisplayLabel() != "svc" {
		t.Errorf("DisplayLabel() = %q, want svc", n.DisplayLabel())
	}
}
