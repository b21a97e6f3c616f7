// Package connectivity classifies endpoints, protocols and functions by the
// allow-list relationships between them.
//
// An edge S → E exists for every allowed source S of a protocol (or of a
// function of that protocol) on endpoint E, provided S names a known endpoint.
// [Build] scans the endpoints once and returns a read-only [Index] recording,
// per entity, whether it sends or receives traffic, whether it lives outside
// the app, and whether it matches the active [Focus].
package connectivity

import (
	"github.com/matzehuels/flowmap/pkg/endpoint"
)

// ManyThreshold is the number of distinct in-app partners at which an outside
// endpoint is classified as a fan-in or fan-out.
const ManyThreshold = 3

// Type classifies outside endpoints with many in-app partners.
type Type string

const (
	TypeNone              Type = ""
	TypeManyIngressToApp  Type = "many-ingress-to-app"
	TypeManyEgressFromApp Type = "many-egress-from-app"
)

// Focus narrows which relationships are in focus. At most Self, or any of
// From and To, is set.
type Focus struct {
	Self string `json:"self,omitempty" toml:"self"`
	From string `json:"from,omitempty" toml:"from"`
	To   string `json:"to,omitempty" toml:"to"`
}

// Empty reports whether no focus is selected.
func (f Focus) Empty() bool { return f.Self == "" && f.From == "" && f.To == "" }

// Named reports whether id is explicitly named by the focus.
func (f Focus) Named(id string) bool {
	return id != "" && (id == f.Self || id == f.From || id == f.To)
}

// Connection is the classification of one endpoint, protocol or function.
type Connection struct {
	// Filtered is set when the entity is in the focus match set.
	Filtered bool `json:"filtered"`
	// From is set when the endpoint has outbound edges.
	From bool `json:"from"`
	// To is set when the entity has inbound edges.
	To      bool `json:"to"`
	Outside bool `json:"outside"`
	Type    Type `json:"type,omitempty"`
}

// Edge is one allowed-source relationship.
type Edge struct {
	Source      string
	Destination string
	Protocol    string
	Function    string // empty for protocol-level allow entries
}

// Index is the connectivity classification of an endpoint set.
type Index struct {
	focus     Focus
	endpoints map[string]*Connection
	protocols map[string]*Connection
	functions map[string]*Connection
	edges     []Edge
	out       map[string][]string
	in        map[string][]string
	pairs     map[[2]string]struct{}
}

// ProtocolKey returns the index key of a protocol on an endpoint.
func ProtocolKey(endpointID, protocolID string) string {
	return endpointID + "/" + protocolID
}

// FunctionKey returns the index key of a function on a protocol.
func FunctionKey(endpointID, protocolID, functionID string) string {
	return endpointID + "/" + protocolID + "/" + functionID
}

// Build scans endpoints and classifies every entity under focus.
// Allowed sources that name no endpoint, and self references, are skipped.
// Only the first endpoint with a given id is indexed.
func Build(endpoints []endpoint.Endpoint, focus Focus) *Index {
	idx := &Index{
		focus:     focus,
		endpoints: make(map[string]*Connection, len(endpoints)),
		protocols: make(map[string]*Connection),
		functions: make(map[string]*Connection),
		out:       make(map[string][]string),
		in:        make(map[string][]string),
		pairs:     make(map[[2]string]struct{}),
	}
	byID := endpoint.Index(endpoints)
	empty := focus.Empty()

	for i := range endpoints {
		e := &endpoints[i]
		if _, ok := idx.endpoints[e.ID]; ok {
			continue
		}
		outside := e.IsOutside()
		idx.endpoints[e.ID] = &Connection{Outside: outside, Filtered: empty || focus.Named(e.ID)}
		for _, p := range e.Protocols {
			pk := ProtocolKey(e.ID, p.ID)
			idx.protocols[pk] = &Connection{Outside: outside, Filtered: empty || e.ID == focus.Self}
			for _, f := range p.Functions {
				idx.functions[FunctionKey(e.ID, p.ID, f.ID)] = &Connection{Outside: outside, Filtered: empty || e.ID == focus.Self}
			}
		}
	}

	for i := range endpoints {
		e := &endpoints[i]
		if byID[e.ID] != e {
			continue
		}
		for _, p := range e.Protocols {
			for _, src := range p.AllowedSources {
				idx.addEdge(byID, Edge{Source: src, Destination: e.ID, Protocol: p.ID})
			}
			for _, f := range p.Functions {
				for _, src := range f.AllowedSources {
					idx.addEdge(byID, Edge{Source: src, Destination: e.ID, Protocol: p.ID, Function: f.ID})
				}
			}
		}
	}

	idx.classifyFans()
	return idx
}

func (idx *Index) addEdge(byID map[string]*endpoint.Endpoint, e Edge) {
	if _, ok := byID[e.Source]; !ok || e.Source == e.Destination {
		return
	}
	idx.edges = append(idx.edges, e)

	src, dst := idx.endpoints[e.Source], idx.endpoints[e.Destination]
	src.From = true
	dst.To = true
	proto := idx.protocols[ProtocolKey(e.Destination, e.Protocol)]
	proto.To = true
	var fn *Connection
	if e.Function != "" {
		fn = idx.functions[FunctionKey(e.Destination, e.Protocol, e.Function)]
		fn.To = true
	}

	if !idx.focus.Empty() && idx.EdgeMatches(e.Source, e.Destination) {
		src.Filtered = true
		dst.Filtered = true
		proto.Filtered = true
		if fn != nil {
			fn.Filtered = true
		}
	}

	pair := [2]string{e.Source, e.Destination}
	if _, seen := idx.pairs[pair]; !seen {
		idx.pairs[pair] = struct{}{}
		idx.out[e.Source] = append(idx.out[e.Source], e.Destination)
		idx.in[e.Destination] = append(idx.in[e.Destination], e.Source)
	}
}

// classifyFans tags outside endpoints that fan out to, or collect from,
// at least ManyThreshold distinct in-app partners. The count is per outside
// endpoint: several outside sources sharing one in-app sink tag nothing.
func (idx *Index) classifyFans() {
	for id, c := range idx.endpoints {
		if !c.Outside {
			continue
		}
		if countInApp(idx.endpoints, idx.out[id]) >= ManyThreshold {
			c.Type = TypeManyIngressToApp
		} else if countInApp(idx.endpoints, idx.in[id]) >= ManyThreshold {
			c.Type = TypeManyEgressFromApp
		}
	}
}

func countInApp(conns map[string]*Connection, ids []string) int {
	n := 0
	for _, id := range ids {
		if !conns[id].Outside {
			n++
		}
	}
	return n
}

// EdgeMatches reports whether the edge src → dst is inside the focus.
func (idx *Index) EdgeMatches(src, dst string) bool {
	f := idx.focus
	switch {
	case f.Empty():
		return true
	case f.Self != "":
		return src == f.Self || dst == f.Self
	}
	return (f.From == "" || src == f.From) && (f.To == "" || dst == f.To)
}

// HasEdge reports whether any allow entry connects src → dst.
func (idx *Index) HasEdge(src, dst string) bool {
	_, ok := idx.pairs[[2]string{src, dst}]
	return ok
}

// Focus returns the focus the index was built with.
func (idx *Index) Focus() Focus { return idx.focus }

// Endpoint returns the classification of an endpoint. Unknown ids yield the
// zero Connection.
func (idx *Index) Endpoint(id string) Connection {
	if c, ok := idx.endpoints[id]; ok {
		return *c
	}
	return Connection{}
}

// Protocol returns the classification of a protocol.
func (idx *Index) Protocol(endpointID, protocolID string) Connection {
	if c, ok := idx.protocols[ProtocolKey(endpointID, protocolID)]; ok {
		return *c
	}
	return Connection{}
}

// Function returns the classification of a function.
func (idx *Index) Function(endpointID, protocolID, functionID string) Connection {
	if c, ok := idx.functions[FunctionKey(endpointID, protocolID, functionID)]; ok {
		return *c
	}
	return Connection{}
}

// Destinations returns the distinct endpoints id sends to, in scan order.
func (idx *Index) Destinations(id string) []string { return idx.out[id] }

// Sources returns the distinct endpoints that send to id, in scan order.
func (idx *Index) Sources(id string) []string { return idx.in[id] }

// Edges returns every resolved edge in scan order.
func (idx *Index) Edges() []Edge { return idx.edges }
