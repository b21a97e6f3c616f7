package endpoint

import (
	"slices"
	"strings"
)

// Type tags endpoints that do not represent an ordinary in-app workload.
type Type string

const (
	TypeNone                Type = ""
	TypeDNS                 Type = "dns"
	TypeCIDRAllowAll        Type = "cidr-allow-all"
	TypeOutsideManaged      Type = "outside-managed"
	TypeSourceReservedWorld Type = "source-reserved-world"
)

// Label keys with special meaning.
const (
	ReservedPrefix = "reserved:"
	HostLabel      = "reserved:host"
	WorldLabel     = "reserved:world"
	NamespaceLabel = "k8s:io.kubernetes.pod.namespace"
)

// Well-known L7 protocol names.
const (
	L7HTTP  = "http"
	L7DNS   = "dns"
	L7Kafka = "kafka"
)

// Label is a single key/value pair attached to an endpoint.
type Label struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// IsReserved reports whether the label is a reserved classification label.
func (l Label) IsReserved() bool { return strings.HasPrefix(l.Key, ReservedPrefix) }

// Endpoint is a discovered network endpoint.
type Endpoint struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Labels    []Label    `json:"labels,omitempty" yaml:"labels,omitempty"`
	Protocols []Protocol `json:"protocols,omitempty" yaml:"protocols,omitempty"`
	CIDR      string     `json:"cidr,omitempty" yaml:"cidr,omitempty"`
	DNS       string     `json:"dns,omitempty" yaml:"dns,omitempty"`
	Type      Type       `json:"type,omitempty" yaml:"type,omitempty"`
}

// Protocol is an L3/L4 listener on an endpoint with an optional L7 protocol.
type Protocol struct {
	ID             string     `json:"id" yaml:"id"`
	L4             string     `json:"l4,omitempty" yaml:"l4,omitempty"`
	L7             string     `json:"l7,omitempty" yaml:"l7,omitempty"`
	Port           int        `json:"port,omitempty" yaml:"port,omitempty"`
	AllowedSources []string   `json:"allowedSources,omitempty" yaml:"allowedSources,omitempty"`
	Functions      []Function `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// Function is an application-level operation on a protocol.
type Function struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	AllowedSources []string  `json:"allowedSources,omitempty" yaml:"allowedSources,omitempty"`
	Response       *Response `json:"response,omitempty" yaml:"response,omitempty"`
}

// Response describes what a function answers with. At most one of DNS and
// HTTP is normally set.
type Response struct {
	DNS  *DNSResponse  `json:"dns,omitempty" yaml:"dns,omitempty"`
	HTTP *HTTPResponse `json:"http,omitempty" yaml:"http,omitempty"`
}

// DNSResponse is the structured form of a DNS function.
type DNSResponse struct {
	Query string `json:"query" yaml:"query"`
}

// HTTPResponse is the structured form of an HTTP function.
type HTTPResponse struct {
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
	Path   string `json:"path" yaml:"path"`
}

// HasLabel reports whether the endpoint carries a label with the given key.
func (e *Endpoint) HasLabel(key string) bool {
	return slices.ContainsFunc(e.Labels, func(l Label) bool { return l.Key == key })
}

// Label returns the value of the first label with the given key.
func (e *Endpoint) Label(key string) (string, bool) {
	for _, l := range e.Labels {
		if l.Key == key {
			return l.Value, true
		}
	}
	return "", false
}

// IsHost reports whether the endpoint is the node host.
func (e *Endpoint) IsHost() bool { return e.HasLabel(HostLabel) }

// IsWorld reports whether the endpoint represents the outside world.
func (e *Endpoint) IsWorld() bool { return e.HasLabel(WorldLabel) }

// IsLeft reports whether the endpoint is a reserved-world ingress source, which
// is laid out in its own leftmost level.
func (e *Endpoint) IsLeft() bool { return e.Type == TypeSourceReservedWorld }

// IsOutside reports whether the endpoint lives outside the app.
func (e *Endpoint) IsOutside() bool {
	return e.Type != TypeNone || e.IsWorld()
}

// Namespace returns the endpoint's namespace label value, or "".
func (e *Endpoint) Namespace() string {
	ns, _ := e.Label(NamespaceLabel)
	return ns
}

// DisplayName returns the name used for sorting and display: the endpoint name,
// then its namespace, then its DNS or CIDR identity, then its ID.
func (e *Endpoint) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	if ns := e.Namespace(); ns != "" {
		return ns
	}
	switch {
	case e.DNS != "":
		return e.DNS
	case e.CIDR != "":
		return e.CIDR
	}
	return e.ID
}

// VisibleLabels returns the labels that are shown on the node, in input order.
func (e *Endpoint) VisibleLabels() []Label {
	var out []Label
	for _, l := range e.Labels {
		if !l.IsReserved() {
			out = append(out, l)
		}
	}
	return out
}

// Title returns the response-derived title of the function: the DNS query or
// the HTTP path. It returns "" when the function carries no response.
func (f *Function) Title() string {
	if f.Response == nil {
		return ""
	}
	if f.Response.DNS != nil && f.Response.DNS.Query != "" {
		return f.Response.DNS.Query
	}
	if f.Response.HTTP != nil && f.Response.HTTP.Path != "" {
		return f.Response.HTTP.Path
	}
	return ""
}

// IsKafka reports whether the protocol speaks Kafka.
func (p *Protocol) IsKafka() bool { return strings.EqualFold(p.L7, L7Kafka) }

// Index maps endpoint IDs to endpoints. The first endpoint with an ID wins;
// later duplicates are ignored.
func Index(endpoints []Endpoint) map[string]*Endpoint {
	m := make(map[string]*Endpoint, len(endpoints))
	for i := range endpoints {
		if _, dup := m[endpoints[i].ID]; !dup {
			m[endpoints[i].ID] = &endpoints[i]
		}
	}
	return m
}
