package endpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

func TestEndpointClassification(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		host    bool
		world   bool
		outside bool
		left    bool
	}{
		{"plain", Endpoint{ID: "a"}, false, false, false, false},
		{"host", Endpoint{ID: "h", Labels: []Label{{Key: HostLabel}}}, true, false, false, false},
		{"world", Endpoint{ID: "w", Labels: []Label{{Key: WorldLabel}}}, false, true, true, false},
		{"dns", Endpoint{ID: "d", Type: TypeDNS, DNS: "example.com"}, false, false, true, false},
		{"cidr", Endpoint{ID: "c", Type: TypeCIDRAllowAll, CIDR: "0.0.0.0/0"}, false, false, true, false},
		{"reserved world source", Endpoint{ID: "r", Type: TypeSourceReservedWorld}, false, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.IsHost(); got != tt.host {
				t.Errorf("IsHost() = %v, want %v", got, tt.host)
			}
			if got := tt.ep.IsWorld(); got != tt.world {
				t.Errorf("IsWorld() = %v, want %v", got, tt.world)
			}
			if got := tt.ep.IsOutside(); got != tt.outside {
				t.Errorf("IsOutside() = %v, want %v", got, tt.outside)
			}
			if got := tt.ep.IsLeft(); got != tt.left {
				t.Errorf("IsLeft() = %v, want %v", got, tt.left)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	ns := Label{Key: NamespaceLabel, Value: "shop"}
	tests := []struct {
		ep   Endpoint
		want string
	}{
		{Endpoint{ID: "1", Name: "api", Labels: []Label{ns}}, "api"},
		{Endpoint{ID: "2", Labels: []Label{ns}}, "shop"},
		{Endpoint{ID: "3", DNS: "example.com"}, "example.com"},
		{Endpoint{ID: "4", CIDR: "10.0.0.0/8"}, "10.0.0.0/8"},
		{Endpoint{ID: "5"}, "5"},
	}
	for _, tt := range tests {
		if got := tt.ep.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%s) = %q, want %q", tt.ep.ID, got, tt.want)
		}
	}
}

func TestVisibleLabels(t *testing.T) {
	e := Endpoint{ID: "a", Labels: []Label{
		{Key: HostLabel},
		{Key: "app", Value: "api"},
		{Key: "reserved:init"},
		{Key: NamespaceLabel, Value: "shop"},
	}}
	got := e.VisibleLabels()
	if len(got) != 2 {
		t.Fatalf("VisibleLabels() len = %d, want 2", len(got))
	}
	if got[0].Key != "app" || got[1].Key != NamespaceLabel {
		t.Errorf("VisibleLabels() = %v, want app then namespace", got)
	}
	if e.Namespace() != "shop" {
		t.Errorf("Namespace() = %q, want shop", e.Namespace())
	}
}

func TestFunctionTitle(t *testing.T) {
	tests := []struct {
		name string
		fn   Function
		want string
	}{
		{"none", Function{ID: "f", Name: "GET /x"}, ""},
		{"dns", Function{ID: "f", Response: &Response{DNS: &DNSResponse{Query: "api.example.com"}}}, "api.example.com"},
		{"http", Function{ID: "f", Response: &Response{HTTP: &HTTPResponse{Method: "GET", Path: "/users"}}}, "/users"},
		{"empty response", Function{ID: "f", Response: &Response{}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn.Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

const yamlDoc = `
endpoints:
  - id: api
    name: api
    labels:
      - {key: "k8s:io.kubernetes.pod.namespace", value: shop}
    protocols:
      - id: api-http
        l4: TCP
        l7: http
        port: 8080
        allowedSources: [web]
        functions:
          - id: f1
            name: GET /users
            allowedSources: [web]
            response:
              http: {method: GET, path: /users}
  - id: web
    name: web
`

func TestReadYAMLDocument(t *testing.T) {
	eps, err := Read(strings.NewReader(yamlDoc), FormatYAML)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("len = %d, want 2", len(eps))
	}
	api := eps[0]
	if api.Namespace() != "shop" {
		t.Errorf("Namespace() = %q, want shop", api.Namespace())
	}
	if len(api.Protocols) != 1 || api.Protocols[0].Port != 8080 {
		t.Fatalf("Protocols = %+v", api.Protocols)
	}
	fn := api.Protocols[0].Functions[0]
	if fn.Title() != "/users" {
		t.Errorf("Title() = %q, want /users", fn.Title())
	}
}

func TestReadBareLists(t *testing.T) {
	yamlList := "- id: a\n- id: b\n"
	eps, err := Read(strings.NewReader(yamlList), FormatYAML)
	if err != nil || len(eps) != 2 {
		t.Fatalf("yaml list: got %d endpoints, err %v", len(eps), err)
	}

	jsonList := `[{"id":"a"},{"id":"b","type":"dns","dns":"example.com"}]`
	eps, err = Read(strings.NewReader(jsonList), FormatJSON)
	if err != nil || len(eps) != 2 {
		t.Fatalf("json list: got %d endpoints, err %v", len(eps), err)
	}
	if eps[1].Type != TypeDNS {
		t.Errorf("Type = %q, want %q", eps[1].Type, TypeDNS)
	}
}

func TestReadInvalid(t *testing.T) {
	_, err := Read(strings.NewReader(`{"endpoints": [`), FormatJSON)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}

	_, err = Read(strings.NewReader("just a string"), FormatYAML)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestReadEmpty(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		eps, err := Read(strings.NewReader("  \n"), f)
		if err != nil {
			t.Errorf("Read(%s, empty) error = %v", f, err)
		}
		if len(eps) != 0 {
			t.Errorf("Read(%s, empty) = %d endpoints, want 0", f, len(eps))
		}
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := []Endpoint{
		{ID: "a", Name: "a", Protocols: []Protocol{{ID: "p1", L4: "TCP", AllowedSources: []string{"b"}}}},
		{ID: "b", Name: "b"},
	}
	for _, name := range []string{"eps.json", "eps.yaml"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, in); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		out, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if len(out) != 2 || out[0].Protocols[0].AllowedSources[0] != "b" {
			t.Errorf("%s round trip = %+v", name, out)
		}
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile(filepath.Join(dir, "missing.yaml"))
	if !ferrors.Is(err, ferrors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v, want FILE_NOT_FOUND", err)
	}

	txt := filepath.Join(dir, "eps.txt")
	if err := os.WriteFile(txt, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = ReadFile(txt)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("bad extension err = %v, want INVALID_FORMAT", err)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, Format("xml")); err == nil {
		t.Error("Write(xml) error = nil, want error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		eps     []Endpoint
		wantErr bool
	}{
		{"empty", nil, false},
		{"ok", []Endpoint{{ID: "a", Protocols: []Protocol{{ID: "p", Functions: []Function{{ID: "f"}}}}}, {ID: "b"}}, false},
		{"unresolved source is fine", []Endpoint{{ID: "a", Protocols: []Protocol{{ID: "p", AllowedSources: []string{"ghost"}}}}}, false},

		{"empty id", []Endpoint{{ID: ""}}, true},
		{"duplicate endpoint", []Endpoint{{ID: "a"}, {ID: "a"}}, true},
		{"duplicate protocol", []Endpoint{{ID: "a", Protocols: []Protocol{{ID: "p"}, {ID: "p"}}}}, true},
		{"duplicate function", []Endpoint{{ID: "a", Protocols: []Protocol{{ID: "p", Functions: []Function{{ID: "f"}, {ID: "f"}}}}}}, true},
		{"bad port", []Endpoint{{ID: "a", Protocols: []Protocol{{ID: "p", Port: 70000}}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.eps)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !ferrors.Is(err, ferrors.ErrCodeInvalidEndpoint) {
				t.Errorf("Validate() code = %v, want INVALID_ENDPOINT", ferrors.GetCode(err))
			}
		})
	}
}

func TestIndexFirstWins(t *testing.T) {
	eps := []Endpoint{{ID: "a", Name: "first"}, {ID: "b"}, {ID: "a", Name: "second"}}
	m := Index(eps)
	if len(m) != 2 {
		t.Fatalf("len(Index) = %d, want 2", len(m))
	}
	if got := m["a"]; got != &eps[0] {
		t.Errorf("Index[a] = %+v, want the first occurrence", got)
	}
}
