package pipeline

import (
	"io"

	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/endpoint"
)

// LoadEndpoints reads an endpoint file (JSON or YAML by extension) and
// validates it.
func LoadEndpoints(path string) ([]endpoint.Endpoint, error) {
	endpoints, err := endpoint.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := endpoint.Validate(endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

// ParseEndpoints decodes endpoints from r and validates them.
func ParseEndpoints(r io.Reader, format endpoint.Format) ([]endpoint.Endpoint, error) {
	endpoints, err := endpoint.Read(r, format)
	if err != nil {
		return nil, err
	}
	if err := endpoint.Validate(endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

// InputHash returns the content hash of an endpoint list. Equal lists in
// equal order hash equally.
func InputHash(endpoints []endpoint.Endpoint) (string, error) {
	return cache.HashJSON(endpoints)
}
