package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Format is an endpoint file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the top-level shape of an endpoint file.
type Document struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported endpoint file extension: %q", filepath.Ext(path))
}

// ReadFile reads endpoints from a JSON or YAML file. The format is inferred
// from the extension.
func ReadFile(path string) ([]Endpoint, error) {
	if err := ferrors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "endpoint file not found: %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}

// Read decodes endpoints from r. Both a bare list and a [Document] are
// accepted.
func Read(r io.Reader, format Format) ([]Endpoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported endpoint format: %q", format)
}

// Write encodes endpoints as a [Document].
func Write(w io.Writer, endpoints []Endpoint, format Format) error {
	doc := Document{Endpoints: endpoints}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	}
	return ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported endpoint format: %q", format)
}

// WriteFile writes endpoints to path, inferring the format from the extension.
func WriteFile(path string, endpoints []Endpoint) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, endpoints, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func decodeJSON(data []byte) ([]Endpoint, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []Endpoint
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "decode endpoint list")
		}
		return list, nil
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "decode endpoint document")
	}
	return doc.Endpoints, nil
}

func decodeYAML(data []byte) ([]Endpoint, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "parse endpoint yaml")
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	body := root.Content[0]
	switch body.Kind {
	case yaml.SequenceNode:
		var list []Endpoint
		if err := body.Decode(&list); err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "decode endpoint list")
		}
		return list, nil
	case yaml.MappingNode:
		var doc Document
		if err := body.Decode(&doc); err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "decode endpoint document")
		}
		return doc.Endpoints, nil
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "endpoint yaml must be a list or a mapping with an endpoints key")
}
