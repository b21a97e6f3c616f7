package endpoint

import (
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Validate checks that endpoint, protocol and function ids are well formed
// and unique. Endpoint ids must be unique across the list; protocol ids must be
// unique within their endpoint and function ids within their protocol.
//
// Allowed sources that do not resolve are not an error: the layout engine
// skips them.
func Validate(endpoints []Endpoint) error {
	seen := make(map[string]struct{}, len(endpoints))
	for i := range endpoints {
		e := &endpoints[i]
		if err := ferrors.ValidateID("endpoint", e.ID); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidEndpoint, err, "endpoint #%d", i)
		}
		if _, dup := seen[e.ID]; dup {
			return ferrors.New(ferrors.ErrCodeInvalidEndpoint, "duplicate endpoint id: %s", e.ID)
		}
		seen[e.ID] = struct{}{}

		if err := validateProtocols(e); err != nil {
			return err
		}
	}
	return nil
}

func validateProtocols(e *Endpoint) error {
	protos := make(map[string]struct{}, len(e.Protocols))
	for _, p := range e.Protocols {
		if err := ferrors.ValidateID("protocol", p.ID); err != nil {
			return ferrors.Wrap(ferrors.ErrCodeInvalidEndpoint, err, "endpoint %s", e.ID)
		}
		if _, dup := protos[p.ID]; dup {
			return ferrors.New(ferrors.ErrCodeInvalidEndpoint, "endpoint %s: duplicate protocol id: %s", e.ID, p.ID)
		}
		protos[p.ID] = struct{}{}
		if p.Port < 0 || p.Port > 65535 {
			return ferrors.New(ferrors.ErrCodeInvalidEndpoint, "endpoint %s: protocol %s: port out of range: %d", e.ID, p.ID, p.Port)
		}

		fns := make(map[string]struct{}, len(p.Functions))
		for _, f := range p.Functions {
			if err := ferrors.ValidateID("function", f.ID); err != nil {
				return ferrors.Wrap(ferrors.ErrCodeInvalidEndpoint, err, "endpoint %s: protocol %s", e.ID, p.ID)
			}
			if _, dup := fns[f.ID]; dup {
				return ferrors.New(ferrors.ErrCodeInvalidEndpoint, "endpoint %s: protocol %s: duplicate function id: %s", e.ID, p.ID, f.ID)
			}
			fns[f.ID] = struct{}{}
		}
	}
	return nil
}
