package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowmap/pkg/buildinfo"
	"github.com/matzehuels/flowmap/pkg/endpoint"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// LayoutRequest is the body of POST /api/layout.
type LayoutRequest struct {
	Endpoints []endpoint.Endpoint `json:"endpoints"`
	Options   pipeline.Options    `json:"options"`
}

// LayoutResponse is the answer to POST /api/layout. Artifacts holds the
// non-JSON formats requested in options.formats; []byte values are encoded
// as base64.
type LayoutResponse struct {
	RunID     string            `json:"run_id"`
	Layout    graph.Layout      `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
	Cached    bool              `json:"cached"`
	Stats     ResponseStats     `json:"stats"`
}

// ResponseStats reports the size and timing of one layout request. Durations
// are in milliseconds; RenderHit is set when every artifact came from cache.
type ResponseStats struct {
	Endpoints int     `json:"endpoints"`
	Nodes     int     `json:"nodes"`
	Edges     int     `json:"edges"`
	LayoutMS  float64 `json:"layout_ms"`
	RenderMS  float64 `json:"render_ms"`
	InputHash string  `json:"input_hash"`
	RenderHit bool    `json:"render_cached"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer r.Body.Close()

	req := LayoutRequest{Options: s.defaults}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeStatus(w, r, http.StatusRequestEntityTooLarge, ferrors.ErrCodeInvalidInput,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode request: %v", err))
		return
	}
	if req.Endpoints == nil {
		s.writeError(w, r, ferrors.New(ferrors.ErrCodeInvalidInput, "endpoints is required"))
		return
	}

	opts := req.Options
	opts.Logger = s.logger.With("request_id", middleware.GetReqID(r.Context()))
	// The layout is always part of the response.
	var formats []string
	for _, f := range opts.Formats {
		if f != pipeline.FormatJSON {
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		formats = []string{pipeline.FormatJSON}
	}
	opts.Formats = formats

	res, err := s.runner.Execute(r.Context(), req.Endpoints, opts)
	if err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil {
			err = ferrors.Wrap(ferrors.ErrCodeTimeout, ctxErr, "layout request cancelled")
		}
		s.writeError(w, r, err)
		return
	}

	delete(res.Artifacts, pipeline.FormatJSON)
	s.writeJSON(w, http.StatusOK, LayoutResponse{
		RunID:     res.RunID,
		Layout:    res.Layout,
		Artifacts: res.Artifacts,
		Cached:    res.CacheInfo.LayoutHit,
		Stats: ResponseStats{
			Endpoints: res.Stats.EndpointCount,
			Nodes:     res.Stats.NodeCount,
			Edges:     res.Stats.EdgeCount,
			LayoutMS:  float64(res.Stats.LayoutTime.Microseconds()) / 1000,
			RenderMS:  float64(res.Stats.RenderTime.Microseconds()) / 1000,
			InputHash: res.InputHash,
			RenderHit: res.CacheInfo.RenderHit,
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := ferrors.HTTPStatus(err)
	code := ferrors.GetCode(err)
	if code == "" {
		code = ferrors.ErrCodeInternal
	}
	msg := ferrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		if code == ferrors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	s.writeStatus(w, r, status, code, msg)
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, status int, code ferrors.Code, msg string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     msg,
		Code:      string(code),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
