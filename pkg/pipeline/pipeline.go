// Package pipeline runs the flowmap load → layout → render pipeline.
//
// The CLI and the HTTP server both go through a [Runner], which memoizes
// layouts by a hash of the endpoints and the layout options, and rendered
// artifacts by a hash of the layout they were drawn from.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	endpoints, err := pipeline.LoadEndpoints("endpoints.yaml")
//	if err != nil {
//	    return err
//	}
//	opts := pipeline.DefaultOptions()
//	opts.Focus.Self = "api"
//	opts.Formats = []string{pipeline.FormatSVG}
//	result, err := runner.Execute(ctx, endpoints, opts)
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Stages can also be run on their own with [Runner.Layout] and
// [Runner.Render].
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowmap/pkg/cache"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/layout"
	"github.com/matzehuels/flowmap/pkg/render/nodelink"
)

// =============================================================================
// Formats
// =============================================================================

const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
}

// ValidateFormat checks that a format is supported. Formats are case-sensitive.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, svg, png, dot)", format)
	}
	return nil
}

// ValidateFormats checks every format in the list.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It is also the "options" object of an
// API layout request, so it carries JSON tags.
type Options struct {
	Display          layout.DisplayFilters    `json:"display"`
	Focus            layout.FocusFilter       `json:"focus"`
	Visibility       layout.Visibility        `json:"visibility,omitempty"`
	Boundaries       []layout.BoundaryRequest `json:"boundaries,omitempty"`
	TooManyFunctions int                      `json:"tooManyFunctions,omitempty"`

	// Formats lists the artifacts to render. Defaults to json.
	Formats []string `json:"formats,omitempty"`
	// Detailed adds level, weight and protocol lines to diagram labels.
	Detailed bool `json:"detailed,omitempty"`
	// ShowBoundaries draws boundary boxes in diagrams.
	ShowBoundaries bool `json:"showBoundaries,omitempty"`
	// Refresh bypasses cache reads. Results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// DefaultOptions shows every traffic kind with aggregation on, fogs nodes
// outside the focus and renders JSON.
func DefaultOptions() Options {
	return Options{
		Display:    layout.DefaultDisplayFilters(),
		Visibility: layout.Fogged,
		Formats:    []string{FormatJSON},
	}
}

// FromLayoutOptions builds pipeline options around engine options.
func FromLayoutOptions(lo layout.Options) Options {
	opts := DefaultOptions()
	opts.Display = lo.Display
	opts.Focus = lo.Focus
	opts.Boundaries = lo.Boundaries
	opts.TooManyFunctions = lo.TooManyFunctions
	if lo.FocusVisibility != "" {
		opts.Visibility = lo.FocusVisibility
	}
	return opts
}

// ValidateAndSetDefaults checks the filters and formats and fills defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLayout checks the focus filter, the boundary requests and the
// visibility mode.
func (o *Options) ValidateForLayout() error {
	if err := ferrors.ValidateFocus(o.Focus.Self, o.Focus.From, o.Focus.To); err != nil {
		return err
	}
	kinds := make([]string, len(o.Boundaries))
	for i, b := range o.Boundaries {
		kinds[i] = string(b.Kind)
	}
	if err := ferrors.ValidateBoundaryKinds(kinds); err != nil {
		return err
	}
	switch o.Visibility {
	case "":
		o.Visibility = layout.Fogged
	case layout.Fogged, layout.Hidden:
	default:
		return ferrors.New(ferrors.ErrCodeInvalidFilter, "visibility must be fogged or hidden, got %q", o.Visibility)
	}
	if o.TooManyFunctions < 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "tooManyFunctions must not be negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender checks the formats and defaults them to json.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateFormats(o.Formats)
}

// LayoutOptions converts to engine options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		Focus:            o.Focus,
		FocusVisibility:  o.Visibility,
		Display:          o.Display,
		Boundaries:       o.Boundaries,
		TooManyFunctions: o.TooManyFunctions,
	}
}

// RenderOptions converts to diagram options.
func (o *Options) RenderOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed, Boundaries: o.ShowBoundaries}
}

// layoutInputs is the part of Options that changes a layout.
type layoutInputs struct {
	Display          layout.DisplayFilters    `json:"display"`
	Focus            layout.FocusFilter       `json:"focus"`
	Visibility       layout.Visibility        `json:"visibility"`
	Boundaries       []layout.BoundaryRequest `json:"boundaries"`
	TooManyFunctions int                      `json:"too_many"`
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() (cache.LayoutKeyOpts, error) {
	in := layoutInputs{
		Display:          o.Display,
		Focus:            o.Focus,
		Visibility:       o.Visibility,
		TooManyFunctions: o.TooManyFunctions,
	}
	if len(o.Boundaries) > 0 {
		in.Boundaries = o.Boundaries
	}
	h, err := cache.HashJSON(in)
	if err != nil {
		return cache.LayoutKeyOpts{}, err
	}
	return cache.LayoutKeyOpts{OptionsHash: h, FormatVersion: graph.FormatVersion}, nil
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Detailed:   o.Detailed,
		Boundaries: o.ShowBoundaries,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string
	// InputHash is the content hash of the endpoints.
	InputHash string

	Layout graph.Layout
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EndpointCount int
	NodeCount     int
	EdgeCount     int
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // all artifacts came from cache
}
