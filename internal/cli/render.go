package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file (single format) or base path
	formats    []string // svg, png, dot, json
	detailed   bool     // level, weight and protocol lines in labels
	boundaries bool     // draw boundary boxes
	fromLayout bool     // input is a layout.json instead of endpoints
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		ro         renderOpts
		flags      *layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [endpoints.yaml | layout.json]",
		Short: "Render a node-link debug diagram of a layout",
		Long: `Render a node-link debug diagram of a layout.

Nodes are pinned at their computed positions and Graphviz routes the edges.
Fogged nodes are drawn dashed; aggregated edges are drawn dotted.

The input is an endpoint file, or a layout.json with --from-layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.formats = parseFormats(formatsStr, pipeline.FormatSVG)
			if err := pipeline.ValidateFormats(ro.formats); err != nil {
				return err
			}
			opts, err := flags.options(c.Config.LayoutOptions())
			if err != nil {
				return err
			}
			opts.Formats = ro.formats
			opts.Detailed = ro.detailed
			opts.ShowBoundaries = ro.boundaries
			opts.Refresh = ro.refresh
			return c.runRender(cmd.Context(), args[0], opts, &ro)
		},
	}

	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&ro.detailed, "detailed", false, "show level, weight and protocols in node labels")
	cmd.Flags().BoolVar(&ro.boundaries, "boundaries", false, "draw boundary boxes")
	cmd.Flags().BoolVar(&ro.fromLayout, "from-layout", false, "read a layout.json instead of an endpoint file")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&ro.refresh, "refresh", false, "ignore cached layouts and artifacts")
	flags = newLayoutFlags(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, ro *renderOpts) error {
	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	l, cached, err := c.loadLayout(ctx, runner, input, opts, ro.fromLayout)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(ro.formats, ", ")))
	spinner.Start()
	artifacts, renderHit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(ro.output, input)
	var written []string
	for _, format := range ro.formats {
		path := base + "." + format
		if len(ro.formats) == 1 && ro.output != "" {
			path = ro.output
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debug("wrote artifact", "format", format, "bytes", len(artifacts[format]))
		written = append(written, path)
	}

	printSuccess("Rendered %d file(s)", len(written))
	for _, p := range written {
		printFile(p)
	}
	printStats(len(l.Nodes), len(l.Edges), cached && renderHit)
	return nil
}

// loadLayout reads a layout file or computes a layout from an endpoint
// file. The bool reports a layout cache hit; a file counts as cached.
func (c *CLI) loadLayout(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options, fromLayout bool) (graph.Layout, bool, error) {
	if fromLayout {
		l, err := graph.ReadLayoutFile(input)
		if err != nil {
			return graph.Layout{}, false, err
		}
		c.Logger.Debug("loaded layout", "path", input, "nodes", len(l.Nodes))
		return l, true, nil
	}

	endpoints, err := pipeline.LoadEndpoints(input)
	if err != nil {
		return graph.Layout{}, false, err
	}
	l, hit, err := runner.LayoutWithCacheInfo(ctx, endpoints, opts)
	if err != nil {
		return graph.Layout{}, false, fmt.Errorf("compute layout: %w", err)
	}
	c.Logger.Info("computed layout", "endpoints", len(endpoints), "nodes", len(l.Nodes), "cached", hit)
	return l, hit, nil
}

// basePath derives the base output path. Known format extensions are
// stripped from output; without output the input's extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		return defaultOutput(input, "")
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
