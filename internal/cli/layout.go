package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/layout"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// =============================================================================
// Layout Flags - shared by layout, render and inspect
// =============================================================================

// layoutFlags override the [display], [focus] and [layout] config sections.
// Only flags set on the command line take effect.
type layoutFlags struct {
	cmd *cobra.Command

	self, from, to string
	hideUnfocused  bool
	boundaries     []string
	tooMany        int

	display layout.DisplayFilters
}

func newLayoutFlags(cmd *cobra.Command) *layoutFlags {
	f := &layoutFlags{cmd: cmd, display: layout.DefaultDisplayFilters()}
	fs := cmd.Flags()

	fs.StringVar(&f.self, "focus", "", "focus on one endpoint and its direct peers")
	fs.StringVar(&f.from, "from", "", "focus on traffic from this endpoint")
	fs.StringVar(&f.to, "to", "", "focus on traffic to this endpoint")
	fs.BoolVar(&f.hideUnfocused, "hide-unfocused", false, "hide nodes outside the focus instead of fogging them")
	fs.StringArrayVar(&f.boundaries, "boundary", nil, "boundary box: namespace or app, optionally kind=title (repeatable)")
	fs.IntVar(&f.tooMany, "too-many-functions", 0, "function count above which hidden functions collapse")

	fs.BoolVar(&f.display.ShowIngress, "ingress", f.display.ShowIngress, "show traffic from outside the app")
	fs.BoolVar(&f.display.ShowEgress, "egress", f.display.ShowEgress, "show traffic leaving the app")
	fs.BoolVar(&f.display.ShowIntraApp, "intra-app", f.display.ShowIntraApp, "show traffic between in-app endpoints")
	fs.BoolVar(&f.display.ShowL7Traffic, "l7", f.display.ShowL7Traffic, "show L7 functions")
	fs.BoolVar(&f.display.AggregateManyIngress, "aggregate-ingress", f.display.AggregateManyIngress, "bundle outside sources reaching many endpoints")
	fs.BoolVar(&f.display.AggregateManyEgress, "aggregate-egress", f.display.AggregateManyEgress, "bundle endpoints reaching many outside destinations")
	fs.BoolVar(&f.display.ShowHost, "host", f.display.ShowHost, "show the reserved host endpoint")
	fs.BoolVar(&f.display.ShowWorld, "world", f.display.ShowWorld, "show the reserved world endpoint")
	return f
}

func (f *layoutFlags) changed(name string) bool { return f.cmd.Flags().Changed(name) }

// options merges the flags over the configured layout options.
func (f *layoutFlags) options(base layout.Options) (pipeline.Options, error) {
	lo := base
	if f.changed("focus") || f.changed("from") || f.changed("to") {
		lo.Focus = layout.FocusFilter{Self: f.self, From: f.from, To: f.to}
	}
	if f.changed("hide-unfocused") {
		lo.FocusVisibility = layout.Fogged
		if f.hideUnfocused {
			lo.FocusVisibility = layout.Hidden
		}
	}
	if f.changed("too-many-functions") {
		lo.TooManyFunctions = f.tooMany
	}
	if f.changed("boundary") {
		reqs, err := parseBoundaries(f.boundaries)
		if err != nil {
			return pipeline.Options{}, err
		}
		lo.Boundaries = reqs
	}

	d := &lo.Display
	for name, pair := range map[string][2]*bool{
		"ingress":           {&d.ShowIngress, &f.display.ShowIngress},
		"egress":            {&d.ShowEgress, &f.display.ShowEgress},
		"intra-app":         {&d.ShowIntraApp, &f.display.ShowIntraApp},
		"l7":                {&d.ShowL7Traffic, &f.display.ShowL7Traffic},
		"aggregate-ingress": {&d.AggregateManyIngress, &f.display.AggregateManyIngress},
		"aggregate-egress":  {&d.AggregateManyEgress, &f.display.AggregateManyEgress},
		"host":              {&d.ShowHost, &f.display.ShowHost},
		"world":             {&d.ShowWorld, &f.display.ShowWorld},
	} {
		if f.changed(name) {
			*pair[0] = *pair[1]
		}
	}

	opts := pipeline.FromLayoutOptions(lo)
	if err := opts.ValidateForLayout(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

// parseBoundaries parses "namespace", "app" or "kind=title" values.
func parseBoundaries(values []string) ([]layout.BoundaryRequest, error) {
	reqs := make([]layout.BoundaryRequest, 0, len(values))
	for _, v := range values {
		kind, title, _ := strings.Cut(v, "=")
		switch layout.BoundaryKind(kind) {
		case layout.BoundaryNamespace, layout.BoundaryApp:
		default:
			return nil, ferrors.New(ferrors.ErrCodeInvalidBoundary, "invalid --boundary %q (want namespace or app, optionally =title)", v)
		}
		reqs = append(reqs, layout.BoundaryRequest{Kind: layout.BoundaryKind(kind), Title: title})
	}
	return reqs, nil
}

// =============================================================================
// layout command
// =============================================================================

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
		flags   *layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [endpoints.yaml]",
		Short: "Compute a layout from an endpoint file",
		Long: `Compute a layout from an endpoint file.

The input is a JSON or YAML endpoint file. The output is a layout.json file
with node positions, anchors, connectors and boundary boxes that can be
drawn with 'render --from-layout' or any external renderer.

Results are cached, keyed by the endpoints and the layout options.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(c.Config.LayoutOptions())
			if err != nil {
				return err
			}
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached layout exists")
	flags = newLayoutFlags(cmd)

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	endpoints, err := pipeline.LoadEndpoints(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	opts.Formats = []string{pipeline.FormatJSON}
	result, err := runner.Execute(ctx, endpoints, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	prog.done(fmt.Sprintf("Laid out %d endpoints", len(endpoints)))

	data := result.Artifacts[pipeline.FormatJSON]
	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = defaultOutput(input, ".layout.json")
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", "flowmap render --from-layout "+output)
	return nil
}

// defaultOutput replaces the extension of an input file with suffix.
func defaultOutput(input, suffix string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".layout")
	return base + suffix
}
