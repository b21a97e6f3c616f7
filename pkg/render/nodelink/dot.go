package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/graph"
)

// pointsPerInch converts layout pixels (one point each) to Graphviz inches.
const pointsPerInch = 72.0

// Format is an output format of [Render].
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatDOT Format = "dot"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes weight, level, row and protocol lines in node labels.
	// When false, only the display label is shown.
	Detailed bool
	// Boundaries draws the boundary boxes of the layout behind the nodes.
	Boundaries bool
}

// ToDOT converts a computed layout to Graphviz DOT. Every node is pinned at
// its computed position, so the neato engine only routes the edges.
//
// Fogged nodes are drawn dashed and grey. Aggregated edges are drawn dotted.
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	if opts.Boundaries {
		for i, b := range l.Boundaries {
			attrs := []string{
				fmt.Sprintf("label=%q", b.Title),
				"shape=box", "style=dashed", "labelloc=t", "fontcolor=grey40", "color=grey60",
			}
			attrs = append(attrs, geometry(l.Height, b.X, b.Y, b.Width, b.Height)...)
			fmt.Fprintf(&buf, "  %q [%s];\n", fmt.Sprintf("boundary#%d", i), strings.Join(attrs, ", "))
		}
	}

	for i := range l.Nodes {
		n := &l.Nodes[i]
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		attrs = append(attrs, geometry(l.Height, n.X, n.Y, n.Width, n.Height)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		if e.Aggregated {
			fmt.Fprintf(&buf, "  %q -> %q [style=dotted, color=grey50];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *graph.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed {
		return label
	}

	parts := []string{fmt.Sprintf("level: %d row: %d", n.Level, n.Row)}
	if n.Weight != nil {
		parts = append(parts, fmt.Sprintf("weight: %d", *n.Weight))
	}
	if n.ConnectionType != "" {
		parts = append(parts, n.ConnectionType)
	}
	for _, p := range n.Protocols {
		line := p.ID
		if p.Port != 0 {
			line = fmt.Sprintf("%s %s/%d", p.ID, p.L4, p.Port)
		}
		if p.MoreCount > 0 {
			line += fmt.Sprintf(" (+%d)", p.MoreCount)
		}
		parts = append(parts, line)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *graph.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsFogged() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=grey95", "fontcolor=grey50", "color=grey70")
	} else if n.Outside {
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	return attrs
}

// geometry pins a box at its layout position. Graphviz measures node
// positions from the center with y growing upwards.
func geometry(canvasHeight, x, y, w, h float64) []string {
	cx := x + w/2
	cy := canvasHeight - y - h/2
	return []string{
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(cx), fmtFloat(cy)),
		fmt.Sprintf("width=%s", fmtFloat(w/pointsPerInch)),
		fmt.Sprintf("height=%s", fmtFloat(h/pointsPerInch)),
	}
}

func fmtFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// Render renders a DOT graph with Graphviz in the requested format. FormatDOT
// returns the input unchanged.
func Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch format {
	case FormatSVG, "":
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	case FormatDOT:
		return []byte(dot), nil
	default:
		return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported render format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeRender, err, "render")
	}
	if gvFormat == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// RenderSVG renders a DOT graph to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, FormatSVG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
