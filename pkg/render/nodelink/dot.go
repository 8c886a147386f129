package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/flowweave/flowweave/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed appends band/bucket metadata to node labels and flow
	// values to link labels. When false, labels stay minimal.
	Detailed bool
}

// ToDOT converts a woven graph to Graphviz DOT source. Bands map to
// ranks, so the diagram preserves the definition's left-to-right layout.
// The result can be rendered with [RenderSVG] or saved for external
// Graphviz tooling.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flows {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("  nodesep=0.4;\n")

	for _, band := range bands(g) {
		buf.WriteString("\n  { rank=same;\n")
		for _, n := range band {
			fmt.Fprintf(&buf, "    %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	maxVal := maxLinkValue(g)
	for _, l := range g.Links {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.From, l.To, strings.Join(linkAttrs(l, maxVal, opts.Detailed), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// bands groups nodes by band index, preserving emission order within
// each band.
func bands(g *graph.Graph) [][]graph.Node {
	var out [][]graph.Node
	for _, n := range g.Nodes {
		for n.Band >= len(out) {
			out = append(out, nil)
		}
		out[n.Band] = append(out[n.Band], n)
	}
	return out
}

func nodeAttrs(n graph.Node, detailed bool) []string {
	if n.IsVia() {
		return []string{`label=""`, "shape=point", "width=0.15", "color=grey"}
	}
	label := n.DisplayTitle()
	if detailed && n.Bucket != "" {
		label = fmt.Sprintf("%s\n%s", n.Group, n.Bucket)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.CatchAll {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

func linkAttrs(l graph.Link, maxVal float64, detailed bool) []string {
	label := l.Material
	if detailed {
		label = fmt.Sprintf("%s (%g)", l.Material, l.Value)
	}
	width := 1.0
	if maxVal > 0 {
		width = 1.0 + 5.0*l.Value/maxVal
	}
	return []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("penwidth=%.2f", width),
		"fontsize=11",
		"color=grey40",
	}
}

func maxLinkValue(g *graph.Graph) float64 {
	var max float64
	for _, l := range g.Links {
		if l.Value > max {
			max = l.Value
		}
	}
	return max
}

// RenderSVG renders DOT source to SVG using in-process Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the viewBox starts at
// the origin and explicit pixel dimensions are present. Embedding
// contexts differ in how they treat offset viewBoxes.
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
