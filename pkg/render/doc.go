// Package render provides visualization output for woven flow graphs.
//
// # Overview
//
// Rendering is downstream of the weave engine: it consumes the output
// graph and produces visual artifacts. The package provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Node-link diagrams (in [nodelink] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats
// using the external rsvg-convert tool (from librsvg):
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders the flow graph left to right with
// Graphviz, one rank per band, with link thickness proportional to flow
// value. See its package documentation for details.
//
// [nodelink]: github.com/flowweave/flowweave/pkg/render/nodelink
package render
