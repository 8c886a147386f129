// Package nodelink renders woven flow graphs as directed node-link
// diagrams using Graphviz.
//
// # Overview
//
// The diagram reads left to right: every band of the ordering becomes one
// Graphviz rank, so nodes line up in the columns the definition declared.
// Link thickness is proportional to flow value, giving a quick visual
// read of where the volume goes. Synthetic via nodes are drawn dashed
// and grey to distinguish passthroughs from real groups.
//
// # Usage
//
// Convert a graph to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, convert the SVG with [render.ToPDF] or
// [render.ToPNG].
//
// The generated DOT is plain Graphviz source and can also be saved and
// processed with external tooling.
//
// [render.ToPDF]: github.com/flowweave/flowweave/pkg/render#ToPDF
// [render.ToPNG]: github.com/flowweave/flowweave/pkg/render#ToPNG
package nodelink
