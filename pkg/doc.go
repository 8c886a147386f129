// Package pkg provides the core libraries for Flowweave Sankey weaving.
//
// # Overview
//
// Flowweave turns tables of flow records into aggregated Sankey graphs
// driven by a declarative diagram definition. The pkg directory is
// organized into five main areas:
//
//  1. [dataset], [expr] - Flow tables, dimension tables, and the selector predicate language
//  2. [sankey] - Diagram definitions (selectors, partitions, bundles) and the weave engine
//  3. [graph], [render] - The woven output graph and its DOT/SVG/PDF/PNG renderers
//  4. [cache], [history], [store] - Result caching, the local run log, and named graph storage
//  5. [pipeline] - Orchestration (weave → render) with per-stage caching
//
// # Architecture
//
// The typical data flow through Flowweave:
//
//	Flow CSV + Dimension CSVs          TOML definition
//	         ↓                                ↓
//	    dataset.Dataset              sankey.Definition
//	         └──────────┬─────────────────────┘
//	                    ↓
//	            sankey/weave.Weave
//	                    ↓
//	      graph.Graph + weave.Diagnostics
//	                    ↓
//	         render/nodelink, render
//	                    ↓
//	          DOT / SVG / PDF / PNG
//
// The pipeline package wraps the weave and render stages behind a
// content-addressed cache so repeated runs over unchanged inputs are
// served without recomputation. The errors package carries the coded
// error taxonomy every layer reports through, and observability exposes
// hook points the HTTP server backs with Prometheus metrics.
package pkg
