// Package pkg provides the core libraries for flowmap service dependency maps.
//
// # Overview
//
// flowmap takes a set of network endpoints, each with the protocols it listens
// on and the sources allowed to reach it, and computes a deterministic 2D
// layout: node sizes, positions, protocol and function anchors, connector
// points and boundary boxes. Drawing is left to the consumer. The pkg
// directory is organized into these areas:
//
//  1. [endpoint] - Input model, JSON/YAML decoding and validation
//  2. [layout] - The layout engine (connectivity, flows, levels, geometry)
//  3. [graph] - Serialization types for computed layouts
//  4. [pipeline] - Orchestration (parse → layout → render) with caching
//  5. [cache], [observability], [config], [errors] - Infrastructure
//  6. [render] - Node-link debug renderers
//  7. [server] - HTTP API over the pipeline
//
// # Architecture
//
// The typical data flow through flowmap:
//
//	Endpoint file (YAML/JSON) or POST /api/layout
//	         ↓
//	    [endpoint] package (decode + validate)
//	         ↓
//	    [layout] package (connectivity, weights, levels, geometry)
//	         ↓
//	    [graph] package (layout.json)
//	         ↓
//	    [render] package (DOT/SVG/PNG)
//
// # Quick Start
//
// Compute a layout with the focus on one service:
//
//	import (
//	    "github.com/matzehuels/flowmap/pkg/endpoint"
//	    "github.com/matzehuels/flowmap/pkg/layout"
//	)
//
//	eps, _ := endpoint.ReadFile("endpoints.yaml")
//	res := layout.Build(eps, layout.Options{
//	    Focus:   layout.FocusFilter{Self: "checkout"},
//	    Display: layout.DefaultDisplayFilters(),
//	})
//	l := res.Export()
//
// Or run the cached pipeline:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(ctx, eps, pipeline.DefaultOptions())
//
// [endpoint]: github.com/matzehuels/flowmap/pkg/endpoint
// [layout]: github.com/matzehuels/flowmap/pkg/layout
// [graph]: github.com/matzehuels/flowmap/pkg/graph
// [pipeline]: github.com/matzehuels/flowmap/pkg/pipeline
// [cache]: github.com/matzehuels/flowmap/pkg/cache
// [observability]: github.com/matzehuels/flowmap/pkg/observability
// [config]: github.com/matzehuels/flowmap/pkg/config
// [errors]: github.com/matzehuels/flowmap/pkg/errors
// [render]: github.com/matzehuels/flowmap/pkg/render
// [server]: github.com/matzehuels/flowmap/pkg/server
package pkg
