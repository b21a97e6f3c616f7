// Package graph provides the serialization format for computed maps.
//
// This package defines the canonical wire format for Flowmap layouts, used for
// JSON files, API responses, caching and the debug renderer. It has no
// dependency on the layout engine; layout results are converted with
// layout.Result.Export.
//
// # Core Types
//
//   - [Layout]: canvas size, positioned nodes, edges and boundary boxes
//   - [Node]: a positioned endpoint with its protocol rows and connectors
//   - [Edge]: a displayed relationship, possibly part of an aggregated fan
//   - [Boundary]: a namespace or app grouping box
//
// # Layout Serialization
//
//	data, _ := graph.MarshalLayout(l)         // Layout → []byte
//	l, _ := graph.UnmarshalLayout(data)       // []byte → Layout (validated)
//	graph.WriteLayoutFile(l, "map.json")      // Layout → File
//	l, _ := graph.ReadLayoutFile("map.json")  // File → Layout
//
// All types carry json and bson tags so a layout can be stored as-is in a
// document database.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
