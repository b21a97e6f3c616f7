// Package endpoint defines the discovered network endpoints that Flowmap lays out.
//
// # Overview
//
// An [Endpoint] is a service (or an outside identity such as a DNS name or a
// CIDR) together with the [Protocol]s it exposes. Every protocol, and every
// [Function] within a protocol (an HTTP route, a DNS query, a Kafka API call),
// carries an allow-list of source endpoint IDs. An allowed source S on a
// protocol of endpoint E is read as a directed relationship S → E.
//
// Endpoints are produced by an upstream discovery collaborator and are treated
// as immutable by the layout engine. IDs are expected to be stable across
// calls so that layouts stay stable too.
//
// # Labels
//
// Labels are key/value pairs. Keys starting with [ReservedPrefix] are
// reserved: they classify an endpoint (host, world) but are never displayed.
// The namespace of an endpoint is the value of [NamespaceLabel].
//
// # Files
//
// [ReadFile] loads endpoints from JSON or YAML. Both a bare list and a
// document with a top-level "endpoints" key are accepted:
//
//	endpoints:
//	  - id: api
//	    name: api
//	    labels:
//	      - {key: "k8s:io.kubernetes.pod.namespace", value: shop}
//	    protocols:
//	      - id: api-http
//	        l4: TCP
//	        l7: http
//	        port: 8080
//	        allowedSources: [frontend]
//
// Use [Validate] before handing endpoints to the layout engine; the engine
// itself never fails and silently skips references it cannot resolve.
package endpoint
