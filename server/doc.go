// Package server exposes a dataset over HTTP using Gin, served over HTTP/1.1
// and h2c.
//
// Each request to /v1/samples runs a fresh pass over the configured inputs
// and streams the samples as newline-delimited JSON, or as Server-Sent Events
// for clients that accept text/event-stream or pass format=sse. The pass stops
// when the requested limit is reached or the client goes away.
//
// # Middleware
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation into pass logs
//   - Tracing: one server span per request, parent of the pass span
//   - RequestLogger: request logging with latency
//
// # Endpoints
//
//   - /healthz: health of the dataset inputs
//   - /version: build version information
//   - /v1/info: dataset description and published resources
//   - /v1/categories: category vocabulary
//   - /v1/samples: NDJSON or SSE sample stream
package server
