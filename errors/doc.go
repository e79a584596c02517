// Package errors provides the structured error type shared by every stage of
// the dataset pipeline.
//
// Errors carry a machine-readable code and optional details. Classification
// and join misses are never errors; everything that does surface here is fatal
// to the pass that produced it.
package errors
