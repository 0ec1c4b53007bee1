// Package memory provides in-memory implementations of the driven ports.
//
// The stores back the "memory" storage backend and the "push" credential
// and liveness sources, where the host delivers state over the local API
// instead of the agent reading it from disk or a debugging endpoint.
package memory
