// Package server implements the stdio protocol loop: it decodes framed
// requests from the orchestrator, dispatches tool executions, delivers
// credentials to the vault, and serializes framed responses.
//
// One goroutine owns the read side; each execute request runs in its own
// goroutine so slow tools never block credential delivery or shutdown.
// Responses are interleaved in completion order, correlated by request
// id. An idle watchdog terminates the process cleanly when the
// orchestrator goes silent.
package server
