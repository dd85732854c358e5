// Package tools implements the tool executors the dispatcher routes
// execute requests to: bash, read, write, list, glob, grep, and patch,
// plus a compatibility shim for the legacy action+path calling
// convention.
//
// Every executor is a method on Toolbox and returns a well-formed
// wire.ToolResult; no error or panic propagates past the Execute
// boundary. Shell commands pass through the pipeline validator and
// every filesystem path through the path resolver before any real
// operation happens.
package tools
