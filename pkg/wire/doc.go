// Package wire defines the framed protocol spoken between the tool server
// and its orchestrator: length-prefixed JSON messages over a byte stream.
//
// Each frame is a 4-byte big-endian length followed by that many bytes of
// UTF-8 JSON. The Decoder owns a growing byte arena with a single read
// cursor; callers feed raw chunks in and receive zero or more complete
// payloads back. Frames declaring a length beyond MaxFrameBytes are
// reported as malformed and their payload is discarded without blocking
// subsequent frames.
//
// The package also defines the request/response payload shapes and the
// ToolResult type produced by every tool executor. It has no knowledge of
// tool semantics and depends only on the standard library.
package wire
