// Package link runs the framing protocol over one byte-stream transport.
//
// Ownership boundary:
// - read loop feeding a per-connection frame.Decoder
// - framed writes serialized behind a mutex
// - transport reopen with exponential backoff
//
// A Link never shares its decoder: only the Run goroutine feeds it. Stall
// detection and delivery guarantees are out of scope.
package link
