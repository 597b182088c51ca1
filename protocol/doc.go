package protocol

// This package implements the wire-protocol engine that xwire uses to talk
// to a database server: framing, buffered non-blocking I/O, asynchronous
// send/receive operations and message dispatch.
//
// This engine aims to be
//
// - cooperative (no background goroutines, no hidden scheduling)
// - allocation-shy (two reusable buffers per engine instance)
// - symmetric (the same machinery serves the client and the server side)
//
// === Wire frames
//
// Every message travels in a frame:
//
//   ```
//   [length: 4 bytes, little-endian][type: 1 byte][payload: length bytes]
//   ```
//
// `length` counts only the payload, never the type byte. The header is
// always exactly 5 bytes. Payloads are capped at 1GiB in both directions;
// anything larger is a protocol fault, not something we try to recover from.
//
// The length field is little-endian on the wire regardless of the host.
// encoding/binary does the conversion unconditionally, so a big-endian host
// gets the explicit swap for free.
//
// === Sides
//
// The message-type code space is split into two partitions: codes a server
// sends and codes a client sends. An engine instance is fixed for its whole
// life to receive exactly one partition (its Side) and to send the other.
// Two codes on the server partition are universal: Error and Notice.
//
// === Operations
//
// Sending and receiving are explicit operations that the caller drives:
//
//   ```
//   op, err := eng.Send(TypeStmtExecute, msg)
//   for !op.Poll() { }       // or op.Wait()
//   ```
//
// Poll never blocks; it advances the operation as far as the stream allows
// and hands control back when the stream would block. Wait loops to the next
// completion boundary. At most one send and one receive operation exist per
// engine at a time; asking for a receive while one is mid-flight resumes it
// (possibly with a different handler) instead of starting a second read
// against the same buffers.
//
// A receive operation reads one or more messages: notices are delivered to
// the error sink and never end the cycle, an error message always ends it,
// and for everything else the Handler bound to the cycle decides what is
// expected and whether to keep reading.
//
// Note: a single engine instance must not be driven from more than one
// goroutine at a time. The engine does no locking of its own; two engines
// (one per connection) are fully independent.
