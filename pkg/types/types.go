// Package types holds the small fixed-format value types shared across the
// circuit, message catalog, and LLSD packages: UUIDs and sequence numbers.
package types

import (
	"github.com/google/uuid"
)

// UUID is the 128-bit identifier used for agents, sessions, assets, and
// regions. It is a thin wrapper over google/uuid so the rest of the module
// can depend on a single canonical UUID type instead of raw byte slices.
type UUID = uuid.UUID

// Nil is the all-zero UUID.
var Nil = uuid.Nil

// ParseUUID parses the canonical hyphenated textual form.
func ParseUUID(s string) (UUID, error) {
	return uuid.Parse(s)
}

// UUIDFromBytes reads a UUID from its canonical 16-byte representation.
func UUIDFromBytes(b []byte) (UUID, error) {
	return uuid.FromBytes(b)
}

// SequenceNumber is a per-circuit, per-direction, strictly monotonic
// (modulo wraparound) packet counter assigned when a packet is first
// framed.
type SequenceNumber uint32

// SequenceCounter hands out SequenceNumbers in increasing order, wrapping
// at the uint32 boundary. It is not safe for concurrent use by itself —
// callers (the AckManager) serialize access to it on the sender goroutine.
type SequenceCounter struct {
	next uint32
}

// NewSequenceCounter returns a counter that starts at 0.
func NewSequenceCounter() *SequenceCounter {
	return &SequenceCounter{}
}

// Next returns the next sequence number and advances the counter.
func (c *SequenceCounter) Next() SequenceNumber {
	v := c.next
	c.next++
	return SequenceNumber(v)
}
