package a11y

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces issue identifiers. Implementations must be safe for
// concurrent use because detectors may run in parallel.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random version 4 UUIDs.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator generates "<prefix>-<n>" identifiers from a counter.
type SequenceGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequenceGenerator creates a SequenceGenerator. An empty prefix
// defaults to "issue".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "issue"
	}
	return &SequenceGenerator{prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (g *SequenceGenerator) NewID() string {
	n := g.counter.Add(1)
	return g.prefix + "-" + strconv.FormatUint(n, 10)
}
