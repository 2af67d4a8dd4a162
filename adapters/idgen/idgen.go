// Package idgen provides ID generators for sessions and snapshots.
package idgen

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/artpar/cmsdesk/ports"
	"github.com/google/uuid"
)

// UUID generates random UUIDs, optionally prefixed ("ses_", "snp_").
type UUID struct {
	Prefix string
}

// New generates a new UUID v4.
func (g UUID) New() string {
	return g.Prefix + uuid.New().String()
}

// Short generates compact IDs: the prefix plus the first 12 hex digits of a
// UUID v4. Used where IDs are typed by hand, such as snapshot references on
// the command line.
type Short struct {
	Prefix string
}

// New generates a new short ID.
func (g Short) New() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return g.Prefix + hex[:12]
}

// Sequential generates sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset resets the counter.
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = Short{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
