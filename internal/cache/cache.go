// Package cache persists fetched series and derived payloads keyed by
// instrument identifier and payload kind, each kind with its own TTL. A
// stale, absent, or corrupt entry is always a miss, never an error the caller
// has to handle beyond refetching.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wonny/fundlens/internal/validate"
)

// ErrMiss is returned when no fresh entry exists for the key. Corrupt and
// expired entries fold into it.
var ErrMiss = errors.New("cache: miss")

// Kind names a payload class; each kind carries its own TTL.
type Kind string

const (
	KindHistorical  Kind = "historical"
	KindDescription Kind = "description"
	KindBenchmark   Kind = "benchmark"
	KindComposition Kind = "composition"
	// KindMapping stores ISIN-to-ticker mapping results. Mappings rarely
	// change, so they keep far longer than price data.
	KindMapping Kind = "mapping"
)

// TTL returns the time-to-live for the kind. Unknown kinds get the shortest
// TTL so bad keys age out quickly.
func (k Kind) TTL() time.Duration {
	switch k {
	case KindDescription:
		return 7 * 24 * time.Hour
	case KindMapping:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Entry is the persisted envelope: the raw payload plus write time, the
// source that produced it, and the optional validation report.
type Entry struct {
	Data       json.RawMessage  `json:"data"`
	Timestamp  time.Time        `json:"timestamp"`
	Source     string           `json:"source,omitempty"`
	Validation *validate.Report `json:"validation,omitempty"`
}

// Age returns how long ago the entry was written.
func (e *Entry) Age() time.Duration {
	return time.Since(e.Timestamp)
}

// Stale reports whether the entry has outlived the kind's TTL.
func (e *Entry) Stale(kind Kind) bool {
	return e.Age() > kind.TTL()
}

// Stats summarizes a store's contents.
type Stats struct {
	Entries int   `json:"entries"`
	Expired int   `json:"expired"`
	Bytes   int64 `json:"bytes"`
}

// Store is the backing key-value abstraction. Implementations must tolerate
// concurrent readers and last-writer-wins overwrites.
type Store interface {
	// Get returns the entry for the key, or ErrMiss when it is absent, stale,
	// or corrupt.
	Get(ctx context.Context, id string, kind Kind) (*Entry, error)
	// Put persists the entry, overwriting any previous one.
	Put(ctx context.Context, id string, kind Kind, e *Entry) error
	// Delete removes one entry. Deleting an absent entry is not an error.
	Delete(ctx context.Context, id string, kind Kind) error
	// Purge removes every entry.
	Purge(ctx context.Context) error
	// Stats summarizes the store.
	Stats(ctx context.Context) (Stats, error)
}
