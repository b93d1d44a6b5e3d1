// Package storage implements the on-disk layer beneath the in-memory
// core: a write-ahead log of INSERT/DELETE
// lines for durability between checkpoints, plus immutable sorted-run
// metadata for whatever on-disk layer sits underneath. It has no
// visibility into the RuleIndex or the planner's stats cache — only the
// UnifiedIndex's triples.
package storage

import (
	"time"

	"github.com/wbrown/reasongraph/kg"
)

// SortedRunMeta describes one immutable sorted-run file: a serialized
// slice of triples plus the bookkeeping a compaction pass needs to
// decide which runs overlap.
type SortedRunMeta struct {
	ID         string
	Level      int
	MinKey     kg.Triple
	MaxKey     kg.Triple
	NumTriples int
	CreatedAt  time.Time
}

// Store is the contract the disk layer offers the in-memory UnifiedIndex
// for checkpoint and recovery: durable append of individual mutations
// (the WAL), and bulk load/save of a full snapshot (a checkpoint).
type Store interface {
	// AppendInsert durably records an INSERT of t before the caller
	// applies it to the in-memory index.
	AppendInsert(t kg.Triple) error
	// AppendDelete durably records a DELETE of t.
	AppendDelete(t kg.Triple) error
	// Checkpoint replaces the store's durable snapshot with ts and
	// truncates the WAL, since every mutation it recorded is now
	// reflected in the snapshot.
	Checkpoint(ts []kg.Triple) (SortedRunMeta, error)
	// Recover replays the last checkpoint plus any WAL entries written
	// since, returning the triples BuildFromTriples should load.
	Recover() ([]kg.Triple, error)
	// Close releases the store's resources.
	Close() error
}
