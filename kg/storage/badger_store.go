package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/wbrown/reasongraph/kg"
)

const (
	walPrefix        = "wal:"
	walSeqKey        = "wal:seq"
	checkpointMeta   = "checkpoint:meta"
	checkpointData   = "checkpoint:data"
	insertOp         = "INSERT"
	deleteOp         = "DELETE"
)

// BadgerStore is the on-disk collaborator over the in-memory
// UnifiedIndex: badger holds a WAL of INSERT/DELETE text lines plus the
// latest checkpoint's serialized triple snapshot and SortedRunMeta. It
// never looks at a RuleIndex or a planner.Statistics cache — those stay
// purely in-memory, on the other side of the core/disk split.
type BadgerStore struct {
	mu  sync.Mutex
	db  *badger.DB
	seq uint64
}

// NewBadgerStore opens (or creates) a badger-backed store at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.MemTableSize = 128 << 20
	opts.BlockCacheSize = 256 << 20
	opts.IndexCacheSize = 100 << 20
	opts.DetectConflicts = false
	opts.NumCompactors = 4
	opts.ValueThreshold = 1 << 10

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	s := &BadgerStore{db: db}
	if err := s.loadSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *BadgerStore) loadSeq() error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(walSeqKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.ParseUint(string(val), 10, 64)
			if err != nil {
				return err
			}
			s.seq = n
			return nil
		})
	})
}

func walLine(op string, t kg.Triple) string {
	return fmt.Sprintf("%s %d %d %d", op, t.S, t.P, t.O)
}

func parseWALLine(line string) (op string, t kg.Triple, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return "", kg.Triple{}, false
	}
	s, err1 := strconv.ParseUint(fields[1], 10, 32)
	p, err2 := strconv.ParseUint(fields[2], 10, 32)
	o, err3 := strconv.ParseUint(fields[3], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", kg.Triple{}, false
	}
	return fields[0], kg.NewTriple(uint32(s), uint32(p), uint32(o)), true
}

func (s *BadgerStore) appendWAL(op string, t kg.Triple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := fmt.Sprintf("%s%020d", walPrefix, s.seq)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), []byte(walLine(op, t))); err != nil {
			return err
		}
		return txn.Set([]byte(walSeqKey), []byte(strconv.FormatUint(s.seq, 10)))
	})
}

// AppendInsert durably records an INSERT line before the caller applies
// it to the in-memory UnifiedIndex.
func (s *BadgerStore) AppendInsert(t kg.Triple) error {
	return s.appendWAL(insertOp, t)
}

// AppendDelete durably records a DELETE line.
func (s *BadgerStore) AppendDelete(t kg.Triple) error {
	return s.appendWAL(deleteOp, t)
}

// Checkpoint replaces the durable snapshot with ts (the current contents
// of BuildFromTriples/Snapshot) and truncates the WAL, since every
// mutation it recorded is now folded into the snapshot.
func (s *BadgerStore) Checkpoint(ts []kg.Triple) (SortedRunMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := buildMeta(ts)

	var dataBuf, metaBuf bytes.Buffer
	if err := gob.NewEncoder(&dataBuf).Encode(ts); err != nil {
		return SortedRunMeta{}, fmt.Errorf("encode checkpoint data: %w", err)
	}
	if err := gob.NewEncoder(&metaBuf).Encode(meta); err != nil {
		return SortedRunMeta{}, fmt.Errorf("encode checkpoint meta: %w", err)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(checkpointData), dataBuf.Bytes()); err != nil {
			return err
		}
		if err := txn.Set([]byte(checkpointMeta), metaBuf.Bytes()); err != nil {
			return err
		}
		return s.deleteWALLocked(txn)
	})
	if err != nil {
		return SortedRunMeta{}, err
	}
	s.seq = 0
	return meta, nil
}

func (s *BadgerStore) deleteWALLocked(txn *badger.Txn) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	var keys [][]byte
	prefix := []byte(walPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, append([]byte{}, it.Item().Key()...))
	}
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func buildMeta(ts []kg.Triple) SortedRunMeta {
	meta := SortedRunMeta{
		ID:         uuid.NewString(),
		Level:      0,
		NumTriples: len(ts),
		CreatedAt:  time.Now(),
	}
	for i, t := range ts {
		if i == 0 || t.Less(meta.MinKey) {
			meta.MinKey = t
		}
		if i == 0 || meta.MaxKey.Less(t) {
			meta.MaxKey = t
		}
	}
	return meta
}

// Recover replays the last checkpoint (if any) plus every WAL entry
// written since, in sequence order, returning the triples
// BuildFromTriples should load to restore the in-memory index.
func (s *BadgerStore) Recover() ([]kg.Triple, error) {
	present := make(map[kg.Triple]bool)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(checkpointData))
		if err == nil {
			if err := item.Value(func(val []byte) error {
				var ts []kg.Triple
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&ts); err != nil {
					return err
				}
				for _, t := range ts {
					present[t] = true
				}
				return nil
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(walPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if key == walSeqKey {
				continue
			}
			if err := it.Item().Value(func(val []byte) error {
				op, t, ok := parseWALLine(string(val))
				if !ok {
					return nil
				}
				switch op {
				case insertOp:
					present[t] = true
				case deleteOp:
					delete(present, t)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]kg.Triple, 0, len(present))
	for t := range present {
		out = append(out, t)
	}
	return out, nil
}

// Close releases badger's resources.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
