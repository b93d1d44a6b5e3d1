package cli

import (
	"fmt"

	"github.com/wbrown/reasongraph/kg"
	"github.com/wbrown/reasongraph/kg/reasoner"
	"github.com/wbrown/reasongraph/kg/storage"
)

// session bundles a Reasoner with its optional on-disk collaborator, so
// every subcommand that mutates triples can recover on open and
// checkpoint on close without duplicating that plumbing.
type session struct {
	reasoner *reasoner.Reasoner
	store    *storage.BadgerStore
}

func openSession(opts *RootOptions) (*session, error) {
	cfg := reasoner.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := reasoner.LoadConfig(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	r := reasoner.New(cfg)

	if opts.DBPath == "" {
		return &session{reasoner: r}, nil
	}

	store, err := storage.NewBadgerStore(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", opts.DBPath, err)
	}

	triples, err := store.Recover()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("recovering from %s: %w", opts.DBPath, err)
	}
	r.InsertTriples(triples)

	return &session{reasoner: r, store: store}, nil
}

// insertTriple applies t to the reasoner and, if a store is attached,
// durably logs it to the WAL first.
func (s *session) insertTriple(t kg.Triple) error {
	if s.store != nil {
		if err := s.store.AppendInsert(t); err != nil {
			return err
		}
	}
	s.reasoner.InsertTriple(t)
	return nil
}

// checkpoint folds the reasoner's current triples into a fresh snapshot
// and truncates the WAL, if a store is attached.
func (s *session) checkpoint() error {
	if s.store == nil {
		return nil
	}
	_, err := s.store.Checkpoint(s.reasoner.Index().Snapshot())
	return err
}

func (s *session) close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
