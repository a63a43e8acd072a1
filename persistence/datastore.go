package persistence

import (
	"context"
	"sync"

	"go.uber.org/multierr"
)

// DataStore is an interface used by the engine to persist and retrieve data
// for a specific application.
type DataStore interface {
	AggregateRepository
	EventRepository
	SnapshotRepository
	InvertedIndexRepository
	OutboxRepository
	Persister

	// Close closes the data store.
	//
	// Closing a data store prevents any further reads or writes. Any
	// in-flight calls may return ErrDataStoreClosed.
	Close() error
}

// Provider is an interface used by the engine to obtain application-specific
// DataStore instances.
type Provider interface {
	// Open returns a data store for the application with the given key.
	Open(ctx context.Context, key string) (DataStore, error)
}

// DataStoreSet is a collection of data stores opened from a single provider,
// keyed by application.
type DataStoreSet struct {
	Provider Provider

	m      sync.Mutex
	stores map[string]DataStore
}

// Get returns the data store for the application with the given key, opening
// it if it has not been opened already.
//
// The returned data store is shared; it must not be closed by the caller.
func (s *DataStoreSet) Get(ctx context.Context, key string) (DataStore, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if ds, ok := s.stores[key]; ok {
		return ds, nil
	}

	ds, err := s.Provider.Open(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.stores == nil {
		s.stores = map[string]DataStore{}
	}
	s.stores[key] = ds

	return ds, nil
}

// Close closes all data stores in the set.
func (s *DataStoreSet) Close() error {
	s.m.Lock()
	defer s.m.Unlock()

	stores := s.stores
	s.stores = nil

	var err error
	for _, ds := range stores {
		err = multierr.Append(err, ds.Close())
	}

	return err
}
