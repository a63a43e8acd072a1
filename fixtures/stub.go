package fixtures

import (
	"context"
	"time"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/persistence"
	"github.com/kiroku-io/kiroku/persistence/memorypersistence"
)

// ProviderStub is a test implementation of the persistence.Provider interface.
type ProviderStub struct {
	persistence.Provider

	OpenFunc func(context.Context, string) (persistence.DataStore, error)
}

// Open returns a data-store for a specific application.
func (p *ProviderStub) Open(ctx context.Context, k string) (persistence.DataStore, error) {
	if p.OpenFunc != nil {
		return p.OpenFunc(ctx, k)
	}

	if p.Provider != nil {
		ds, err := p.Provider.Open(ctx, k)
		if ds != nil {
			ds = &DataStoreStub{DataStore: ds}
		}
		return ds, err
	}

	return nil, nil
}

// DataStoreStub is a test implementation of the persistence.DataStore
// interface.
type DataStoreStub struct {
	persistence.DataStore

	LoadAggregateMetaDataFunc func(context.Context, string) (persistence.AggregateMetaData, error)
	LoadEventsBySourceFunc    func(context.Context, string, aggregate.SequenceNumber) (persistence.EventResult, error)
	LoadSnapshotFunc          func(context.Context, string) (persistence.Snapshot, bool, error)
	LoadAggregateIDsFunc      func(context.Context, string) ([]string, error)
	LoadOutboxRecordsFunc     func(context.Context, int) ([]persistence.OutboxRecord, error)
	ClaimOutboxRecordsFunc    func(context.Context, int, time.Duration) ([]persistence.OutboxRecord, error)
	PersistFunc               func(context.Context, persistence.Batch) error
	CloseFunc                 func() error
}

// NewDataStoreStub returns a new data-store stub that uses an in-memory
// persistence provider.
func NewDataStoreStub() *DataStoreStub {
	p := &ProviderStub{
		Provider: &memorypersistence.Provider{},
	}

	ds, err := p.Open(context.Background(), DefaultAppKey)
	if err != nil {
		panic(err)
	}

	return ds.(*DataStoreStub)
}

// LoadAggregateMetaData loads the meta-data for an aggregate instance.
func (ds *DataStoreStub) LoadAggregateMetaData(
	ctx context.Context,
	id string,
) (persistence.AggregateMetaData, error) {
	if ds.LoadAggregateMetaDataFunc != nil {
		return ds.LoadAggregateMetaDataFunc(ctx, id)
	}

	if ds.DataStore != nil {
		return ds.DataStore.LoadAggregateMetaData(ctx, id)
	}

	return persistence.AggregateMetaData{}, nil
}

// LoadEventsBySource loads the events produced by a specific aggregate
// instance.
func (ds *DataStoreStub) LoadEventsBySource(
	ctx context.Context,
	id string,
	seq aggregate.SequenceNumber,
) (persistence.EventResult, error) {
	if ds.LoadEventsBySourceFunc != nil {
		return ds.LoadEventsBySourceFunc(ctx, id, seq)
	}

	if ds.DataStore != nil {
		return ds.DataStore.LoadEventsBySource(ctx, id, seq)
	}

	return nil, nil
}

// LoadSnapshot loads the most recent snapshot for an aggregate instance.
func (ds *DataStoreStub) LoadSnapshot(
	ctx context.Context,
	id string,
) (persistence.Snapshot, bool, error) {
	if ds.LoadSnapshotFunc != nil {
		return ds.LoadSnapshotFunc(ctx, id)
	}

	if ds.DataStore != nil {
		return ds.DataStore.LoadSnapshot(ctx, id)
	}

	return persistence.Snapshot{}, false, nil
}

// LoadAggregateIDs returns the IDs of the aggregate instances associated with
// the given keyword.
func (ds *DataStoreStub) LoadAggregateIDs(
	ctx context.Context,
	keyword string,
) ([]string, error) {
	if ds.LoadAggregateIDsFunc != nil {
		return ds.LoadAggregateIDsFunc(ctx, keyword)
	}

	if ds.DataStore != nil {
		return ds.DataStore.LoadAggregateIDs(ctx, keyword)
	}

	return nil, nil
}

// LoadOutboxRecords loads up to n unpublished outbox records.
func (ds *DataStoreStub) LoadOutboxRecords(
	ctx context.Context,
	n int,
) ([]persistence.OutboxRecord, error) {
	if ds.LoadOutboxRecordsFunc != nil {
		return ds.LoadOutboxRecordsFunc(ctx, n)
	}

	if ds.DataStore != nil {
		return ds.DataStore.LoadOutboxRecords(ctx, n)
	}

	return nil, nil
}

// ClaimOutboxRecords atomically claims up to n due outbox records.
func (ds *DataStoreStub) ClaimOutboxRecords(
	ctx context.Context,
	n int,
	lease time.Duration,
) ([]persistence.OutboxRecord, error) {
	if ds.ClaimOutboxRecordsFunc != nil {
		return ds.ClaimOutboxRecordsFunc(ctx, n, lease)
	}

	if ds.DataStore != nil {
		return ds.DataStore.ClaimOutboxRecords(ctx, n, lease)
	}

	return nil, nil
}

// Persist performs the given batch of operations atomically.
func (ds *DataStoreStub) Persist(ctx context.Context, b persistence.Batch) error {
	if ds.PersistFunc != nil {
		return ds.PersistFunc(ctx, b)
	}

	if ds.DataStore != nil {
		return ds.DataStore.Persist(ctx, b)
	}

	return nil
}

// Close closes the data store.
func (ds *DataStoreStub) Close() error {
	if ds.CloseFunc != nil {
		return ds.CloseFunc()
	}

	if ds.DataStore != nil {
		return ds.DataStore.Close()
	}

	return nil
}
