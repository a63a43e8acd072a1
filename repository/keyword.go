package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/kiroku-io/kiroku/aggregate"
	"github.com/kiroku-io/kiroku/internal/mlog"
	"github.com/kiroku-io/kiroku/semaphore"
	"go.uber.org/multierr"
)

// LoadByKeyword reconstitutes every aggregate instance associated with the
// given keyword in the inverted index.
//
// Instances are loaded concurrently, bounded by r.ConcurrencyLimit. A failure
// to load one instance does not abort the query; the instance is skipped and
// its error is included in the returned error. The successfully loaded
// instances are returned in unspecified order even when err is non-nil.
func (r *EventSourced) LoadByKeyword(
	ctx context.Context,
	keyword string,
) (_ []*aggregate.VersionedAggregate, err error) {
	ids, err := r.DataStore.LoadAggregateIDs(ctx, keyword)
	if err != nil {
		return nil, err
	}

	limit := r.ConcurrencyLimit
	if limit == 0 {
		limit = DefaultConcurrencyLimit
	}

	var (
		sem       = semaphore.New(limit)
		m         sync.Mutex
		wg        sync.WaitGroup
		instances []*aggregate.VersionedAggregate
	)

	for _, id := range ids {
		id := id

		wg.Add(1)
		go func() {
			defer wg.Done()

			inst, e := r.loadOne(ctx, &sem, id)

			m.Lock()
			defer m.Unlock()

			if e != nil {
				err = multierr.Append(err, e)
				return
			}

			instances = append(instances, inst)
		}()
	}

	wg.Wait()

	return instances, err
}

// loadOne loads a single instance on behalf of LoadByKeyword(), waiting for
// the concurrency limit to allow it.
func (r *EventSourced) loadOne(
	ctx context.Context,
	sem *semaphore.Semaphore,
	id string,
) (*aggregate.VersionedAggregate, error) {
	if err := sem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer sem.Release()

	inst, err := r.Load(ctx, id)
	if err != nil {
		mlog.LogLoadFailure(r.Logger, id, err)

		return nil, fmt.Errorf(
			"aggregate %s could not be loaded: %w",
			id,
			err,
		)
	}

	return inst, nil
}
