package memorypersistence

import (
	"context"

	"github.com/kiroku-io/kiroku/persistence"
)

// LoadAggregateMetaData loads the meta-data for an aggregate instance.
func (ds *dataStore) LoadAggregateMetaData(
	_ context.Context,
	id string,
) (persistence.AggregateMetaData, error) {
	db, err := ds.database()
	if err != nil {
		return persistence.AggregateMetaData{}, err
	}

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	if md, ok := db.aggregate.metadata[id]; ok {
		return md, nil
	}

	return persistence.AggregateMetaData{
		AggregateID: id,
	}, nil
}

// VisitSaveAggregateMetaData returns an error if a "SaveAggregateMetaData"
// operation can not be applied to the database.
func (v *validator) VisitSaveAggregateMetaData(
	_ context.Context,
	op persistence.SaveAggregateMetaData,
) error {
	old := v.db.aggregate.metadata[op.MetaData.AggregateID]

	if op.MetaData.Revision == old.Revision {
		return nil
	}

	return persistence.ConflictError{
		Cause: op,
	}
}

// VisitSaveAggregateMetaData applies the changes in a "SaveAggregateMetaData"
// operation to the database.
func (c *committer) VisitSaveAggregateMetaData(
	_ context.Context,
	op persistence.SaveAggregateMetaData,
) error {
	c.db.aggregate.save(op.MetaData)
	return nil
}

// aggregateDatabase contains aggregate meta-data.
type aggregateDatabase struct {
	metadata map[string]persistence.AggregateMetaData
}

// save stores md in the database, incrementing its revision.
func (db *aggregateDatabase) save(md persistence.AggregateMetaData) {
	if db.metadata == nil {
		db.metadata = map[string]persistence.AggregateMetaData{}
	}

	md.Revision++
	db.metadata[md.AggregateID] = md
}
