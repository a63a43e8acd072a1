package memorypersistence

import (
	"context"

	"github.com/kiroku-io/kiroku/persistence"
)

// LoadAggregateIDs returns the IDs of the aggregate instances associated with
// the given keyword.
func (ds *dataStore) LoadAggregateIDs(
	_ context.Context,
	keyword string,
) ([]string, error) {
	db, err := ds.database()
	if err != nil {
		return nil, err
	}

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var ids []string
	for id := range db.index.keywords[keyword] {
		ids = append(ids, id)
	}

	return ids, nil
}

// VisitSaveIndexEntry always returns nil, index entries are idempotent.
func (v *validator) VisitSaveIndexEntry(
	_ context.Context,
	op persistence.SaveIndexEntry,
) error {
	return nil
}

// VisitRemoveIndexEntry always returns nil, index entries are idempotent.
func (v *validator) VisitRemoveIndexEntry(
	_ context.Context,
	op persistence.RemoveIndexEntry,
) error {
	return nil
}

// VisitSaveIndexEntry applies the changes in a "SaveIndexEntry" operation to
// the database.
func (c *committer) VisitSaveIndexEntry(
	_ context.Context,
	op persistence.SaveIndexEntry,
) error {
	c.db.index.save(op.Keyword, op.AggregateID)
	return nil
}

// VisitRemoveIndexEntry applies the changes in a "RemoveIndexEntry" operation
// to the database.
func (c *committer) VisitRemoveIndexEntry(
	_ context.Context,
	op persistence.RemoveIndexEntry,
) error {
	c.db.index.remove(op.Keyword, op.AggregateID)
	return nil
}

// indexDatabase contains the inverted keyword index.
type indexDatabase struct {
	keywords map[string]map[string]struct{}
}

// save associates id with the keyword.
func (db *indexDatabase) save(keyword, id string) {
	if db.keywords == nil {
		db.keywords = map[string]map[string]struct{}{}
	}

	ids, ok := db.keywords[keyword]
	if !ok {
		ids = map[string]struct{}{}
		db.keywords[keyword] = ids
	}

	ids[id] = struct{}{}
}

// remove dissociates id from the keyword. The keyword itself is removed once
// its last instance is dissociated.
func (db *indexDatabase) remove(keyword, id string) {
	ids := db.keywords[keyword]

	delete(ids, id)

	if len(ids) == 0 {
		delete(db.keywords, keyword)
	}
}
