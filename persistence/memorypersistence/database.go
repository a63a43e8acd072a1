package memorypersistence

import (
	"sync"
	"sync/atomic"

	"github.com/kiroku-io/kiroku/persistence"
)

// database encapsulates a single application's data.
type database struct {
	mutex sync.RWMutex
	open  uint32 // atomic

	aggregate aggregateDatabase
	event     eventDatabase
	snapshot  snapshotDatabase
	index     indexDatabase
	outbox    outboxDatabase
}

// newDatabase returns a new empty database.
func newDatabase() *database {
	return &database{}
}

// TryOpen attempts to open the database. If the database is already open it
// returns false.
//
// This is used to enforce the requirement that persistence providers only
// allow a single open data-store for each application.
func (db *database) TryOpen() bool {
	return atomic.CompareAndSwapUint32(&db.open, 0, 1)
}

// Close closes an open database.
//
// This allows a new data-store for this application to be opened via the
// provider.
func (db *database) Close() {
	atomic.CompareAndSwapUint32(&db.open, 1, 0)
}

// validator is an implementation of persistence.OperationVisitor that checks
// whether operations can be applied to the database without conflict.
type validator struct {
	db *database
}

// committer is an implementation of persistence.OperationVisitor that applies
// operations to the database.
//
// It is expected that the operations have already been validated using
// validator, and hence the commit phase can not fail.
type committer struct {
	db *database
}

var (
	_ persistence.OperationVisitor = (*validator)(nil)
	_ persistence.OperationVisitor = (*committer)(nil)
)
