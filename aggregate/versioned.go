package aggregate

// VersionedAggregate pairs an aggregate root with its position in the event
// stream.
//
// The version is only ever advanced by Apply(); command handling never mutates
// the position. A VersionedAggregate is owned exclusively by a single command
// execution and is not safe for concurrent use.
type VersionedAggregate struct {
	root    Root
	version Version
	seqNr   SequenceNumber
}

// NewVersioned returns a versioned wrapper around root at the given position.
//
// A newly instantiated aggregate starts at version 0 with no events.
func NewVersioned(
	root Root,
	version Version,
	seqNr SequenceNumber,
) *VersionedAggregate {
	return &VersionedAggregate{
		root:    root,
		version: version,
		seqNr:   seqNr,
	}
}

// Root returns the wrapped aggregate root.
func (a *VersionedAggregate) Root() Root {
	return a.root
}

// AggregateID returns the ID of the aggregate instance.
func (a *VersionedAggregate) AggregateID() string {
	return a.root.AggregateID()
}

// Version returns the instance's current version.
func (a *VersionedAggregate) Version() Version {
	return a.version
}

// SequenceNumber returns the sequence number of the last event applied to the
// instance.
func (a *VersionedAggregate) SequenceNumber() SequenceNumber {
	return a.seqNr
}

// Handle validates c against the current state.
//
// It does not advance the version; the event only becomes part of the
// instance's history once it has been appended to the event store and applied
// via Apply().
func (a *VersionedAggregate) Handle(c Command) (DomainEvent, error) {
	return a.root.Handle(c)
}

// Apply folds e into the aggregate state and advances the position to the
// given version and sequence number.
func (a *VersionedAggregate) Apply(
	e DomainEvent,
	v Version,
	s SequenceNumber,
) {
	a.root.Apply(e)
	a.version = v
	a.seqNr = s
}
