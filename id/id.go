package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind is implemented by marker types that scope an ID to a particular kind of
// entity, such as an aggregate type.
//
// The prefix appears in the string representation of every ID of that kind,
// making the kind recognizable in logs and persisted data.
type Kind interface {
	// Prefix returns a short lowercase tag that prefixes the string
	// representation of IDs of this kind.
	Prefix() string
}

// ID is a sortable unique identifier for an entity of kind K.
//
// IDs generated by New() are ordered by their creation time. The zero-value is
// not a valid ID.
type ID[K Kind] struct {
	value uuid.UUID
}

// New generates a new ID.
//
// IDs generated within the same process are monotonic.
func New[K Kind]() ID[K] {
	return ID[K]{
		uuid.Must(uuid.NewV7()),
	}
}

// Parse parses an ID of kind K from its string representation.
//
// It returns an error if s does not carry K's prefix, or if the remainder is
// not a canonical UUID.
func Parse[K Kind](s string) (ID[K], error) {
	var k K
	p := k.Prefix() + "_"

	if !strings.HasPrefix(s, p) {
		return ID[K]{}, fmt.Errorf(
			"'%s' is not a valid %s ID",
			s,
			k.Prefix(),
		)
	}

	v, err := uuid.Parse(s[len(p):])
	if err != nil {
		return ID[K]{}, fmt.Errorf(
			"'%s' is not a valid %s ID: %w",
			s,
			k.Prefix(),
			err,
		)
	}

	return ID[K]{v}, nil
}

// MustParse parses an ID of kind K from its string representation, or panics
// if it is unable to do so.
func MustParse[K Kind](s string) ID[K] {
	v, err := Parse[K](s)
	if err != nil {
		panic(err)
	}

	return v
}

// String returns the string representation of the ID.
func (v ID[K]) String() string {
	var k K
	return k.Prefix() + "_" + v.value.String()
}

// IsZero returns true if v is the zero-value, which is not a valid ID.
func (v ID[K]) IsZero() bool {
	return v.value == uuid.UUID{}
}

// EventKind is the ID kind used for domain events.
type EventKind struct{}

// Prefix returns the tag that prefixes event IDs.
func (EventKind) Prefix() string {
	return "evt"
}

// EventID uniquely identifies a domain event.
type EventID = ID[EventKind]

// NewEventID generates a new event ID.
func NewEventID() EventID {
	return New[EventKind]()
}
