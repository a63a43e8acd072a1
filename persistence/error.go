package persistence

import "errors"

// ErrDataStoreClosed is returned by operations on a data store that has been
// closed.
var ErrDataStoreClosed = errors.New("data store is closed")

// ErrDataStoreLocked indicates that a data store can not be opened because it
// is locked by another engine instance.
var ErrDataStoreLocked = errors.New("data store is locked")
