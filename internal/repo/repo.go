package repo

import "errors"

// ErrNotFound is returned when no document matches the query.
var ErrNotFound = errors.New("record not found")
