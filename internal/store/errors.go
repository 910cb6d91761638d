package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when creating a user would violate a
// uniqueness constraint.
var ErrDuplicate = errors.New("already exists")
