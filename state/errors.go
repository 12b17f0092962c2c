package state

import "errors"

// ErrNotFound is returned when the unit being read does not exist.
var ErrNotFound = errors.New("not found")
