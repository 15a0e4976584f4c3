package repository

import "errors"

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")

// ErrInvalidDemand is wrapped when a demand cannot be stored as given.
var ErrInvalidDemand = errors.New("invalid demand")
