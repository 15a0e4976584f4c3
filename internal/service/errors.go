package service

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/neuron/internal/repository"
)

// ErrDemandNotFound is returned by Get and Delete for an unknown numero.
var ErrDemandNotFound = errors.New("demand not found")

// ErrInvalidDemand is returned, unwrapped by StorageError, for a demand the
// store refuses to write, such as one with a blank numero.
var ErrInvalidDemand = repository.ErrInvalidDemand

// StorageError reports a failure of the backing store. Callers are expected
// to keep running on an empty in-memory store rather than abort.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("demand store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// MigrationError reports a failed legacy import. Nothing from the failed run
// is kept, so the next startup retries it.
type MigrationError struct {
	Stage string
	Err   error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("legacy migration failed while %s: %v", e.Stage, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrInvalidDemand) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
