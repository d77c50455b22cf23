package util

import "errors"

// Error kinds of the engine. Lookups never surface ErrNotFound to callers
// directly; they return an absent value and the controller maps it.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDataIntegrity     = errors.New("data integrity violation")
	ErrStorageFailure    = errors.New("storage failure")
	ErrQuotaExceeded     = errors.New("storage quota exceeded")
	ErrMigrationConflict = errors.New("progress changed during migration")
	ErrAlreadyMigrated   = errors.New("progress already migrated")
	ErrSnapshotMissing   = errors.New("migration snapshot missing")
)

// ErrorKind maps an engine error to its wire-level kind string.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrSnapshotMissing):
		return "NotFound"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrDataIntegrity):
		return "DataIntegrity"
	case errors.Is(err, ErrStorageFailure), errors.Is(err, ErrQuotaExceeded):
		return "StorageFailure"
	case errors.Is(err, ErrMigrationConflict):
		return "MigrationConflict"
	case errors.Is(err, ErrAlreadyMigrated):
		return "AlreadyMigrated"
	}
	return "Internal"
}
