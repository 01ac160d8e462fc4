package accountinfo

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrMissingAccountData is returned when account credentials are read
	// before any authorization data has been stored.
	ErrMissingAccountData = errors.New("missing account data")

	// ErrInvalidAuthData is returned when an account record fails
	// validation before being stored.
	ErrInvalidAuthData = errors.New("invalid auth data")

	// ErrBucketNotFound is returned when the bucket name cache has no
	// entry for the requested name or ID.
	ErrBucketNotFound = errors.New("bucket not found in cache")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("database error")
)

// CorruptStoreError is returned when the account info file is neither a
// usable database nor an importable legacy credentials file. The file
// is left on disk untouched so the operator can inspect it.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e CorruptStoreError) Error() string {
	return fmt.Sprintf("account info file is corrupt: %s", e.Path)
}

func (e CorruptStoreError) Unwrap() error {
	return e.Err
}

// BucketRestrictedError is returned when the application key is
// restricted to a different bucket than the one requested.
type BucketRestrictedError struct {
	AllowedBucket string
}

func (e BucketRestrictedError) Error() string {
	return fmt.Sprintf("invalid bucket name, authorization is limited to: %s", e.AllowedBucket)
}

// PrefixRestrictedError is returned when the application key is
// restricted to file names outside the requested prefix.
type PrefixRestrictedError struct {
	AllowedPrefix string
}

func (e PrefixRestrictedError) Error() string {
	return fmt.Sprintf("invalid file name prefix, authorization is limited to: %s", e.AllowedPrefix)
}

// IsLocked reports whether err is the engine's busy or locked
// condition, raised when the exclusive database lock could not be
// taken within the configured busy timeout. Callers can retry.
func IsLocked(err error) bool {
	var engineErr *sqlite.Error
	if !errors.As(err, &engineErr) {
		return false
	}
	code := engineErr.Code()
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}
