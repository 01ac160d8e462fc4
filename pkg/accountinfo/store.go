package accountinfo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stratus/pkg/log"
)

const (
	// credentialFileMode keeps the stored credentials readable and
	// writable by the owning user only.
	credentialFileMode = 0o600

	// DefaultBusyTimeout is how long a connection waits for the exclusive
	// database lock before giving up with a busy error.
	DefaultBusyTimeout = 5 * time.Second
)

// Options contains optional settings for opening a store.
type Options struct {
	// BusyTimeout overrides DefaultBusyTimeout when positive. Callers
	// that need responsiveness under contention should set a short
	// timeout and retry when IsLocked reports the failure as busy.
	BusyTimeout time.Duration
}

// Store keeps the account record and the bucket name cache in a single
// SQLite file. Mutual exclusion is delegated to the database engine:
// every transaction starts BEGIN EXCLUSIVE, so concurrent writers
// queue on the engine's lock and readers wait for writers to finish.
// Connections are created lazily by database/sql and reused.
type Store struct {
	urlPools

	db          *sql.DB
	path        string
	busyTimeout time.Duration
}

// NewStore opens the account info database, creating, migrating or
// converting whatever currently occupies the path. An empty path falls
// back to ResolvePath resolution. The returned store is ready for use;
// a CorruptStoreError means the file must be moved aside by hand.
func NewStore(path string, opts *Options) (*Store, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	busyTimeout := DefaultBusyTimeout
	if opts != nil && opts.BusyTimeout > 0 {
		busyTimeout = opts.BusyTimeout
	}

	store := &Store{path: resolved, busyTimeout: busyTimeout}
	if err := store.validate(); err != nil {
		return nil, err
	}
	return store, nil
}

// open connects to the database file and brings the schema up to date.
// Leaves s.db unset when the file cannot be used.
func (s *Store) open() error {
	dsn := fmt.Sprintf("%s?_txlock=exclusive&_pragma=busy_timeout(%d)", s.path, s.busyTimeout.Milliseconds())
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%w: failed to open database: %w", ErrDatabaseError, err)
	}

	if err := migrate(database); err != nil {
		_ = database.Close()
		return err
	}

	s.db = database
	return nil
}

// migrate applies the base schema and every numbered update that has
// not run yet.
func migrate(database *sql.DB) error {
	if _, err := database.Exec(Schema); err != nil {
		return fmt.Errorf("%w: failed to initialize schema: %w", ErrDatabaseError, err)
	}

	for _, update := range schemaUpdates {
		if err := ensureUpdate(database, update); err != nil {
			return err
		}
	}
	return nil
}

// ensureUpdate applies one numbered schema update. The statement and
// its update_done marker commit together, so a failure leaves neither
// behind and the update runs again on the next open.
func ensureUpdate(database *sql.DB, update schemaUpdate) error {
	tx, err := database.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrDatabaseError, err)
	}
	defer func() { _ = tx.Rollback() }()

	var done int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM update_done WHERE update_number = ?;`, update.number).Scan(&done); err != nil {
		return fmt.Errorf("%w: failed to check update %d: %w", ErrDatabaseError, update.number, err)
	}
	if done > 0 {
		return nil
	}

	if _, err := tx.Exec(update.statement); err != nil {
		return fmt.Errorf("%w: failed to apply update %d: %w", ErrDatabaseError, update.number, err)
	}
	if _, err := tx.Exec(`INSERT INTO update_done (update_number) VALUES (?);`, update.number); err != nil {
		return fmt.Errorf("%w: failed to record update %d: %w", ErrDatabaseError, update.number, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit update %d: %w", ErrDatabaseError, update.number, err)
	}

	log.Debug().Int("update", update.number).Msg("applied schema update")
	return nil
}

// withTx runs fn inside an exclusive transaction, rolling back when fn
// or the commit fails.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrDatabaseError, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", ErrDatabaseError, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the location of the backing database file.
func (s *Store) Path() string {
	return s.path
}
