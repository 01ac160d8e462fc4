package accountinfo

import (
	"database/sql"
	"errors"
	"fmt"

	"stratus/pkg/log"
	"stratus/pkg/models"
)

// RefreshBucketCache replaces the entire bucket name cache with the
// given listing. After a refresh the cache holds exactly the entries
// passed in, nothing else.
func (s *Store) RefreshBucketCache(entries []models.BucketEntry) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM bucket;`); err != nil {
			return err
		}
		for _, entry := range entries {
			if _, err := tx.Exec(`INSERT INTO bucket (bucket_name, bucket_id) VALUES (?, ?);`, entry.Name, entry.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveBucket records one bucket in the name cache, replacing any rows
// that carry the same bucket ID so a rename does not leave the old
// name behind.
func (s *Store) SaveBucket(entry models.BucketEntry) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM bucket WHERE bucket_id = ?;`, entry.ID); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO bucket (bucket_name, bucket_id) VALUES (?, ?);`, entry.Name, entry.ID)
		return err
	})
}

// RemoveBucketName drops a cache entry by bucket name. Removing a name
// that is not cached is not an error.
func (s *Store) RemoveBucketName(name string) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM bucket WHERE bucket_name = ?;`, name)
		return err
	})
}

// lookupBucketID reads one cache row by name, mapping an absent row to
// ErrBucketNotFound so callers can tell it apart from a failed query.
func (s *Store) lookupBucketID(name string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT bucket_id FROM bucket WHERE bucket_name = ?;`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBucketNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return id, nil
}

// lookupBucketName is the reverse mapping, bucket ID to cached name.
func (s *Store) lookupBucketName(id string) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT bucket_name FROM bucket WHERE bucket_id = ?;`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBucketNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDatabaseError, err)
	}
	return name, nil
}

// LookupBucketID returns the cached ID for a bucket name. The cache is
// advisory: an uncached name and a failed query both come back as not
// found, the latter with the swallowed cause logged at debug level.
func (s *Store) LookupBucketID(name string) (string, bool) {
	id, err := s.lookupBucketID(name)
	if err != nil {
		if !errors.Is(err, ErrBucketNotFound) {
			log.Debug().Err(err).Str("bucket_name", name).Msg("bucket cache lookup failed")
		}
		return "", false
	}
	return id, true
}

// LookupAllowedBucketName resolves the application key's allowed
// bucket ID, if any, back to a name through the cache with the same
// best-effort policy as LookupBucketID.
func (s *Store) LookupAllowedBucketName() (string, bool) {
	allowedID, err := s.GetAllowedBucketID()
	if err != nil {
		log.Debug().Err(err).Msg("allowed bucket lookup failed")
		return "", false
	}
	if allowedID == "" {
		return "", false
	}

	name, err := s.lookupBucketName(allowedID)
	if err != nil {
		if !errors.Is(err, ErrBucketNotFound) {
			log.Debug().Err(err).Str("bucket_id", allowedID).Msg("bucket cache lookup failed")
		}
		return "", false
	}
	return name, true
}
