package accountinfo

import (
	"encoding/json"
	"fmt"
	"os"

	"stratus/pkg/log"
	"stratus/pkg/models"
)

// legacyKeys are the fields a pre-database account info file must
// contain to be importable.
var legacyKeys = []string{
	"account_id",
	"application_key",
	"account_auth_token",
	"api_url",
	"download_url",
	"minimum_part_size",
	"realm",
}

// validate brings the store up on a usable database. A missing file is
// created fresh, a valid database is migrated in place, and anything
// else goes through the one-shot legacy conversion.
func (s *Store) validate() error {
	if _, err := os.Stat(s.path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("%w: failed to stat %s: %w", ErrDatabaseError, s.path, err)
		}
		return s.create()
	}

	err := s.open()
	if err == nil {
		return nil
	}
	log.Debug().Err(err).Str("path", s.path).Msg("existing file is not a usable database")

	return s.convertLegacy()
}

// create builds a fresh database file. The file is born with owner-only
// permissions, before any credentials can be written to it.
func (s *Store) create() error {
	handle, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, credentialFileMode)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrDatabaseError, s.path, err)
	}
	_ = handle.Close()

	// umask may have stripped the owner write bit on creation
	if err := os.Chmod(s.path, credentialFileMode); err != nil {
		return fmt.Errorf("%w: failed to restrict permissions on %s: %w", ErrDatabaseError, s.path, err)
	}

	return s.open()
}

// convertLegacy imports a pre-database JSON credentials file. The JSON
// file is deleted only after it parses completely; the replacement
// database is created before the imported record is written. Files
// that are neither a database nor legacy JSON fail with
// CorruptStoreError and stay on disk untouched.
func (s *Store) convertLegacy() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %w", ErrDatabaseError, s.path, err)
	}

	account, err := parseLegacyAccount(raw)
	if err != nil {
		return CorruptStoreError{Path: s.path, Err: err}
	}

	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("%w: failed to remove legacy file %s: %w", ErrDatabaseError, s.path, err)
	}
	if err := s.create(); err != nil {
		return err
	}
	if err := s.importAccount(*account); err != nil {
		return err
	}

	log.Info().Str("path", s.path).Msg("converted legacy account info file to database format")
	return nil
}

// parseLegacyAccount decodes the legacy JSON format. Every legacy key
// must be present; the allowed descriptor did not exist yet and stays
// absent after import.
func parseLegacyAccount(raw []byte) (*models.Account, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}

	for _, key := range legacyKeys {
		if _, present := fields[key]; !present {
			return nil, fmt.Errorf("missing key %s", key)
		}
	}

	var account models.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("unexpected field type: %w", err)
	}
	return &account, nil
}
