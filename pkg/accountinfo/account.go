package accountinfo

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"stratus/pkg/log"
	"stratus/pkg/models"
)

// accountQueries maps each account field to its fixed query. Getters go
// through this table so no SQL is ever built from caller input.
var accountQueries = map[string]string{
	"account_id":         `SELECT account_id FROM account;`,
	"application_key":    `SELECT application_key FROM account;`,
	"account_auth_token": `SELECT account_auth_token FROM account;`,
	"api_url":            `SELECT api_url FROM account;`,
	"download_url":       `SELECT download_url FROM account;`,
	"realm":              `SELECT realm FROM account;`,
}

// clearStatements empty every data table. update_done is not touched:
// the markers record applied DDL, which only deleting the file undoes.
var clearStatements = []string{
	`DELETE FROM account;`,
	`DELETE FROM bucket;`,
	`DELETE FROM bucket_upload_url;`,
}

// Clear removes the account record, the bucket name cache and any
// pooled upload URLs.
func (s *Store) Clear() error {
	err := s.withTx(func(tx *sql.Tx) error {
		for _, stmt := range clearStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.resetUploadURLs()
	return nil
}

// SetAuthData replaces the stored account record with the given one.
// The record is validated and its restriction descriptor serialized
// before anything is written. The bucket name cache and pooled upload
// URLs belong to the previous authorization and are dropped in the
// same transaction.
func (s *Store) SetAuthData(account models.Account) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	allowedJSON, err := marshalAllowed(account.Allowed)
	if err != nil {
		return fmt.Errorf("%w: allowed: %w", ErrInvalidAuthData, err)
	}

	err = s.withTx(func(tx *sql.Tx) error {
		for _, stmt := range clearStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		_, err := tx.Exec(
			`INSERT INTO account (account_id, application_key, account_auth_token, api_url, download_url, minimum_part_size, realm, allowed) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			account.AccountID, account.ApplicationKey, account.AuthToken,
			account.APIURL, account.DownloadURL, account.MinimumPartSize,
			account.Realm, allowedJSON,
		)
		return err
	})
	if err != nil {
		return err
	}

	s.resetUploadURLs()
	return nil
}

// importAccount writes a legacy record into a freshly created database.
// Legacy files predate the allowed column, so it stays NULL.
func (s *Store) importAccount(account models.Account) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO account (account_id, application_key, account_auth_token, api_url, download_url, minimum_part_size, realm) VALUES (?, ?, ?, ?, ?, ?, ?);`,
			account.AccountID, account.ApplicationKey, account.AuthToken,
			account.APIURL, account.DownloadURL, account.MinimumPartSize,
			account.Realm,
		)
		return err
	})
}

// validateAccount rejects records with missing required fields before
// anything touches the database.
func validateAccount(account models.Account) error {
	required := []struct {
		field string
		value string
	}{
		{"account_id", account.AccountID},
		{"application_key", account.ApplicationKey},
		{"account_auth_token", account.AuthToken},
		{"api_url", account.APIURL},
		{"download_url", account.DownloadURL},
		{"realm", account.Realm},
	}
	for _, item := range required {
		if item.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidAuthData, item.field)
		}
	}
	if account.MinimumPartSize <= 0 {
		return fmt.Errorf("%w: minimum_part_size must be positive", ErrInvalidAuthData)
	}
	return nil
}

// marshalAllowed serializes the restriction descriptor for storage.
// A nil descriptor is stored as NULL.
func marshalAllowed(allowed *models.Allowed) (interface{}, error) {
	if allowed == nil {
		return nil, nil
	}
	raw, err := json.Marshal(allowed)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// unmarshalAllowed decodes the stored allowed column. A NULL column and
// a serialized JSON null both mean the key is unrestricted.
func unmarshalAllowed(raw sql.NullString) (*models.Allowed, error) {
	if !raw.Valid || raw.String == "null" {
		return nil, nil
	}

	var allowed models.Allowed
	if err := json.Unmarshal([]byte(raw.String), &allowed); err != nil {
		return nil, fmt.Errorf("%w: allowed: %w", ErrMissingAccountData, err)
	}
	return &allowed, nil
}

// accountField runs the fixed query for one account column. An absent
// row and a failed query both fold into ErrMissingAccountData with the
// cause attached.
func (s *Store) accountField(field string) (string, error) {
	query, ok := accountQueries[field]
	if !ok {
		return "", fmt.Errorf("%w: no query for field %s", ErrMissingAccountData, field)
	}

	var value string
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		log.Error().Err(err).Str("field", field).Msg("account info lookup failed")
		return "", fmt.Errorf("%w: %s: %w", ErrMissingAccountData, field, err)
	}
	return value, nil
}

// GetAccountID returns the stored account ID.
func (s *Store) GetAccountID() (string, error) {
	return s.accountField("account_id")
}

// GetApplicationKey returns the stored application key.
func (s *Store) GetApplicationKey() (string, error) {
	return s.accountField("application_key")
}

// GetAccountAuthToken returns the session token for API calls.
func (s *Store) GetAccountAuthToken() (string, error) {
	return s.accountField("account_auth_token")
}

// GetAPIURL returns the base URL for API calls.
func (s *Store) GetAPIURL() (string, error) {
	return s.accountField("api_url")
}

// GetDownloadURL returns the base URL for downloads.
func (s *Store) GetDownloadURL() (string, error) {
	return s.accountField("download_url")
}

// GetRealm returns the environment the account was authorized against.
func (s *Store) GetRealm() (string, error) {
	return s.accountField("realm")
}

// GetMinimumPartSize returns the smallest part size the service
// accepts for large file uploads.
func (s *Store) GetMinimumPartSize() (int64, error) {
	var size int64
	if err := s.db.QueryRow(`SELECT minimum_part_size FROM account;`).Scan(&size); err != nil {
		log.Error().Err(err).Str("field", "minimum_part_size").Msg("account info lookup failed")
		return 0, fmt.Errorf("%w: minimum_part_size: %w", ErrMissingAccountData, err)
	}
	return size, nil
}

// GetAllowed returns the restrictions attached to the application key,
// or nil when the key grants full account access.
func (s *Store) GetAllowed() (*models.Allowed, error) {
	var raw sql.NullString
	if err := s.db.QueryRow(`SELECT allowed FROM account;`).Scan(&raw); err != nil {
		log.Error().Err(err).Str("field", "allowed").Msg("account info lookup failed")
		return nil, fmt.Errorf("%w: allowed: %w", ErrMissingAccountData, err)
	}
	return unmarshalAllowed(raw)
}

// GetAllowedBucketID returns the bucket ID the application key is
// restricted to, or empty when any bucket is allowed.
func (s *Store) GetAllowedBucketID() (string, error) {
	allowed, err := s.GetAllowed()
	if err != nil {
		return "", err
	}
	if allowed == nil {
		return "", nil
	}
	return allowed.BucketID, nil
}

// GetAllowedNamePrefix returns the file name prefix the application
// key is restricted to, or empty when no prefix restriction applies.
func (s *Store) GetAllowedNamePrefix() (string, error) {
	allowed, err := s.GetAllowed()
	if err != nil {
		return "", err
	}
	if allowed == nil {
		return "", nil
	}
	return allowed.NamePrefix, nil
}
