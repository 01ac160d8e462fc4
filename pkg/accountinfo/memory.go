package accountinfo

import (
	"fmt"
	"strings"
	"sync"

	"stratus/pkg/models"
)

// Memory is an AccountInfo that keeps everything in process memory.
// Callers that must not touch the filesystem get the Store behavior
// without a database file; nothing survives the process.
type Memory struct {
	urlPools

	mu      sync.Mutex
	account *models.Account
	buckets map[string]string
}

// NewMemory creates an empty in-memory account info.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]string)}
}

// Clear drops the account record, the bucket name cache and any pooled
// upload URLs.
func (m *Memory) Clear() error {
	m.mu.Lock()
	m.account = nil
	m.buckets = make(map[string]string)
	m.mu.Unlock()

	m.resetUploadURLs()
	return nil
}

// SetAuthData replaces the account record and drops the caches.
func (m *Memory) SetAuthData(account models.Account) error {
	if err := validateAccount(account); err != nil {
		return err
	}

	m.mu.Lock()
	m.account = &account
	m.buckets = make(map[string]string)
	m.mu.Unlock()

	m.resetUploadURLs()
	return nil
}

// getAccount returns the stored record or ErrMissingAccountData.
func (m *Memory) getAccount() (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.account == nil {
		return nil, fmt.Errorf("%w: no account stored", ErrMissingAccountData)
	}
	return m.account, nil
}

// GetAccountID returns the stored account ID.
func (m *Memory) GetAccountID() (string, error) {
	account, err := m.getAccount()
	if err != nil {
		return "", err
	}
	return account.AccountID, nil
}

// GetApplicationKey returns the stored application key.
func (m *Memory) GetApplicationKey() (string, error) {
	account, err := m.getAccount()
	if err != nil {
		return "", err
	}
	return account.ApplicationKey, nil
}

// GetAccountAuthToken returns the session token for API calls.
func (m *Memory) GetAccountAuthToken() (string, error) {
	account, err := m.getAccount()
	if err != nil {
		return "", err
	}
	return account.AuthToken, nil
}

// GetAPIURL returns the base URL for API calls.
func (m *Memory) GetAPIURL() (string, error) {
	account, err := m.getAccount()
	if err != nil {
		return "", err
	}
	return account.APIURL, nil
}

// GetDownloadURL returns the base URL for downloads.
func (m *Memory) GetDownloadURL() (string, error) {
	account, err := m.getAccount()
	if err != nil {
		return "", err
	}
	return account.DownloadURL, nil
}

// GetMinimumPartSize returns the smallest part size the service
// accepts for large file uploads.
func (m *Memory) GetMinimumPartSize() (int64, error) {
	account, err := m.getAccount()
	if err != nil {
		return 0, err
	}
	return account.MinimumPartSize, nil
}

// GetRealm returns the environment the account was authorized against.
func (m *Memory) GetRealm() (string, error) {
	account, err := m.getAccount()
	if err != nil {
		return "", err
	}
	return account.Realm, nil
}

// GetAllowed returns the restrictions attached to the application key,
// or nil when the key grants full account access.
func (m *Memory) GetAllowed() (*models.Allowed, error) {
	account, err := m.getAccount()
	if err != nil {
		return nil, err
	}
	return account.Allowed, nil
}

// GetAllowedBucketID returns the bucket ID the application key is
// restricted to, or empty when any bucket is allowed.
func (m *Memory) GetAllowedBucketID() (string, error) {
	allowed, err := m.GetAllowed()
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
func (m *Memory) GetAllowedNamePrefix() (string, error) {
	allowed, err := m.GetAllowed()
	if err != nil {
		return "", err
	}
	if allowed == nil {
		return "", nil
	}
	return allowed.NamePrefix, nil
}

// RefreshBucketCache replaces the entire bucket name cache with the
// given listing.
func (m *Memory) RefreshBucketCache(entries []models.BucketEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buckets = make(map[string]string, len(entries))
	for _, entry := range entries {
		m.buckets[entry.Name] = entry.ID
	}
	return nil
}

// SaveBucket records one bucket in the name cache, replacing any entry
// with the same bucket ID.
func (m *Memory) SaveBucket(entry models.BucketEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, id := range m.buckets {
		if id == entry.ID {
			delete(m.buckets, name)
		}
	}
	m.buckets[entry.Name] = entry.ID
	return nil
}

// RemoveBucketName drops a cache entry by bucket name. Removing a name
// that is not cached is not an error.
func (m *Memory) RemoveBucketName(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets, name)
	return nil
}

// LookupBucketID returns the cached ID for a bucket name.
func (m *Memory) LookupBucketID(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.buckets[name]
	return id, ok
}

// lookupNameByID scans the cache for the name mapped to a bucket ID.
func (m *Memory) lookupNameByID(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, cachedID := range m.buckets {
		if cachedID == id {
			return name, true
		}
	}
	return "", false
}

// LookupAllowedBucketName resolves the application key's allowed
// bucket ID, if any, back to a name through the cache.
func (m *Memory) LookupAllowedBucketName() (string, bool) {
	id, err := m.GetAllowedBucketID()
	if err != nil || id == "" {
		return "", false
	}
	return m.lookupNameByID(id)
}

// CheckBucketRestriction verifies the application key may operate on
// the named bucket. A key restricted to a bucket whose name is not in
// the cache passes.
func (m *Memory) CheckBucketRestriction(bucketName string) error {
	allowedID, err := m.GetAllowedBucketID()
	if err != nil {
		return err
	}
	if allowedID == "" {
		return nil
	}

	allowedName, ok := m.lookupNameByID(allowedID)
	if !ok {
		return nil
	}

	if allowedName != bucketName {
		return BucketRestrictedError{AllowedBucket: allowedName}
	}
	return nil
}

// CheckFilePrefixRestriction verifies the application key may operate
// on file names starting with prefix.
func (m *Memory) CheckFilePrefixRestriction(prefix string) error {
	allowedPrefix, err := m.GetAllowedNamePrefix()
	if err != nil {
		return err
	}
	if allowedPrefix == "" {
		return nil
	}

	if !strings.HasPrefix(prefix, allowedPrefix) {
		return PrefixRestrictedError{AllowedPrefix: allowedPrefix}
	}
	return nil
}
