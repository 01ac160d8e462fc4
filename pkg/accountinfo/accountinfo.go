// Package accountinfo stores the authorized account's credentials and
// a cache of bucket name to ID mappings for the stratus command-line
// client. Store keeps everything in a single SQLite file; Memory offers
// the same behavior without touching disk.
package accountinfo

import "stratus/pkg/models"

// AccountInfo defines the interface for account credential and cache
// storage.
type AccountInfo interface {
	// Clear removes the stored account record, the bucket name cache and
	// any pooled upload URLs.
	Clear() error

	// SetAuthData replaces the stored account record with the given one.
	// The bucket name cache and pooled upload URLs belong to the previous
	// authorization and are dropped.
	SetAuthData(account models.Account) error

	// GetAccountID returns the stored account ID.
	GetAccountID() (string, error)

	// GetApplicationKey returns the stored application key.
	GetApplicationKey() (string, error)

	// GetAccountAuthToken returns the session token for API calls.
	GetAccountAuthToken() (string, error)

	// GetAPIURL returns the base URL for API calls.
	GetAPIURL() (string, error)

	// GetDownloadURL returns the base URL for downloads.
	GetDownloadURL() (string, error)

	// GetMinimumPartSize returns the smallest part size the service
	// accepts for large file uploads.
	GetMinimumPartSize() (int64, error)

	// GetRealm returns the environment the account was authorized
	// against.
	GetRealm() (string, error)

	// GetAllowed returns the restrictions attached to the application
	// key, or nil when the key grants full account access.
	GetAllowed() (*models.Allowed, error)

	// GetAllowedBucketID returns the bucket ID the application key is
	// restricted to, or empty when any bucket is allowed.
	GetAllowedBucketID() (string, error)

	// GetAllowedNamePrefix returns the file name prefix the application
	// key is restricted to, or empty when no prefix restriction applies.
	GetAllowedNamePrefix() (string, error)

	// RefreshBucketCache replaces the entire bucket name cache with the
	// given listing.
	RefreshBucketCache(entries []models.BucketEntry) error

	// SaveBucket records one bucket in the name cache, replacing any
	// entry with the same bucket ID.
	SaveBucket(entry models.BucketEntry) error

	// RemoveBucketName drops a cache entry by bucket name. Removing a
	// name that is not cached is not an error.
	RemoveBucketName(name string) error

	// LookupBucketID returns the cached ID for a bucket name. The cache
	// is advisory: an uncached name and a failed lookup both come back
	// as not found.
	LookupBucketID(name string) (string, bool)

	// LookupAllowedBucketName resolves the application key's allowed
	// bucket ID, if any, back to a name through the cache with the same
	// best-effort policy as LookupBucketID.
	LookupAllowedBucketName() (string, bool)

	// CheckBucketRestriction verifies the application key may operate on
	// the named bucket.
	CheckBucketRestriction(bucketName string) error

	// CheckFilePrefixRestriction verifies the application key may operate
	// on file names starting with prefix.
	CheckFilePrefixRestriction(prefix string) error

	// PutBucketUploadURL pools an upload target for the given bucket.
	PutBucketUploadURL(bucketID string, target models.UploadTarget)

	// TakeBucketUploadURL pops the most recently pooled upload target
	// for the given bucket.
	TakeBucketUploadURL(bucketID string) (models.UploadTarget, bool)

	// ClearBucketUploadURLs drops the pooled upload targets for a bucket.
	ClearBucketUploadURLs(bucketID string)

	// PutLargeFileUploadURL pools an upload target for one large file.
	PutLargeFileUploadURL(fileID string, target models.UploadTarget)

	// TakeLargeFileUploadURL pops the most recently pooled upload target
	// for one large file.
	TakeLargeFileUploadURL(fileID string) (models.UploadTarget, bool)

	// ClearLargeFileUploadURLs drops the pooled upload targets for a
	// large file.
	ClearLargeFileUploadURLs(fileID string)
}

var (
	_ AccountInfo = (*Store)(nil)
	_ AccountInfo = (*Memory)(nil)
)
