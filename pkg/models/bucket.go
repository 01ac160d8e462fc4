package models

// BucketEntry is a single bucket name to bucket ID mapping held in the
// local cache.
type BucketEntry struct {
	Name string `json:"bucket_name"`
	ID   string `json:"bucket_id"`
}
