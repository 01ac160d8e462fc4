package models

// Account holds the credentials and session state of the authorized
// storage account. JSON tags match the legacy single-file format so the
// store can import pre-database files directly.
type Account struct {
	AccountID       string   `json:"account_id"`
	ApplicationKey  string   `json:"application_key"`
	AuthToken       string   `json:"account_auth_token"`
	APIURL          string   `json:"api_url"`
	DownloadURL     string   `json:"download_url"`
	MinimumPartSize int64    `json:"minimum_part_size"`
	Realm           string   `json:"realm"`
	Allowed         *Allowed `json:"allowed,omitempty"`
}

// Allowed describes the restrictions attached to an application key as
// reported by the service. A nil Allowed means the key grants full
// account access; an empty BucketID or NamePrefix means no restriction
// of that kind.
type Allowed struct {
	BucketID     string   `json:"bucketId,omitempty"`
	NamePrefix   string   `json:"namePrefix,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}
