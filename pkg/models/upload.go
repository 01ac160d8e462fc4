package models

// UploadTarget is an upload endpoint with its matching authorization
// token, handed out by the service for direct uploads.
type UploadTarget struct {
	URL       string `json:"upload_url"`
	AuthToken string `json:"upload_auth_token"`
}
