package accountinfo

// Schema contains the SQL statements to create the account info
// database schema. Every statement is idempotent so the schema can be
// reapplied on each open.
const Schema = `
-- Account table: the single authorized account's credentials.
-- At most one row; replaced wholesale on every new authorization.
CREATE TABLE IF NOT EXISTS account (
    account_id         TEXT NOT NULL,
    application_key    TEXT NOT NULL,
    account_auth_token TEXT NOT NULL,
    api_url            TEXT NOT NULL,
    download_url       TEXT NOT NULL,
    minimum_part_size  INT NOT NULL,
    realm              TEXT NOT NULL
);

-- Bucket table: cached bucket name to bucket ID mappings
CREATE TABLE IF NOT EXISTS bucket (
    bucket_name TEXT NOT NULL,
    bucket_id   TEXT NOT NULL
);

-- Upload URL table: reserved for per-bucket upload endpoints. Current
-- code pools those in memory only and never writes rows here
CREATE TABLE IF NOT EXISTS bucket_upload_url (
    bucket_id         TEXT NOT NULL,
    upload_url        TEXT NOT NULL,
    upload_auth_token TEXT NOT NULL
);

-- Update table: marker rows recording applied numbered schema updates
CREATE TABLE IF NOT EXISTS update_done (
    update_number INT NOT NULL
);
`

// schemaUpdate is a numbered one-shot DDL statement applied after the
// base schema. Numbers are never reused; update_done records which
// updates have already run.
type schemaUpdate struct {
	number    int
	statement string
}

// schemaUpdates lists every update in the order it must be applied.
var schemaUpdates = []schemaUpdate{
	{number: 1, statement: `ALTER TABLE account ADD COLUMN allowed TEXT;`},
}
