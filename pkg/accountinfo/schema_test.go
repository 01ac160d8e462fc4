package accountinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// SchemaTestSuite tests schema creation and the numbered update
// protocol.
type SchemaTestSuite struct {
	suite.Suite
	tempDir string
	dbPath  string
	store   *Store
}

// SetupSuite runs once before all tests.
func (s *SchemaTestSuite) SetupSuite() {
	var err error
	s.tempDir, err = os.MkdirTemp("", "accountinfo-schema-test-*")
	s.Require().NoError(err)
}

// TearDownSuite runs once after all tests.
func (s *SchemaTestSuite) TearDownSuite() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

// SetupTest runs before each test.
func (s *SchemaTestSuite) SetupTest() {
	s.dbPath = filepath.Join(s.tempDir, "test.db")
	var err error
	s.store, err = NewStore(s.dbPath, nil)
	s.Require().NoError(err)
}

// TearDownTest runs after each test.
func (s *SchemaTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
	os.Remove(s.dbPath)
}

// markerCount returns how many update_done rows exist for a number.
func (s *SchemaTestSuite) markerCount(number int) int {
	var count int
	s.Require().NoError(s.store.db.QueryRow(`SELECT COUNT(*) FROM update_done WHERE update_number = ?;`, number).Scan(&count))
	return count
}

// TestTablesCreated tests that every schema table exists after open.
func (s *SchemaTestSuite) TestTablesCreated() {
	for _, table := range []string{"account", "bucket", "bucket_upload_url", "update_done"} {
		var count int
		err := s.store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?;`, table).Scan(&count)
		s.Require().NoError(err)
		s.Equal(1, count, table)
	}
}

// TestUpdateMarkerRecorded tests that applying an update leaves
// exactly one marker.
func (s *SchemaTestSuite) TestUpdateMarkerRecorded() {
	s.Equal(1, s.markerCount(1))
}

// TestAllowedColumnAdded tests that update 1 extended the account
// table.
func (s *SchemaTestSuite) TestAllowedColumnAdded() {
	var count int
	err := s.store.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('account') WHERE name = 'allowed';`).Scan(&count)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// TestMigrateTwice tests that reapplying the migration is a no-op.
func (s *SchemaTestSuite) TestMigrateTwice() {
	s.Require().NoError(migrate(s.store.db))
	s.Equal(1, s.markerCount(1))
}

// TestReopenKeepsSingleMarker tests that markers are not duplicated
// across opens.
func (s *SchemaTestSuite) TestReopenKeepsSingleMarker() {
	s.Require().NoError(s.store.SetAuthData(testAccount()))
	s.Require().NoError(s.store.Close())

	reopened, err := NewStore(s.dbPath, nil)
	s.Require().NoError(err)
	s.store = reopened

	s.Equal(1, s.markerCount(1))

	// Data written before the reopen is still readable through the
	// migrated schema.
	accountID, err := reopened.GetAccountID()
	s.Require().NoError(err)
	s.Equal("a1", accountID)
}

// TestSchemaSuite runs the schema test suite.
func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}
