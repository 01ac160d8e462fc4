package accountinfo

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"stratus/pkg/models"
)

// MemoryTestSuite tests the non-persistent AccountInfo implementation.
type MemoryTestSuite struct {
	suite.Suite
	info *Memory
}

// SetupTest runs before each test.
func (s *MemoryTestSuite) SetupTest() {
	s.info = NewMemory()
}

// TestGettersBeforeSetAuthData tests getters on an empty store.
func (s *MemoryTestSuite) TestGettersBeforeSetAuthData() {
	_, err := s.info.GetAccountID()
	s.ErrorIs(err, ErrMissingAccountData)

	_, err = s.info.GetAccountAuthToken()
	s.ErrorIs(err, ErrMissingAccountData)

	_, err = s.info.GetMinimumPartSize()
	s.ErrorIs(err, ErrMissingAccountData)

	_, err = s.info.GetAllowed()
	s.ErrorIs(err, ErrMissingAccountData)
}

// TestSetAuthDataRoundTrip tests storing and reading back an account.
func (s *MemoryTestSuite) TestSetAuthDataRoundTrip() {
	account := testAccount()
	s.Require().NoError(s.info.SetAuthData(account))

	accountID, err := s.info.GetAccountID()
	s.Require().NoError(err)
	s.Equal(account.AccountID, accountID)

	applicationKey, err := s.info.GetApplicationKey()
	s.Require().NoError(err)
	s.Equal(account.ApplicationKey, applicationKey)

	authToken, err := s.info.GetAccountAuthToken()
	s.Require().NoError(err)
	s.Equal(account.AuthToken, authToken)

	apiURL, err := s.info.GetAPIURL()
	s.Require().NoError(err)
	s.Equal(account.APIURL, apiURL)

	downloadURL, err := s.info.GetDownloadURL()
	s.Require().NoError(err)
	s.Equal(account.DownloadURL, downloadURL)

	partSize, err := s.info.GetMinimumPartSize()
	s.Require().NoError(err)
	s.Equal(account.MinimumPartSize, partSize)

	realm, err := s.info.GetRealm()
	s.Require().NoError(err)
	s.Equal(account.Realm, realm)
}

// TestSetAuthDataValidation tests that incomplete credentials are
// rejected.
func (s *MemoryTestSuite) TestSetAuthDataValidation() {
	account := testAccount()
	account.AuthToken = ""

	err := s.info.SetAuthData(account)
	s.ErrorIs(err, ErrInvalidAuthData)

	_, err = s.info.GetAccountID()
	s.ErrorIs(err, ErrMissingAccountData)
}

// TestClear tests wiping the stored account.
func (s *MemoryTestSuite) TestClear() {
	s.Require().NoError(s.info.SetAuthData(testAccount()))
	s.Require().NoError(s.info.Clear())

	_, err := s.info.GetAccountID()
	s.ErrorIs(err, ErrMissingAccountData)
}

// TestAllowedRoundTrip tests storing and reading back restrictions.
func (s *MemoryTestSuite) TestAllowedRoundTrip() {
	s.Require().NoError(s.info.SetAuthData(restrictedAccount("b1", "2024/")))

	allowed, err := s.info.GetAllowed()
	s.Require().NoError(err)
	s.Require().NotNil(allowed)
	s.Equal("b1", allowed.BucketID)
	s.Equal("2024/", allowed.NamePrefix)

	bucketID, err := s.info.GetAllowedBucketID()
	s.Require().NoError(err)
	s.Equal("b1", bucketID)

	prefix, err := s.info.GetAllowedNamePrefix()
	s.Require().NoError(err)
	s.Equal("2024/", prefix)
}

// TestAllowedAbsent tests an account without restrictions.
func (s *MemoryTestSuite) TestAllowedAbsent() {
	s.Require().NoError(s.info.SetAuthData(testAccount()))

	allowed, err := s.info.GetAllowed()
	s.Require().NoError(err)
	s.Nil(allowed)

	bucketID, err := s.info.GetAllowedBucketID()
	s.Require().NoError(err)
	s.Equal("", bucketID)
}

// TestBucketCache tests save, lookup, rename and remove.
func (s *MemoryTestSuite) TestBucketCache() {
	s.Require().NoError(s.info.SetAuthData(testAccount()))

	s.Require().NoError(s.info.SaveBucket(models.BucketEntry{Name: "photos", ID: "b1"}))
	id, ok := s.info.LookupBucketID("photos")
	s.True(ok)
	s.Equal("b1", id)

	s.Require().NoError(s.info.SaveBucket(models.BucketEntry{Name: "photos-archive", ID: "b1"}))
	_, ok = s.info.LookupBucketID("photos")
	s.False(ok)
	id, ok = s.info.LookupBucketID("photos-archive")
	s.True(ok)
	s.Equal("b1", id)

	s.Require().NoError(s.info.RemoveBucketName("photos-archive"))
	_, ok = s.info.LookupBucketID("photos-archive")
	s.False(ok)

	s.NoError(s.info.RemoveBucketName("never-cached"))
}

// TestRefreshBucketCache tests the full cache refresh.
func (s *MemoryTestSuite) TestRefreshBucketCache() {
	s.Require().NoError(s.info.SaveBucket(models.BucketEntry{Name: "old", ID: "b0"}))
	s.Require().NoError(s.info.RefreshBucketCache([]models.BucketEntry{
		{Name: "photos", ID: "b1"},
		{Name: "videos", ID: "b2"},
	}))

	_, ok := s.info.LookupBucketID("old")
	s.False(ok)

	id, ok := s.info.LookupBucketID("photos")
	s.True(ok)
	s.Equal("b1", id)

	id, ok = s.info.LookupBucketID("videos")
	s.True(ok)
	s.Equal("b2", id)
}

// TestSetAuthDataClearsCache tests that a new authorization starts
// with an empty cache.
func (s *MemoryTestSuite) TestSetAuthDataClearsCache() {
	s.Require().NoError(s.info.SetAuthData(testAccount()))
	s.Require().NoError(s.info.SaveBucket(models.BucketEntry{Name: "photos", ID: "b1"}))
	s.Require().NoError(s.info.SetAuthData(testAccount()))

	_, ok := s.info.LookupBucketID("photos")
	s.False(ok)
}

// TestLookupAllowedBucketName tests resolving the allowed bucket ID.
func (s *MemoryTestSuite) TestLookupAllowedBucketName() {
	s.Require().NoError(s.info.SetAuthData(restrictedAccount("b1", "")))

	_, ok := s.info.LookupAllowedBucketName()
	s.False(ok)

	s.Require().NoError(s.info.SaveBucket(models.BucketEntry{Name: "photos", ID: "b1"}))
	name, ok := s.info.LookupAllowedBucketName()
	s.True(ok)
	s.Equal("photos", name)
}

// TestCheckBucketRestriction tests the bucket restriction check.
func (s *MemoryTestSuite) TestCheckBucketRestriction() {
	err := s.info.CheckBucketRestriction("photos")
	s.ErrorIs(err, ErrMissingAccountData)

	s.Require().NoError(s.info.SetAuthData(testAccount()))
	s.NoError(s.info.CheckBucketRestriction("photos"))

	s.Require().NoError(s.info.SetAuthData(restrictedAccount("b1", "")))
	s.Require().NoError(s.info.SaveBucket(models.BucketEntry{Name: "photos", ID: "b1"}))
	s.NoError(s.info.CheckBucketRestriction("photos"))

	err = s.info.CheckBucketRestriction("videos")
	var restricted BucketRestrictedError
	s.Require().ErrorAs(err, &restricted)
	s.Equal("photos", restricted.AllowedBucket)
}

// TestCheckFilePrefixRestriction tests the file prefix check.
func (s *MemoryTestSuite) TestCheckFilePrefixRestriction() {
	err := s.info.CheckFilePrefixRestriction("2024/jan/report.txt")
	s.ErrorIs(err, ErrMissingAccountData)

	s.Require().NoError(s.info.SetAuthData(restrictedAccount("", "2024/")))
	s.NoError(s.info.CheckFilePrefixRestriction("2024/jan/report.txt"))

	err = s.info.CheckFilePrefixRestriction("2023/download")
	var restricted PrefixRestrictedError
	s.Require().ErrorAs(err, &restricted)
	s.Equal("2024/", restricted.AllowedPrefix)
}

// TestUploadURLPools tests the pools promoted through embedding.
func (s *MemoryTestSuite) TestUploadURLPools() {
	s.info.PutBucketUploadURL("b1", models.UploadTarget{URL: "https://pod-1/upload", AuthToken: "t1"})

	target, ok := s.info.TakeBucketUploadURL("b1")
	s.Require().True(ok)
	s.Equal("t1", target.AuthToken)

	s.info.PutLargeFileUploadURL("f1", models.UploadTarget{URL: "https://pod-2/upload", AuthToken: "t2"})
	s.Require().NoError(s.info.SetAuthData(testAccount()))

	_, ok = s.info.TakeLargeFileUploadURL("f1")
	s.False(ok)
}

// TestMemorySuite runs the in-memory account info test suite.
func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemoryTestSuite))
}
