package accountinfo

import (
	"errors"
	"strings"

	"stratus/pkg/log"
)

// CheckBucketRestriction verifies the application key may operate on
// the named bucket. A key restricted to a bucket whose name is not in
// the cache passes: the cache is advisory and the service enforces the
// real restriction. Reading the restriction requires stored account
// data, so its absence surfaces as ErrMissingAccountData.
func (s *Store) CheckBucketRestriction(bucketName string) error {
	allowedID, err := s.GetAllowedBucketID()
	if err != nil {
		return err
	}
	if allowedID == "" {
		return nil
	}

	allowedName, err := s.lookupBucketName(allowedID)
	if err != nil {
		if !errors.Is(err, ErrBucketNotFound) {
			log.Debug().Err(err).Str("bucket_id", allowedID).Msg("bucket cache lookup failed")
		}
		return nil
	}

	if allowedName != bucketName {
		return BucketRestrictedError{AllowedBucket: allowedName}
	}
	return nil
}

// CheckFilePrefixRestriction verifies the application key may operate
// on file names starting with prefix.
func (s *Store) CheckFilePrefixRestriction(prefix string) error {
	allowedPrefix, err := s.GetAllowedNamePrefix()
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
