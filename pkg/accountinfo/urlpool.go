package accountinfo

import (
	"sync"

	"stratus/pkg/models"
)

// uploadURLPool hands out pooled upload targets keyed by bucket or
// large file ID, most recently returned first.
type uploadURLPool struct {
	mu      sync.Mutex
	targets map[string][]models.UploadTarget
}

// put returns a target to the pool for later reuse.
func (p *uploadURLPool) put(key string, target models.UploadTarget) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.targets == nil {
		p.targets = make(map[string][]models.UploadTarget)
	}
	p.targets[key] = append(p.targets[key], target)
}

// take pops the most recently returned target for key.
func (p *uploadURLPool) take(key string) (models.UploadTarget, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stack := p.targets[key]
	if len(stack) == 0 {
		return models.UploadTarget{}, false
	}

	target := stack[len(stack)-1]
	p.targets[key] = stack[:len(stack)-1]
	return target, true
}

// clear drops every target pooled for key.
func (p *uploadURLPool) clear(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.targets, key)
}

// reset drops every pooled target.
func (p *uploadURLPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.targets = nil
}

// urlPools carries the in-memory upload URL pools shared by every
// AccountInfo implementation. Upload targets are never persisted: a
// pooled URL is only trusted within the process that fetched it, and
// switching accounts invalidates all of them.
type urlPools struct {
	bucketUploads    uploadURLPool
	largeFileUploads uploadURLPool
}

// PutBucketUploadURL pools an upload target for the given bucket.
func (u *urlPools) PutBucketUploadURL(bucketID string, target models.UploadTarget) {
	u.bucketUploads.put(bucketID, target)
}

// TakeBucketUploadURL pops the most recently pooled upload target for
// the given bucket.
func (u *urlPools) TakeBucketUploadURL(bucketID string) (models.UploadTarget, bool) {
	return u.bucketUploads.take(bucketID)
}

// ClearBucketUploadURLs drops the pooled upload targets for a bucket.
func (u *urlPools) ClearBucketUploadURLs(bucketID string) {
	u.bucketUploads.clear(bucketID)
}

// PutLargeFileUploadURL pools an upload target for one large file.
func (u *urlPools) PutLargeFileUploadURL(fileID string, target models.UploadTarget) {
	u.largeFileUploads.put(fileID, target)
}

// TakeLargeFileUploadURL pops the most recently pooled upload target
// for one large file.
func (u *urlPools) TakeLargeFileUploadURL(fileID string) (models.UploadTarget, bool) {
	return u.largeFileUploads.take(fileID)
}

// ClearLargeFileUploadURLs drops the pooled upload targets for a large
// file.
func (u *urlPools) ClearLargeFileUploadURLs(fileID string) {
	u.largeFileUploads.clear(fileID)
}

// resetUploadURLs drops every pooled target across all pools.
func (u *urlPools) resetUploadURLs() {
	u.bucketUploads.reset()
	u.largeFileUploads.reset()
}
