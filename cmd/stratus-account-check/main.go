package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stratus/pkg/accountinfo"
	"stratus/pkg/log"
	"stratus/pkg/models"
)

const (
	defaultWorkers = 8
	defaultPasses  = 25

	// Every writeEvery-th pass replaces the stored credentials instead
	// of only reading them.
	writeEvery = 5

	separatorLineLength = 60

	checkAccountID = "check-account"
)

type config struct {
	file        string
	workers     int
	passes      int
	busyTimeout time.Duration
	keep        bool
	debug       bool
}

// counters tracks what the workers observed.
type counters struct {
	mu         sync.Mutex
	writes     int
	reads      int
	lookups    int
	hits       int
	lockouts   int
	violations []string
}

func (m *counters) countWrite() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
}

func (m *counters) countRead() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
}

func (m *counters) countLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if hit {
		m.hits++
	}
}

func (m *counters) countLockout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockouts++
}

func (m *counters) violation(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations = append(m.violations, fmt.Sprintf(format, args...))
}

func (m *counters) violationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.violations)
}

func (m *counters) printSummary(path string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Println("\n" + strings.Repeat("=", separatorLineLength))
	fmt.Println("ACCOUNT INFO CHECK SUMMARY")
	fmt.Println(strings.Repeat("=", separatorLineLength))
	fmt.Printf("  Store:         %s\n", path)
	fmt.Printf("  Auth writes:   %d\n", m.writes)
	fmt.Printf("  Account reads: %d\n", m.reads)
	fmt.Printf("  Cache lookups: %d (%d hits)\n", m.lookups, m.hits)
	fmt.Printf("  Lock timeouts: %d\n", m.lockouts)
	fmt.Printf("  Elapsed:       %.2fs\n", elapsed.Seconds())

	if len(m.violations) == 0 {
		fmt.Println("\nNo consistency violations detected")
		return
	}

	fmt.Printf("\n%d consistency violations:\n", len(m.violations))
	for _, v := range m.violations {
		fmt.Printf("  - %s\n", v)
	}
}

// checker drives concurrent workers against one account info file.
type checker struct {
	cfg     config
	path    string
	metrics *counters
	elapsed time.Duration
}

func main() {
	// Initialize logger first
	_ = log.Logger

	cfg := parseFlags()
	if cfg.debug {
		log.SetDebugMode()
	}

	path, cleanup, err := resolveStorePath(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare store path")
	}

	check := &checker{cfg: cfg, path: path, metrics: &counters{}}
	runErr := check.run()
	check.metrics.printSummary(path, check.elapsed)

	if cleanup != nil {
		cleanup()
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "stratus-account-check failed: %v\n", runErr)
		os.Exit(1)
	}
	if check.metrics.violationCount() > 0 {
		os.Exit(1)
	}

	fmt.Println("\n✅ Concurrent account info checks completed successfully")
}

func parseFlags() config {
	file := flag.String("file", "", "Account info file path (default: a temporary file, removed afterwards)")
	workers := flag.Int("workers", defaultWorkers, "Number of concurrent workers")
	passes := flag.Int("passes", defaultPasses, "Number of passes per worker")
	busyTimeout := flag.Duration("busy-timeout", accountinfo.DefaultBusyTimeout, "How long to wait for a locked account info file")
	keep := flag.Bool("keep", false, "Keep the temporary store after the run")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config{
		file:        *file,
		workers:     *workers,
		passes:      *passes,
		busyTimeout: *busyTimeout,
		keep:        *keep,
		debug:       *debug,
	}
	if cfg.workers <= 0 {
		cfg.workers = defaultWorkers
	}
	if cfg.passes <= 0 {
		cfg.passes = defaultPasses
	}
	return cfg
}

func resolveStorePath(cfg config) (string, func(), error) {
	if cfg.file != "" {
		return cfg.file, nil, nil
	}

	tempDir, err := os.MkdirTemp("", "stratus-account-check-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temporary directory: %w", err)
	}

	path := filepath.Join(tempDir, "account-check.db")
	if cfg.keep {
		return path, nil, nil
	}
	return path, func() { _ = os.RemoveAll(tempDir) }, nil
}

func (c *checker) options() *accountinfo.Options {
	return &accountinfo.Options{BusyTimeout: c.cfg.busyTimeout}
}

func (c *checker) run() error {
	start := time.Now()
	defer func() { c.elapsed = time.Since(start) }()

	if err := c.seed(); err != nil {
		return err
	}

	fmt.Printf("Running %d workers x %d passes against %s\n", c.cfg.workers, c.cfg.passes, c.path)
	return runParallel(c.cfg.workers, func(worker int) error {
		return c.workerPasses(worker)
	})
}

// seed stores an initial account and bucket listing so every later
// read has something to find.
func (c *checker) seed() error {
	store, err := accountinfo.NewStore(c.path, c.options())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.SetAuthData(checkAccount(0)); err != nil {
		return fmt.Errorf("seed account: %w", err)
	}
	if err := store.RefreshBucketCache([]models.BucketEntry{
		{Name: "check-seed-a", ID: "bkt-seed-a"},
		{Name: "check-seed-b", ID: "bkt-seed-b"},
	}); err != nil {
		return fmt.Errorf("seed bucket cache: %w", err)
	}
	return nil
}

// workerPasses opens its own store handle so the workers contend for
// the file the way separate processes would.
func (c *checker) workerPasses(worker int) error {
	store, err := accountinfo.NewStore(c.path, c.options())
	if err != nil {
		return fmt.Errorf("worker %d: open store: %w", worker, err)
	}
	defer store.Close()

	for pass := 0; pass < c.cfg.passes; pass++ {
		if err := c.writePass(store, worker, pass); err != nil {
			return fmt.Errorf("worker %d pass %d: %w", worker, pass, err)
		}
		if err := c.readPass(store, worker, pass); err != nil {
			return fmt.Errorf("worker %d pass %d: %w", worker, pass, err)
		}
		if err := c.cachePass(store, worker, pass); err != nil {
			return fmt.Errorf("worker %d pass %d: %w", worker, pass, err)
		}
	}
	return nil
}

func (c *checker) writePass(store *accountinfo.Store, worker, pass int) error {
	if pass%writeEvery != 0 {
		return nil
	}

	err := store.SetAuthData(checkAccount(worker*c.cfg.passes + pass))
	if accountinfo.IsLocked(err) {
		c.metrics.countLockout()
		return nil
	}
	if err != nil {
		return fmt.Errorf("set auth data: %w", err)
	}
	c.metrics.countWrite()
	return nil
}

// readPass verifies that credentials stay visible while other workers
// replace them. A replace is atomic, so reads must never observe the
// account half-written or missing.
func (c *checker) readPass(store *accountinfo.Store, worker, pass int) error {
	accountID, err := store.GetAccountID()
	if accountinfo.IsLocked(err) {
		c.metrics.countLockout()
		return nil
	}
	if errors.Is(err, accountinfo.ErrMissingAccountData) {
		c.metrics.violation("worker %d pass %d: account data missing during replace", worker, pass)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get account id: %w", err)
	}
	if accountID != checkAccountID {
		c.metrics.violation("worker %d pass %d: unexpected account id %q", worker, pass, accountID)
		return nil
	}

	if _, err := store.GetAccountAuthToken(); err != nil {
		if accountinfo.IsLocked(err) {
			c.metrics.countLockout()
			return nil
		}
		if errors.Is(err, accountinfo.ErrMissingAccountData) {
			c.metrics.violation("worker %d pass %d: auth token missing during replace", worker, pass)
			return nil
		}
		return fmt.Errorf("get auth token: %w", err)
	}

	c.metrics.countRead()
	return nil
}

// cachePass exercises the bucket cache and the restriction check.
// Lookups are best effort: a concurrent replace may have emptied the
// cache, so a miss is not a violation.
func (c *checker) cachePass(store *accountinfo.Store, worker, pass int) error {
	entry := models.BucketEntry{
		Name: fmt.Sprintf("check-%d", worker),
		ID:   fmt.Sprintf("bkt-%d", worker),
	}

	err := store.SaveBucket(entry)
	if accountinfo.IsLocked(err) {
		c.metrics.countLockout()
		return nil
	}
	if err != nil {
		return fmt.Errorf("save bucket: %w", err)
	}

	_, ok := store.LookupBucketID(entry.Name)
	c.metrics.countLookup(ok)

	if err := store.CheckBucketRestriction(entry.Name); err != nil {
		if accountinfo.IsLocked(err) {
			c.metrics.countLockout()
			return nil
		}
		if errors.Is(err, accountinfo.ErrMissingAccountData) {
			c.metrics.violation("worker %d pass %d: account data missing during restriction check", worker, pass)
			return nil
		}
		return fmt.Errorf("bucket restriction check: %w", err)
	}
	return nil
}

// checkAccount returns an unrestricted account whose token and realm
// vary by n, so replaces are distinguishable.
func checkAccount(n int) models.Account {
	return models.Account{
		AccountID:       checkAccountID,
		ApplicationKey:  "check-application-key",
		AuthToken:       fmt.Sprintf("check-token-%d", n),
		APIURL:          "https://api.check.invalid",
		DownloadURL:     "https://download.check.invalid",
		MinimumPartSize: 100 * 1000 * 1000,
		Realm:           fmt.Sprintf("check-%d", n),
	}
}

func runParallel(count int, function func(int) error) error {
	var waitGroup sync.WaitGroup
	errCh := make(chan error, count)

	for index := 0; index < count; index++ {
		waitGroup.Add(1)
		go func(idx int) {
			defer waitGroup.Done()
			if err := function(idx); err != nil {
				errCh <- err
			}
		}(index)
	}

	waitGroup.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}

	return nil
}
