package archiver_test

import (
	"context"
	"sync"
	"testing"

	"arkive/archiver"
	"arkive/models"
	"arkive/storage"
	"arkive/testutil"

	"gorm.io/gorm"
)

// countingStore records how often each persistence operation is called.
type countingStore struct {
	archiver.Store

	mu    sync.Mutex
	calls map[string]int
}

func newCountingStore(inner archiver.Store) *countingStore {
	return &countingStore{Store: inner, calls: map[string]int{}}
}

func (s *countingStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

func (s *countingStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *countingStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *countingStore) FindByURL(ctx context.Context, url string) (*models.URLRecord, error) {
	s.record("FindByURL")
	return s.Store.FindByURL(ctx, url)
}

func (s *countingStore) Insert(ctx context.Context, url, originalURL string) (bool, error) {
	s.record("Insert")
	return s.Store.Insert(ctx, url, originalURL)
}

func (s *countingStore) SetArchiveURL(ctx context.Context, url, archiveURL string) error {
	s.record("SetArchiveURL")
	return s.Store.SetArchiveURL(ctx, url, archiveURL)
}

func (s *countingStore) ClearHidden(ctx context.Context, url string) error {
	s.record("ClearHidden")
	return s.Store.ClearHidden(ctx, url)
}

// fakeProvider returns a fixed archive URL or error.
type fakeProvider struct {
	mu           sync.Mutex
	archiveURL   string
	err          error
	calls        int
	lastURL      string
	lastIdentity string
}

func (p *fakeProvider) Save(ctx context.Context, url, clientIdentity string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastURL = url
	p.lastIdentity = clientIdentity
	if p.err != nil {
		return "", p.err
	}
	return p.archiveURL, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeLocker grants or refuses every lock.
type fakeLocker struct {
	grant    bool
	err      error
	acquired int
	released int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if !l.grant {
		return nil, false, nil
	}
	l.acquired++
	return func() { l.released++ }, true, nil
}

const testIdentity = "arkive-test/1.0"

type fixture struct {
	db        *gorm.DB
	store     *countingStore
	records   *storage.Store
	provider  *fakeProvider
	submitter *archiver.Submitter
	service   *archiver.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	records := storage.NewStore(db)
	store := newCountingStore(records)
	provider := &fakeProvider{}
	submitter := archiver.NewSubmitter(store, provider, archiver.Config{ClientIdentity: testIdentity})
	return &fixture{
		db:        db,
		store:     store,
		records:   records,
		provider:  provider,
		submitter: submitter,
		service:   archiver.NewService(archiver.NewClassifier(store), submitter),
	}
}
