package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/zulip"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// makeEntry builds an entry published age before testNow.
func makeEntry(id string, age time.Duration) feed.Entry {
	published := testNow.Add(-age)
	raw := published.Format(time.RFC1123Z)
	return feed.Entry{
		ID:          id,
		Title:       "Title " + id,
		Link:        "https://example.com/" + id,
		Summary:     "<p>Summary " + id + "</p>",
		Published:   raw,
		PublishedAt: &published,
		Hash:        feed.EntryHash(id, raw),
	}
}

// freshEntries returns ids as entries one hour apart, newest first.
func freshEntries(ids ...string) []feed.Entry {
	entries := make([]feed.Entry, len(ids))
	for i, id := range ids {
		entries[i] = makeEntry(id, time.Duration(i+1)*time.Hour)
	}
	return entries
}

func hashesOf(entries ...feed.Entry) []string {
	hashes := make([]string, len(entries))
	for i, entry := range entries {
		hashes[i] = entry.Hash
	}
	return hashes
}

// MockFeedSource serves canned entries per URL
type MockFeedSource struct {
	feeds   map[string][]feed.Entry
	titles  map[string]string
	errs    map[string]error
	fetched []string
}

func NewMockFeedSource() *MockFeedSource {
	return &MockFeedSource{
		feeds:  make(map[string][]feed.Entry),
		titles: make(map[string]string),
		errs:   make(map[string]error),
	}
}

func (m *MockFeedSource) Run(ctx context.Context, url string) (*feed.Metadata, []feed.Entry, error) {
	m.fetched = append(m.fetched, url)
	if err := m.errs[url]; err != nil {
		return nil, nil, err
	}
	return &feed.Metadata{Title: m.titles[url]}, m.feeds[url], nil
}

// MockSender records messages and fails the calls listed in failOn (1-based)
type MockSender struct {
	messages []zulip.Message
	failOn   map[int]bool
	calls    int
}

func (m *MockSender) Send(ctx context.Context, msg zulip.Message) (*zulip.Response, error) {
	m.calls++
	if m.failOn[m.calls] {
		resp := &zulip.Response{Result: "error", Msg: "rejected", Code: "BAD_REQUEST"}
		return resp, &zulip.APIError{StatusCode: 400, Response: resp}
	}
	m.messages = append(m.messages, msg)
	return &zulip.Response{Result: "success", ID: int64(m.calls)}, nil
}

// CancellingSender cancels the run while its cancelOn-th call is in flight
type CancellingSender struct {
	cancelOn int
	cancel   context.CancelFunc
	calls    int
}

func (m *CancellingSender) Send(ctx context.Context, msg zulip.Message) (*zulip.Response, error) {
	m.calls++
	if m.calls == m.cancelOn {
		m.cancel()
		return nil, ctx.Err()
	}
	return &zulip.Response{Result: "success", ID: int64(m.calls)}, nil
}

// MockSeenRepository keeps seen-sets in memory
type MockSeenRepository struct {
	sets      map[string]database.SeenSet
	appended  map[string][]string
	loadErr   error
	appendErr error
}

func NewMockSeenRepository() *MockSeenRepository {
	return &MockSeenRepository{
		sets:     make(map[string]database.SeenSet),
		appended: make(map[string][]string),
	}
}

func (m *MockSeenRepository) Load(ctx context.Context, key string) (database.SeenSet, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	seen := database.NewSeenSet()
	for hash := range m.sets[key] {
		seen.Add(hash)
	}
	return seen, nil
}

func (m *MockSeenRepository) Append(ctx context.Context, key string, hashes []string) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	if len(hashes) == 0 {
		return nil
	}
	if m.sets[key] == nil {
		m.sets[key] = database.NewSeenSet()
	}
	for _, hash := range hashes {
		m.sets[key].Add(hash)
	}
	m.appended[key] = append(m.appended[key], hashes...)
	return nil
}

func (m *MockSeenRepository) Close() error {
	return nil
}

func (m *MockSeenRepository) seed(key string, hashes ...string) {
	m.sets[key] = database.NewSeenSet(hashes...)
}

// MockSourceLoader returns a fixed feed list
type MockSourceLoader struct {
	sources []feed.Source
	err     error
}

func (m *MockSourceLoader) Run() ([]feed.Source, error) {
	return m.sources, m.err
}

var errBoom = errors.New("boom")

func newTestPipeline(feeds FeedSource, repo database.SeenRepository, sender MessageSender) Pipeline {
	return Pipeline{
		Feeds:     feeds,
		Repo:      repo,
		Sender:    sender,
		Sanitizer: feed.NewSanitizer(false, false),
		Settings: Settings{
			MaxAge:         DefaultMaxAge,
			BootstrapLimit: DefaultBootstrapLimit,
			Topic:          "rss",
			SenderEmail:    "bot@example.com",
			KeyMode:        database.KeyByHost,
			Now:            func() time.Time { return testNow },
		},
	}
}
