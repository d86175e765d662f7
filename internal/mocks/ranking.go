package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/events"
)

// MockRanking is an in-memory implementation of cache.Ranking
type MockRanking struct {
	mu     sync.Mutex
	Scores map[uint]int
	Size   int
	// Err, when set, is returned by every operation
	Err          error
	ReplaceCalls int
}

// Verify interface compliance
var _ cache.Ranking = (*MockRanking)(nil)

func NewMockRanking() *MockRanking {
	return &MockRanking{
		Scores: make(map[uint]int),
		Size:   cache.PopularPostsSize,
	}
}

func (m *MockRanking) Record(ctx context.Context, postID uint, likes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Scores[postID] = likes
	m.trim()
	return nil
}

func (m *MockRanking) Remove(ctx context.Context, postID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Scores, postID)
	return nil
}

func (m *MockRanking) Top(ctx context.Context, n int) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ids := m.ordered()
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

func (m *MockRanking) Replace(ctx context.Context, entries []cache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls++
	if m.Err != nil {
		return m.Err
	}
	m.Scores = make(map[uint]int, len(entries))
	for _, e := range entries {
		m.Scores[e.PostID] = e.Likes
	}
	m.trim()
	return nil
}

// Score returns the stored score of postID
func (m *MockRanking) Score(postID uint) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	likes, ok := m.Scores[postID]
	return likes, ok
}

// Replaced reports how many times Replace was called
func (m *MockRanking) Replaced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReplaceCalls
}

// ordered sorts like a reversed sorted set: score desc, then member desc
func (m *MockRanking) ordered() []uint {
	ids := make([]uint, 0, len(m.Scores))
	for id := range m.Scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if m.Scores[ids[i]] != m.Scores[ids[j]] {
			return m.Scores[ids[i]] > m.Scores[ids[j]]
		}
		return ids[i] > ids[j]
	})
	return ids
}

func (m *MockRanking) trim() {
	ids := m.ordered()
	for _, id := range ids[min(len(ids), m.Size):] {
		delete(m.Scores, id)
	}
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	Subject string
	Event   interface{}
}

// MockPublisher records events instead of sending them
type MockPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Err    error
}

// Verify interface compliance
var _ events.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, PublishedEvent{Subject: subject, Event: event})
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Subjects lists the subjects published so far
func (m *MockPublisher) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	subjects := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		subjects = append(subjects, e.Subject)
	}
	return subjects
}
