package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/embeddings"
)

type storedItem struct {
	item   Item
	vector []float32
}

// InMemoryStore keeps long-term memories in process. With an embedder,
// Search ranks by cosine similarity of embeddings; without one it ranks by
// keyword overlap.
type InMemoryStore struct {
	mu       sync.RWMutex
	items    map[string]map[string]*storedItem
	embedder embeddings.Embedder
	now      func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithEmbedder enables semantic search.
func WithEmbedder(e embeddings.Embedder) InMemoryOption {
	return func(s *InMemoryStore) {
		s.embedder = e
	}
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		items: make(map[string]map[string]*storedItem),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func copyValue(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func (s *InMemoryStore) Put(ctx context.Context, ns Namespace, key string, value map[string]any) error {
	var vector []float32
	if s.embedder != nil {
		vectors, err := s.embedder.EmbedDocuments(ctx, []string{itemText(key, value)})
		if err != nil {
			return fmt.Errorf("embed %s/%s: %w", ns, key, err)
		}
		if len(vectors) > 0 {
			vector = vectors[0]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.items[ns.String()]
	if !ok {
		bucket = make(map[string]*storedItem)
		s.items[ns.String()] = bucket
	}

	now := s.now()
	created := now
	if old, ok := bucket[key]; ok {
		created = old.item.CreatedAt
	}
	bucket[key] = &storedItem{
		item: Item{
			Namespace: append(Namespace(nil), ns...),
			Key:       key,
			Value:     copyValue(value),
			CreatedAt: created,
			UpdatedAt: now,
		},
		vector: vector,
	}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ns Namespace, key string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[ns.String()][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, ns, key)
	}
	item := it.item
	item.Value = copyValue(it.item.Value)
	return &item, nil
}

func (s *InMemoryStore) Search(ctx context.Context, ns Namespace, query string, limit int) ([]SearchResult, error) {
	if s.embedder == nil || strings.TrimSpace(query) == "" {
		items, err := s.List(ctx, ns)
		if err != nil {
			return nil, err
		}
		return scoreKeywords(items, query, limit), nil
	}

	qv, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	var results []SearchResult
	for _, it := range s.items[ns.String()] {
		item := it.item
		item.Value = copyValue(it.item.Value)
		results = append(results, SearchResult{Item: item, Score: cosine(qv, it.vector)})
	}
	s.mu.RUnlock()

	return rank(results, limit), nil
}

func (s *InMemoryStore) Delete(_ context.Context, ns Namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items[ns.String()], key)
	return nil
}

// List returns the items of ns sorted by key.
func (s *InMemoryStore) List(_ context.Context, ns Namespace) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Item
	for _, it := range s.items[ns.String()] {
		item := it.item
		item.Value = copyValue(it.item.Value)
		out = append(out, &item)
	}
	sortItems(out)
	return out, nil
}
