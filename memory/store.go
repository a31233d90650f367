package memory

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("memory item not found")

// DefaultSearchLimit is used when Search is called with a non-positive limit.
const DefaultSearchLimit = 10

// Namespace groups items, for example {"user_alice", "personal_assistant"}.
type Namespace []string

// String joins the path-escaped parts with "/", so {"a/b"} and {"a", "b"}
// never share a key.
func (ns Namespace) String() string {
	parts := make([]string, len(ns))
	for i, p := range ns {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Item is one long-term memory.
type Item struct {
	Namespace Namespace      `json:"namespace"`
	Key       string         `json:"key"`
	Value     map[string]any `json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SearchResult is an item with its relevance to a query.
type SearchResult struct {
	Item
	Score float64 `json:"score"`
}

// Store persists long-term memories.
type Store interface {
	// Put creates or replaces the value stored under key.
	Put(ctx context.Context, ns Namespace, key string, value map[string]any) error
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, ns Namespace, key string) (*Item, error)
	// Search returns at most limit items of ns ordered by relevance to query.
	Search(ctx context.Context, ns Namespace, query string, limit int) ([]SearchResult, error)
	Delete(ctx context.Context, ns Namespace, key string) error
	List(ctx context.Context, ns Namespace) ([]*Item, error)
}

// itemText is the text an item is matched against.
func itemText(key string, value map[string]any) string {
	data, _ := json.Marshal(value)
	return key + " " + string(data)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "for": true, "in": true,
	"is": true, "of": true, "or": true, "the": true, "to": true, "what": true,
	"my": true, "me": true, "i": true, "on": true, "with": true,
}

// keywordScore is the share of distinct query terms found in text.
func keywordScore(query, text string) float64 {
	terms := map[string]bool{}
	for _, t := range tokenize(query) {
		if !stopWords[t] {
			terms[t] = true
		}
	}
	if len(terms) == 0 {
		return 0
	}
	words := map[string]bool{}
	for _, w := range tokenize(text) {
		words[w] = true
	}
	hits := 0
	for t := range terms {
		if words[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rank orders results by score, then key, and truncates to limit.
func rank(results []SearchResult, limit int) []SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// scoreKeywords ranks items by keyword overlap. An empty query lists every
// item; otherwise items without any matching term are dropped.
func scoreKeywords(items []*Item, query string, limit int) []SearchResult {
	var results []SearchResult
	for _, it := range items {
		if strings.TrimSpace(query) == "" {
			results = append(results, SearchResult{Item: *it})
			continue
		}
		if score := keywordScore(query, itemText(it.Key, it.Value)); score > 0 {
			results = append(results, SearchResult{Item: *it, Score: score})
		}
	}
	return rank(results, limit)
}
