package memory

import (
	"sort"
	"sync"

	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
)

type memoryStorer struct {
	options    storer.Options
	documents  map[string]storer.Document
	messages   map[string]storer.Message
	embeddings map[string]storer.VectorEmbedding
	mtx        sync.RWMutex
}

func (s *memoryStorer) Documents() storer.DocumentRepository {
	return &documentRepository{s}
}

func (s *memoryStorer) Messages() storer.MessageRepository {
	return &messageRepository{s}
}

func (s *memoryStorer) Embeddings() storer.EmbeddingRepository {
	return &embeddingRepository{s}
}

func (s *memoryStorer) Close() error {
	return nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	s := &memoryStorer{
		options:    options,
		documents:  map[string]storer.Document{},
		messages:   map[string]storer.Message{},
		embeddings: map[string]storer.VectorEmbedding{},
		mtx:        sync.RWMutex{},
	}

	return s
}

// oldestFirst orders records by creation time, ties broken by id.
func oldestFirst[T any](records []T, key func(T) (int64, string)) {
	sort.Slice(records, func(i, j int) bool {
		ti, ii := key(records[i])
		tj, ij := key(records[j])
		if ti != tj {
			return ti < tj
		}
		return ii < ij
	})
}

// paginate orders records oldest first and applies page.
func paginate[T any](records []T, page storer.Page, key func(T) (int64, string)) []T {
	oldestFirst(records, key)

	if page.Skip >= len(records) {
		return []T{}
	}

	records = records[page.Skip:]

	if len(records) > page.Limit {
		records = records[:page.Limit]
	}

	return records
}

// match scores candidates against query. Equal scores keep candidate order.
func match[T any](candidates []T, vector func(T) []float32, query []float32, threshold float64, count int) []searcher.Match[T] {
	if count < 1 {
		return nil
	}

	matches := make([]searcher.Match[T], 0, len(candidates))

	for _, rec := range candidates {
		vec := vector(rec)
		if len(vec) == 0 {
			continue
		}
		score := searcher.CosineSimilarity(query, vec)
		if score < threshold {
			continue
		}
		matches = append(matches, searcher.Match[T]{Record: rec, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > count {
		matches = matches[:count]
	}

	return matches
}
