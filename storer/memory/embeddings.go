package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/google/uuid"
)

type embeddingRepository struct {
	s *memoryStorer
}

func (r *embeddingRepository) Get(ctx context.Context, id string) (storer.VectorEmbedding, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	emb, ok := r.s.embeddings[id]
	if !ok {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding %s", storer.ErrNotFound, id)
	}

	return copyEmbedding(emb), nil
}

func (r *embeddingRepository) GetMulti(ctx context.Context, page storer.Page) ([]storer.VectorEmbedding, error) {
	return r.list(page, func(storer.VectorEmbedding) bool { return true }), nil
}

func (r *embeddingRepository) GetByMessage(ctx context.Context, messageId string) (storer.VectorEmbedding, error) {
	return r.byOwner(storer.MessageOwner(messageId))
}

func (r *embeddingRepository) GetByDocument(ctx context.Context, documentId string) (storer.VectorEmbedding, error) {
	return r.byOwner(storer.DocumentOwner(documentId))
}

func (r *embeddingRepository) GetByAgent(ctx context.Context, agentId string, page storer.Page) ([]storer.VectorEmbedding, error) {
	owner := storer.AgentOwner(agentId)
	return r.list(page, func(emb storer.VectorEmbedding) bool {
		return emb.Owner == owner
	}), nil
}

func (r *embeddingRepository) Count(ctx context.Context) (int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	return len(r.s.embeddings), nil
}

func (r *embeddingRepository) Create(ctx context.Context, emb storer.VectorEmbedding) (storer.VectorEmbedding, error) {
	if err := emb.Owner.Validate(); err != nil {
		return storer.VectorEmbedding{}, err
	}

	if len(emb.Vector) == 0 {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding has no vector", storer.ErrDimensionMismatch)
	}

	if err := storer.CheckVector(emb.Vector, r.s.options.Dimensions); err != nil {
		return storer.VectorEmbedding{}, err
	}

	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if emb.Owner.Unique() {
		for _, existing := range r.s.embeddings {
			if existing.Owner == emb.Owner {
				return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding for %s %s", storer.ErrDuplicate, emb.Owner.Kind, emb.Owner.Id)
			}
		}
	}

	if len(emb.Id) == 0 {
		emb.Id = uuid.New().String()
	}

	if _, exists := r.s.embeddings[emb.Id]; exists {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding %s", storer.ErrDuplicate, emb.Id)
	}

	if emb.CreatedAt.IsZero() {
		emb.CreatedAt = time.Now().UTC()
	}

	emb = copyEmbedding(emb)

	r.s.embeddings[emb.Id] = emb

	return copyEmbedding(emb), nil
}

func (r *embeddingRepository) Remove(ctx context.Context, id string) (storer.VectorEmbedding, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	emb, ok := r.s.embeddings[id]
	if !ok {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding %s", storer.ErrNotFound, id)
	}

	delete(r.s.embeddings, id)

	return emb, nil
}

func (r *embeddingRepository) Match(ctx context.Context, query []float32, threshold float64, count int) ([]searcher.Match[storer.VectorEmbedding], error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	candidates := make([]storer.VectorEmbedding, 0, len(r.s.embeddings))
	for _, emb := range r.s.embeddings {
		candidates = append(candidates, emb)
	}
	oldestFirst(candidates, embeddingAge)

	matches := match(candidates, func(emb storer.VectorEmbedding) []float32 { return emb.Vector }, query, threshold, count)
	for i := range matches {
		matches[i].Record = copyEmbedding(matches[i].Record)
	}

	return matches, nil
}

func (r *embeddingRepository) byOwner(owner storer.Owner) (storer.VectorEmbedding, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	for _, emb := range r.s.embeddings {
		if emb.Owner == owner {
			return copyEmbedding(emb), nil
		}
	}

	return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding for %s %s", storer.ErrNotFound, owner.Kind, owner.Id)
}

func (r *embeddingRepository) list(page storer.Page, keep func(storer.VectorEmbedding) bool) []storer.VectorEmbedding {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	embs := make([]storer.VectorEmbedding, 0, len(r.s.embeddings))
	for _, emb := range r.s.embeddings {
		if keep(emb) {
			embs = append(embs, copyEmbedding(emb))
		}
	}

	return paginate(embs, page, embeddingAge)
}

func embeddingAge(emb storer.VectorEmbedding) (int64, string) {
	return emb.CreatedAt.UnixNano(), emb.Id
}

func copyEmbedding(emb storer.VectorEmbedding) storer.VectorEmbedding {
	emb.Vector = storer.CopyVector(emb.Vector)
	return emb
}
