package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/google/uuid"
)

type documentRepository struct {
	s *memoryStorer
}

func (r *documentRepository) Get(ctx context.Context, id string) (storer.Document, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	doc, ok := r.s.documents[id]
	if !ok {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrNotFound, id)
	}

	return copyDocument(doc), nil
}

func (r *documentRepository) GetMulti(ctx context.Context, page storer.Page) ([]storer.Document, error) {
	return r.list(page, func(storer.Document) bool { return true }), nil
}

func (r *documentRepository) GetByAgent(ctx context.Context, agentId string, page storer.Page) ([]storer.Document, error) {
	return r.list(page, func(doc storer.Document) bool {
		return doc.AgentId != nil && *doc.AgentId == agentId
	}), nil
}

func (r *documentRepository) GetByTool(ctx context.Context, toolId int64, page storer.Page) ([]storer.Document, error) {
	return r.list(page, func(doc storer.Document) bool {
		return doc.ToolId != nil && *doc.ToolId == toolId
	}), nil
}

func (r *documentRepository) Count(ctx context.Context) (int, error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	return len(r.s.documents), nil
}

func (r *documentRepository) Create(ctx context.Context, doc storer.Document) (storer.Document, error) {
	if err := storer.CheckVector(doc.Vector, r.s.options.Dimensions); err != nil {
		return storer.Document{}, err
	}

	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	if len(doc.Id) == 0 {
		doc.Id = uuid.New().String()
	}

	if _, exists := r.s.documents[doc.Id]; exists {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrDuplicate, doc.Id)
	}

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	doc = copyDocument(doc)

	r.s.documents[doc.Id] = doc

	return copyDocument(doc), nil
}

func (r *documentRepository) Update(ctx context.Context, id string, patch storer.DocumentPatch) (storer.Document, error) {
	if err := storer.CheckVector(patch.Vector, r.s.options.Dimensions); err != nil {
		return storer.Document{}, err
	}

	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	doc, ok := r.s.documents[id]
	if !ok {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrNotFound, id)
	}

	if patch.IfTextContent != nil && doc.TextContent != *patch.IfTextContent {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrTextChanged, id)
	}

	doc = patch.Apply(doc)

	r.s.documents[id] = doc

	return copyDocument(doc), nil
}

func (r *documentRepository) Remove(ctx context.Context, id string) (storer.Document, error) {
	r.s.mtx.Lock()
	defer r.s.mtx.Unlock()

	doc, ok := r.s.documents[id]
	if !ok {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrNotFound, id)
	}

	delete(r.s.documents, id)

	for embId, emb := range r.s.embeddings {
		if emb.Owner == storer.DocumentOwner(id) {
			delete(r.s.embeddings, embId)
		}
	}

	return doc, nil
}

func (r *documentRepository) Match(ctx context.Context, query []float32, threshold float64, count int) ([]searcher.Match[storer.Document], error) {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	candidates := make([]storer.Document, 0, len(r.s.documents))
	for _, doc := range r.s.documents {
		candidates = append(candidates, doc)
	}
	oldestFirst(candidates, documentAge)

	matches := match(candidates, func(doc storer.Document) []float32 { return doc.Vector }, query, threshold, count)
	for i := range matches {
		matches[i].Record = copyDocument(matches[i].Record)
	}

	return matches, nil
}

func (r *documentRepository) list(page storer.Page, keep func(storer.Document) bool) []storer.Document {
	r.s.mtx.RLock()
	defer r.s.mtx.RUnlock()

	docs := make([]storer.Document, 0, len(r.s.documents))
	for _, doc := range r.s.documents {
		if keep(doc) {
			docs = append(docs, copyDocument(doc))
		}
	}

	return paginate(docs, page, documentAge)
}

func documentAge(doc storer.Document) (int64, string) {
	return doc.CreatedAt.UnixNano(), doc.Id
}

func copyDocument(doc storer.Document) storer.Document {
	doc.Vector = storer.CopyVector(doc.Vector)
	return doc
}
