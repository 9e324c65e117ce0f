package storer

import (
	"context"

	"github.com/IA-UD-Tech/backend-boti/searcher"
)

type Storer interface {
	Documents() DocumentRepository
	Messages() MessageRepository
	Embeddings() EmbeddingRepository
	Close() error
}

// DocumentRepository stores documents and their optional vector. Match is
// the similarity backend over document vectors.
type DocumentRepository interface {
	Get(ctx context.Context, id string) (Document, error)
	GetMulti(ctx context.Context, page Page) ([]Document, error)
	GetByAgent(ctx context.Context, agentId string, page Page) ([]Document, error)
	GetByTool(ctx context.Context, toolId int64, page Page) ([]Document, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, doc Document) (Document, error)
	Update(ctx context.Context, id string, patch DocumentPatch) (Document, error)
	Remove(ctx context.Context, id string) (Document, error)
	searcher.Backend[Document]
}

// EmbeddingRepository stores vector embeddings keyed by their owner. At most
// one embedding exists per message and per document; a second Create for the
// same owner fails with ErrDuplicate.
type EmbeddingRepository interface {
	Get(ctx context.Context, id string) (VectorEmbedding, error)
	GetMulti(ctx context.Context, page Page) ([]VectorEmbedding, error)
	GetByMessage(ctx context.Context, messageId string) (VectorEmbedding, error)
	GetByDocument(ctx context.Context, documentId string) (VectorEmbedding, error)
	GetByAgent(ctx context.Context, agentId string, page Page) ([]VectorEmbedding, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, emb VectorEmbedding) (VectorEmbedding, error)
	Remove(ctx context.Context, id string) (VectorEmbedding, error)
	searcher.Backend[VectorEmbedding]
}

type MessageRepository interface {
	Get(ctx context.Context, id string) (Message, error)
	Create(ctx context.Context, msg Message) (Message, error)
}
