package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/internal/service"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrDuplicateEmbedding = errors.New("vector embedding already exists")

type ListOptions struct {
	AgentId *string
	Page    storer.Page
}

type Service struct {
	embs     storer.EmbeddingRepository
	msgs     storer.MessageRepository
	docs     storer.DocumentRepository
	embedder embedder.Embedder
	engine   *searcher.Engine[storer.VectorEmbedding]
	tracer   trace.Tracer
}

func (s *Service) CreateForMessage(ctx context.Context, messageId string) (emb storer.VectorEmbedding, err error) {
	ctx, span := s.tracer.Start(ctx, "embedding.create_for_message", trace.WithAttributes(attribute.String("message.id", messageId)))
	defer func() { service.EndSpan(span, err) }()

	msg, err := s.msgs.Get(ctx, messageId)
	if err != nil {
		return storer.VectorEmbedding{}, err
	}

	return s.create(ctx, storer.MessageOwner(msg.Id), msg.Content)
}

func (s *Service) CreateForDocument(ctx context.Context, documentId string) (emb storer.VectorEmbedding, err error) {
	ctx, span := s.tracer.Start(ctx, "embedding.create_for_document", trace.WithAttributes(attribute.String("document.id", documentId)))
	defer func() { service.EndSpan(span, err) }()

	doc, err := s.docs.Get(ctx, documentId)
	if err != nil {
		return storer.VectorEmbedding{}, err
	}

	return s.create(ctx, storer.DocumentOwner(doc.Id), doc.TextContent)
}

// create checks for an existing embedding before calling the provider. The
// store's unique index catches a concurrent create that slips past the check.
func (s *Service) create(ctx context.Context, owner storer.Owner, text string) (storer.VectorEmbedding, error) {
	_, err := s.byOwner(ctx, owner)
	if err == nil {
		return storer.VectorEmbedding{}, duplicate(owner)
	}
	if !errors.Is(err, storer.ErrNotFound) {
		return storer.VectorEmbedding{}, err
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return storer.VectorEmbedding{}, err
	}

	emb, err := s.embs.Create(ctx, storer.VectorEmbedding{Owner: owner, Vector: vec})
	if errors.Is(err, storer.ErrDuplicate) {
		return storer.VectorEmbedding{}, duplicate(owner)
	}
	if err != nil {
		return storer.VectorEmbedding{}, err
	}

	return emb, nil
}

func (s *Service) byOwner(ctx context.Context, owner storer.Owner) (storer.VectorEmbedding, error) {
	if owner.Kind == storer.OwnerMessage {
		return s.embs.GetByMessage(ctx, owner.Id)
	}
	return s.embs.GetByDocument(ctx, owner.Id)
}

func (s *Service) Get(ctx context.Context, id string) (storer.VectorEmbedding, error) {
	return s.embs.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]storer.VectorEmbedding, error) {
	if opts.AgentId != nil {
		return s.embs.GetByAgent(ctx, *opts.AgentId, opts.Page)
	}
	return s.embs.GetMulti(ctx, opts.Page)
}

func (s *Service) GetForMessage(ctx context.Context, messageId string) (storer.VectorEmbedding, error) {
	return s.embs.GetByMessage(ctx, messageId)
}

func (s *Service) GetForDocument(ctx context.Context, documentId string) (storer.VectorEmbedding, error) {
	return s.embs.GetByDocument(ctx, documentId)
}

func (s *Service) Remove(ctx context.Context, id string) (emb storer.VectorEmbedding, err error) {
	ctx, span := s.tracer.Start(ctx, "embedding.remove", trace.WithAttributes(attribute.String("embedding.id", id)))
	defer func() { service.EndSpan(span, err) }()

	return s.embs.Remove(ctx, id)
}

func (s *Service) Search(ctx context.Context, query string, limit int) (res searcher.Result[storer.VectorEmbedding], err error) {
	ctx, span := s.tracer.Start(ctx, "embedding.search", trace.WithAttributes(attribute.Int("search.limit", limit)))
	defer func() { service.EndSpan(span, err) }()

	if err := service.Required("query", query); err != nil {
		return searcher.Result[storer.VectorEmbedding]{}, err
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return searcher.Result[storer.VectorEmbedding]{}, err
	}

	res, err = s.engine.Search(ctx, vec, searcher.WithLimit(limit))
	if err != nil {
		return searcher.Result[storer.VectorEmbedding]{}, err
	}

	span.SetAttributes(attribute.Int("search.matches", len(res.Matches)), attribute.Bool("search.available", res.Available()))

	return res, nil
}

func duplicate(owner storer.Owner) error {
	return fmt.Errorf("%w for %s %s", ErrDuplicateEmbedding, owner.Kind, owner.Id)
}

func New(
	s storer.Storer,
	e embedder.Embedder,
	engine *searcher.Engine[storer.VectorEmbedding],
) *Service {
	return &Service{
		embs:     s.Embeddings(),
		msgs:     s.Messages(),
		docs:     s.Documents(),
		embedder: e,
		engine:   engine,
		tracer:   otel.Tracer("github.com/IA-UD-Tech/backend-boti/internal/service/embedding"),
	}
}
