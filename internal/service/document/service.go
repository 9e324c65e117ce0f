package document

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/internal/service"
	"github.com/IA-UD-Tech/backend-boti/internal/service/indexer"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Input struct {
	AgentId     *string
	Name        string
	TextContent string
	ToolId      *int64
}

// ListOptions filters a listing. AgentId wins over ToolId when both are set.
type ListOptions struct {
	AgentId *string
	ToolId  *int64
	Page    storer.Page
}

// Service keeps document text and document vector consistent. With an
// indexer the vector is computed after the write, otherwise before it.
type Service struct {
	docs     storer.DocumentRepository
	embedder embedder.Embedder
	engine   *searcher.Engine[storer.Document]
	indexer  *indexer.Indexer
	tracer   trace.Tracer
}

func (s *Service) Create(ctx context.Context, in Input) (doc storer.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.create")
	defer func() { service.EndSpan(span, err) }()

	if err := errors.Join(service.Required("name", in.Name), service.Required("text_content", in.TextContent)); err != nil {
		return storer.Document{}, err
	}

	doc = storer.Document{
		AgentId:     in.AgentId,
		Name:        in.Name,
		TextContent: in.TextContent,
		ToolId:      in.ToolId,
	}

	if s.indexer == nil {
		vec, err := s.embedder.Embed(ctx, in.TextContent)
		if err != nil {
			return storer.Document{}, err
		}
		doc.Vector = vec
	}

	doc, err = s.docs.Create(ctx, doc)
	if err != nil {
		return storer.Document{}, err
	}

	span.SetAttributes(attribute.String("document.id", doc.Id))

	s.enqueue(ctx, doc.Id)

	return doc, nil
}

// Update writes the given fields. A new text is embedded exactly once and
// stored together with its vector; other fields never touch the embedder.
func (s *Service) Update(ctx context.Context, id string, patch storer.DocumentPatch) (doc storer.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.update", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { service.EndSpan(span, err) }()

	patch.Vector = nil
	patch.ClearVector = false
	patch.IfTextContent = nil

	if patch.Name != nil {
		if err := service.Required("name", *patch.Name); err != nil {
			return storer.Document{}, err
		}
	}

	reembed := patch.TextContent != nil

	if reembed {
		if err := service.Required("text_content", *patch.TextContent); err != nil {
			return storer.Document{}, err
		}
	}

	if _, err := s.docs.Get(ctx, id); err != nil {
		return storer.Document{}, err
	}

	if reembed {
		if s.indexer == nil {
			vec, err := s.embedder.Embed(ctx, *patch.TextContent)
			if err != nil {
				return storer.Document{}, err
			}
			patch.Vector = vec
		} else {
			patch.ClearVector = true
		}
	}

	doc, err = s.docs.Update(ctx, id, patch)
	if err != nil {
		return storer.Document{}, err
	}

	if reembed {
		s.enqueue(ctx, doc.Id)
	}

	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (storer.Document, error) {
	return s.docs.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]storer.Document, error) {
	switch {
	case opts.AgentId != nil:
		return s.docs.GetByAgent(ctx, *opts.AgentId, opts.Page)
	case opts.ToolId != nil:
		return s.docs.GetByTool(ctx, *opts.ToolId, opts.Page)
	default:
		return s.docs.GetMulti(ctx, opts.Page)
	}
}

func (s *Service) Remove(ctx context.Context, id string) (doc storer.Document, err error) {
	ctx, span := s.tracer.Start(ctx, "document.remove", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { service.EndSpan(span, err) }()

	return s.docs.Remove(ctx, id)
}

// Search embeds the query once and ranks documents against it. An
// unavailable search backend yields an empty Result with Unavailable set.
func (s *Service) Search(ctx context.Context, query string, limit int) (res searcher.Result[storer.Document], err error) {
	ctx, span := s.tracer.Start(ctx, "document.search", trace.WithAttributes(attribute.Int("search.limit", limit)))
	defer func() { service.EndSpan(span, err) }()

	if err := service.Required("query", query); err != nil {
		return searcher.Result[storer.Document]{}, err
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return searcher.Result[storer.Document]{}, err
	}

	res, err = s.engine.Search(ctx, vec, searcher.WithLimit(limit))
	if err != nil {
		return searcher.Result[storer.Document]{}, err
	}

	span.SetAttributes(attribute.Int("search.matches", len(res.Matches)), attribute.Bool("search.available", res.Available()))

	return res, nil
}

func (s *Service) enqueue(ctx context.Context, id string) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Enqueue(ctx, id); err != nil {
		slog.WarnContext(ctx, "document left without vector", "document_id", id, "error", err)
	}
}

// New builds the service. A nil indexer embeds inline on every write.
func New(
	docs storer.DocumentRepository,
	e embedder.Embedder,
	engine *searcher.Engine[storer.Document],
	idx *indexer.Indexer,
) *Service {
	return &Service{
		docs:     docs,
		embedder: e,
		engine:   engine,
		indexer:  idx,
		tracer:   otel.Tracer("github.com/IA-UD-Tech/backend-boti/internal/service/document"),
	}
}
