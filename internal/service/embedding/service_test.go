package embedding

import (
	"context"
	"fmt"
	"testing"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/embedder/mock"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/IA-UD-Tech/backend-boti/storer/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dims = 512

type countingEmbedder struct {
	embedder.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.Embedder.Embed(ctx, text)
}

// racingEmbeddings hides existing rows from the pre-check, as if a concurrent
// request created the embedding between the check and the insert.
type racingEmbeddings struct {
	storer.EmbeddingRepository
	creates int
}

func (r *racingEmbeddings) GetByMessage(ctx context.Context, messageId string) (storer.VectorEmbedding, error) {
	return storer.VectorEmbedding{}, fmt.Errorf("%w: message %s", storer.ErrNotFound, messageId)
}

func (r *racingEmbeddings) Create(ctx context.Context, emb storer.VectorEmbedding) (storer.VectorEmbedding, error) {
	r.creates++
	return r.EmbeddingRepository.Create(ctx, emb)
}

type unavailableEmbeddings struct {
	storer.EmbeddingRepository
}

func (u *unavailableEmbeddings) Match(ctx context.Context, query []float32, threshold float64, count int) ([]searcher.Match[storer.VectorEmbedding], error) {
	return nil, storer.ErrUnavailable
}

type wrappedStorer struct {
	storer.Storer
	embs storer.EmbeddingRepository
}

func (w *wrappedStorer) Embeddings() storer.EmbeddingRepository {
	return w.embs
}

func setup(t *testing.T, wrap func(storer.EmbeddingRepository) storer.EmbeddingRepository) (*Service, storer.Storer, *countingEmbedder) {
	t.Helper()

	s := memory.NewStorer(storer.WithDimensions(dims))
	embs := s.Embeddings()
	if wrap != nil {
		embs = wrap(embs)
	}
	ws := &wrappedStorer{Storer: s, embs: embs}

	e := &countingEmbedder{Embedder: mock.NewEmbedder(embedder.WithDimensions(dims))}
	engine := searcher.NewEngine[storer.VectorEmbedding](embs, searcher.WithDimensions(dims), searcher.WithDefaultThreshold(0.1))

	return New(ws, e, engine), ws, e
}

func TestCreateForMessage(t *testing.T) {
	ctx := context.Background()
	svc, s, e := setup(t, nil)

	msg, err := s.Messages().Create(ctx, storer.Message{ConversationId: "c1", Sender: storer.SenderUser, Content: "where is my order"})
	require.NoError(t, err)

	emb, err := svc.CreateForMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.Equal(t, storer.MessageOwner(msg.Id), emb.Owner)
	assert.Len(t, emb.Vector, dims)
	assert.Equal(t, 1, e.calls)

	got, err := svc.GetForMessage(ctx, msg.Id)
	require.NoError(t, err)
	assert.Equal(t, emb.Id, got.Id)
}

func TestCreateForMessage_DuplicateIsRejectedBeforeEmbedding(t *testing.T) {
	ctx := context.Background()
	svc, s, e := setup(t, nil)

	msg, err := s.Messages().Create(ctx, storer.Message{ConversationId: "c1", Sender: storer.SenderUser, Content: "hello"})
	require.NoError(t, err)

	_, err = svc.CreateForMessage(ctx, msg.Id)
	require.NoError(t, err)

	_, err = svc.CreateForMessage(ctx, msg.Id)
	assert.ErrorIs(t, err, ErrDuplicateEmbedding)
	assert.Equal(t, 1, e.calls)

	count, err := s.Embeddings().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateForMessage_ConcurrentDuplicateIsTranslated(t *testing.T) {
	ctx := context.Background()
	var racing *racingEmbeddings
	svc, s, _ := setup(t, func(embs storer.EmbeddingRepository) storer.EmbeddingRepository {
		racing = &racingEmbeddings{EmbeddingRepository: embs}
		return racing
	})

	msg, err := s.Messages().Create(ctx, storer.Message{ConversationId: "c1", Sender: storer.SenderAgent, Content: "hi"})
	require.NoError(t, err)

	_, err = svc.CreateForMessage(ctx, msg.Id)
	require.NoError(t, err)

	_, err = svc.CreateForMessage(ctx, msg.Id)
	assert.ErrorIs(t, err, ErrDuplicateEmbedding)
	assert.Equal(t, 2, racing.creates)

	count, err := s.Embeddings().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateForMessage_MissingMessage(t *testing.T) {
	svc, _, e := setup(t, nil)

	_, err := svc.CreateForMessage(context.Background(), "missing")
	assert.ErrorIs(t, err, storer.ErrNotFound)
	assert.Equal(t, 0, e.calls)
}

func TestCreateForDocument(t *testing.T) {
	ctx := context.Background()
	svc, s, e := setup(t, nil)

	doc, err := s.Documents().Create(ctx, storer.Document{Name: "faq", TextContent: "shipping takes two days"})
	require.NoError(t, err)

	emb, err := svc.CreateForDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, storer.DocumentOwner(doc.Id), emb.Owner)

	_, err = svc.CreateForDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, ErrDuplicateEmbedding)
	assert.Equal(t, 1, e.calls)

	got, err := svc.GetForDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, emb.Id, got.Id)

	removed, err := svc.Remove(ctx, emb.Id)
	require.NoError(t, err)
	assert.Equal(t, emb.Id, removed.Id)

	_, err = svc.Get(ctx, emb.Id)
	assert.ErrorIs(t, err, storer.ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, s, _ := setup(t, nil)

	for _, agent := range []string{"a1", "a1", "a2"} {
		_, err := s.Embeddings().Create(ctx, storer.VectorEmbedding{Owner: storer.AgentOwner(agent), Vector: make([]float32, dims)})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, ListOptions{Page: storer.NewPage(0, 0)})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	a1 := "a1"
	byAgent, err := svc.List(ctx, ListOptions{AgentId: &a1, Page: storer.NewPage(0, 0)})
	require.NoError(t, err)
	assert.Len(t, byAgent, 2)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, s, e := setup(t, nil)

	msg, err := s.Messages().Create(ctx, storer.Message{ConversationId: "c1", Sender: storer.SenderUser, Content: "track my parcel delivery"})
	require.NoError(t, err)

	emb, err := svc.CreateForMessage(ctx, msg.Id)
	require.NoError(t, err)

	res, err := svc.Search(ctx, "parcel delivery", 5)
	require.NoError(t, err)
	require.True(t, res.Available())
	require.Len(t, res.Matches, 1)
	assert.Equal(t, emb.Id, res.Matches[0].Record.Id)
	assert.Equal(t, 2, e.calls)
}

func TestSearch_BackendFailureDegrades(t *testing.T) {
	svc, _, e := setup(t, func(embs storer.EmbeddingRepository) storer.EmbeddingRepository {
		return &unavailableEmbeddings{EmbeddingRepository: embs}
	})

	res, err := svc.Search(context.Background(), "parcel", 5)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.ErrorIs(t, res.Unavailable, searcher.ErrUnavailable)
	assert.Equal(t, 1, e.calls)
}
