package memory

import (
	"context"
	"testing"
	"time"

	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorer() storer.Storer {
	return NewStorer(storer.WithDimensions(3))
}

func ptr[T any](v T) *T {
	return &v
}

func TestDocuments_CRUD(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()

	created, err := docs.Create(ctx, storer.Document{
		Name:        "handbook",
		TextContent: "refund policy",
		AgentId:     ptr("agent-1"),
		Vector:      []float32{1, 0, 0},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Id)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := docs.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := docs.Update(ctx, created.Id, storer.DocumentPatch{Name: ptr("manual")})
	require.NoError(t, err)
	assert.Equal(t, "manual", updated.Name)
	assert.Equal(t, "refund policy", updated.TextContent)
	assert.Equal(t, []float32{1, 0, 0}, updated.Vector)

	count, err := docs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	removed, err := docs.Remove(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, created.Id, removed.Id)

	_, err = docs.Get(ctx, created.Id)
	assert.ErrorIs(t, err, storer.ErrNotFound)

	_, err = docs.Remove(ctx, created.Id)
	assert.ErrorIs(t, err, storer.ErrNotFound)
}

func TestDocuments_StoredVectorIsCopied(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()

	vec := []float32{1, 0, 0}
	created, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "a", Vector: vec})
	require.NoError(t, err)

	vec[0] = 9
	created.Vector[1] = 9

	got, err := docs.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)
}

func TestDocuments_RejectsWrongDimension(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()

	_, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "a", Vector: []float32{1, 0}})
	assert.ErrorIs(t, err, storer.ErrDimensionMismatch)

	created, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "a"})
	require.NoError(t, err)
	assert.Nil(t, created.Vector)

	_, err = docs.Update(ctx, created.Id, storer.DocumentPatch{Vector: []float32{1, 0, 0, 0}})
	assert.ErrorIs(t, err, storer.ErrDimensionMismatch)
}

func TestDocuments_UpdateIfTextContent(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()

	created, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "old"})
	require.NoError(t, err)

	_, err = docs.Update(ctx, created.Id, storer.DocumentPatch{TextContent: ptr("new")})
	require.NoError(t, err)

	_, err = docs.Update(ctx, created.Id, storer.DocumentPatch{Vector: []float32{1, 0, 0}, IfTextContent: ptr("old")})
	assert.ErrorIs(t, err, storer.ErrTextChanged)

	got, err := docs.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Nil(t, got.Vector)

	updated, err := docs.Update(ctx, created.Id, storer.DocumentPatch{Vector: []float32{1, 0, 0}, IfTextContent: ptr("new")})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, updated.Vector)
}

func TestDocuments_Filters(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()

	for i, agent := range []string{"a1", "a2", "a1"} {
		_, err := docs.Create(ctx, storer.Document{
			Name:        agent,
			TextContent: agent,
			AgentId:     ptr(agent),
			ToolId:      ptr(int64(i)),
		})
		require.NoError(t, err)
	}

	byAgent, err := docs.GetByAgent(ctx, "a1", storer.NewPage(0, 0))
	require.NoError(t, err)
	assert.Len(t, byAgent, 2)

	byTool, err := docs.GetByTool(ctx, 1, storer.NewPage(0, 0))
	require.NoError(t, err)
	require.Len(t, byTool, 1)
	assert.Equal(t, "a2", byTool[0].Name)

	page, err := docs.GetMulti(ctx, storer.NewPage(1, 1))
	require.NoError(t, err)
	assert.Len(t, page, 1)

	beyond, err := docs.GetMulti(ctx, storer.NewPage(10, 5))
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestDocuments_Match(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()

	for _, d := range []storer.Document{
		{Name: "exact", TextContent: "x", Vector: []float32{1, 0, 0}},
		{Name: "close", TextContent: "x", Vector: []float32{1, 1, 0}},
		{Name: "far", TextContent: "x", Vector: []float32{0, 0, 1}},
		{Name: "unembedded", TextContent: "x"},
	} {
		_, err := docs.Create(ctx, d)
		require.NoError(t, err)
	}

	matches, err := docs.Match(ctx, []float32{1, 0, 0}, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].Record.Name)
	assert.Equal(t, "close", matches[1].Record.Name)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)

	limited, err := docs.Match(ctx, []float32{1, 0, 0}, 0.5, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDocuments_MatchTiesOldestFirst(t *testing.T) {
	ctx := context.Background()
	docs := newTestStorer().Documents()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, d := range []struct {
		name   string
		offset time.Duration
	}{
		{"third", 2 * time.Minute},
		{"first", 0},
		{"second", time.Minute},
	} {
		_, err := docs.Create(ctx, storer.Document{
			Name:        d.name,
			TextContent: "x",
			Vector:      []float32{0, 1, 0},
			CreatedAt:   base.Add(d.offset),
		})
		require.NoError(t, err)
	}

	for range 5 {
		matches, err := docs.Match(ctx, []float32{0, 1, 0}, 0.5, 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)

		names := []string{matches[0].Record.Name, matches[1].Record.Name, matches[2].Record.Name}
		assert.Equal(t, []string{"first", "second", "third"}, names)
	}
}

func TestEmbeddings_OnePerOwner(t *testing.T) {
	ctx := context.Background()
	embs := newTestStorer().Embeddings()

	first, err := embs.Create(ctx, storer.VectorEmbedding{Owner: storer.MessageOwner("m1"), Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	_, err = embs.Create(ctx, storer.VectorEmbedding{Owner: storer.MessageOwner("m1"), Vector: []float32{0, 1, 0}})
	assert.ErrorIs(t, err, storer.ErrDuplicate)

	_, err = embs.Create(ctx, storer.VectorEmbedding{Owner: storer.DocumentOwner("m1"), Vector: []float32{0, 1, 0}})
	require.NoError(t, err)

	for range 2 {
		_, err = embs.Create(ctx, storer.VectorEmbedding{Owner: storer.AgentOwner("a1"), Vector: []float32{0, 0, 1}})
		require.NoError(t, err)
	}

	got, err := embs.GetByMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, first.Id, got.Id)

	byAgent, err := embs.GetByAgent(ctx, "a1", storer.NewPage(0, 0))
	require.NoError(t, err)
	assert.Len(t, byAgent, 2)

	_, err = embs.GetByDocument(ctx, "missing")
	assert.ErrorIs(t, err, storer.ErrNotFound)

	count, err := embs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestEmbeddings_Validation(t *testing.T) {
	ctx := context.Background()
	embs := newTestStorer().Embeddings()

	_, err := embs.Create(ctx, storer.VectorEmbedding{Owner: storer.Owner{Kind: "conversation", Id: "c"}, Vector: []float32{1, 0, 0}})
	assert.ErrorIs(t, err, storer.ErrInvalidOwner)

	_, err = embs.Create(ctx, storer.VectorEmbedding{Owner: storer.MessageOwner(""), Vector: []float32{1, 0, 0}})
	assert.ErrorIs(t, err, storer.ErrInvalidOwner)

	_, err = embs.Create(ctx, storer.VectorEmbedding{Owner: storer.MessageOwner("m"), Vector: []float32{1, 0}})
	assert.ErrorIs(t, err, storer.ErrDimensionMismatch)

	_, err = embs.Create(ctx, storer.VectorEmbedding{Owner: storer.MessageOwner("m")})
	assert.ErrorIs(t, err, storer.ErrDimensionMismatch)
}

func TestDocuments_RemoveCascadesToEmbedding(t *testing.T) {
	ctx := context.Background()
	s := newTestStorer()

	doc, err := s.Documents().Create(ctx, storer.Document{Name: "a", TextContent: "a"})
	require.NoError(t, err)

	_, err = s.Embeddings().Create(ctx, storer.VectorEmbedding{Owner: storer.DocumentOwner(doc.Id), Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	_, err = s.Documents().Remove(ctx, doc.Id)
	require.NoError(t, err)

	_, err = s.Embeddings().GetByDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storer.ErrNotFound)
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	msgs := newTestStorer().Messages()

	msg, err := msgs.Create(ctx, storer.Message{ConversationId: "c1", Sender: storer.SenderUser, Content: "hello"})
	require.NoError(t, err)
	assert.False(t, msg.SentAt.IsZero())

	got, err := msgs.Get(ctx, msg.Id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)

	_, err = msgs.Get(ctx, "missing")
	assert.ErrorIs(t, err, storer.ErrNotFound)
}
