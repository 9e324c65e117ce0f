package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/IA-UD-Tech/backend-boti/storer/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedEmbedder struct {
	mtx     sync.Mutex
	calls   []string
	errs    []error
	onEmbed func(text string)
}

func (e *scriptedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mtx.Lock()
	e.calls = append(e.calls, text)
	var err error
	if len(e.errs) > 0 {
		err, e.errs = e.errs[0], e.errs[1:]
	}
	hook := e.onEmbed
	e.mtx.Unlock()

	if hook != nil {
		hook(text)
	}
	if err != nil {
		return nil, err
	}
	return []float32{1, 0, 0}, nil
}

func (e *scriptedEmbedder) Dimensions() int { return 3 }

func (e *scriptedEmbedder) Model() string { return "scripted" }

func (e *scriptedEmbedder) Calls() int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return len(e.calls)
}

func setup(t *testing.T, e embedder.Embedder, opts ...Option) (*Indexer, storer.DocumentRepository) {
	docs := memory.NewStorer(storer.WithDimensions(3)).Documents()
	opts = append([]Option{WithBackoff(time.Millisecond, 5*time.Millisecond)}, opts...)
	return New(docs, e, opts...), docs
}

func TestIndexer_WritesVector(t *testing.T) {
	ctx := context.Background()
	e := &scriptedEmbedder{}
	idx, docs := setup(t, e)

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "refunds"})
	require.NoError(t, err)

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	require.NoError(t, idx.Close())

	got, err := docs.Get(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)
	assert.Equal(t, 1, e.Calls())
}

func TestIndexer_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	e := &scriptedEmbedder{errs: []error{
		&embedder.TransportError{Provider: "test", Err: context.DeadlineExceeded},
		&embedder.ProviderError{Provider: "test", StatusCode: 503},
	}}
	idx, docs := setup(t, e)

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "refunds"})
	require.NoError(t, err)

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	require.NoError(t, idx.Close())

	got, err := docs.Get(ctx, doc.Id)
	require.NoError(t, err)
	assert.NotNil(t, got.Vector)
	assert.Equal(t, 3, e.Calls())
}

func TestIndexer_PermanentFailureStops(t *testing.T) {
	ctx := context.Background()
	e := &scriptedEmbedder{errs: []error{
		&embedder.ProviderError{Provider: "test", StatusCode: 400},
	}}
	idx, docs := setup(t, e)

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "refunds"})
	require.NoError(t, err)

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	require.NoError(t, idx.Close())

	got, err := docs.Get(ctx, doc.Id)
	require.NoError(t, err)
	assert.Nil(t, got.Vector)
	assert.Equal(t, 1, e.Calls())
}

func TestIndexer_MissingDocumentIsDropped(t *testing.T) {
	ctx := context.Background()
	e := &scriptedEmbedder{}
	idx, _ := setup(t, e)

	require.NoError(t, idx.Enqueue(ctx, "missing"))
	require.NoError(t, idx.Close())

	assert.Equal(t, 0, e.Calls())
}

func TestIndexer_RetryBudget(t *testing.T) {
	ctx := context.Background()
	errs := make([]error, 10)
	for i := range errs {
		errs[i] = &embedder.TransportError{Provider: "test", Err: context.DeadlineExceeded}
	}
	e := &scriptedEmbedder{errs: errs}
	idx, docs := setup(t, e, WithMaxRetries(2))

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "refunds"})
	require.NoError(t, err)

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	require.NoError(t, idx.Close())

	assert.Equal(t, 3, e.Calls())
}

func TestIndexer_SkipsStaleText(t *testing.T) {
	ctx := context.Background()
	e := &scriptedEmbedder{}
	idx, docs := setup(t, e)

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "old"})
	require.NoError(t, err)

	newer := "new"
	e.onEmbed = func(text string) {
		if text == "old" {
			_, err := docs.Update(ctx, doc.Id, storer.DocumentPatch{TextContent: &newer, ClearVector: true})
			assert.NoError(t, err)
		}
	}

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	require.NoError(t, idx.Close())

	got, err := docs.Get(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "new", got.TextContent)
	assert.Nil(t, got.Vector)
}

func TestIndexer_EnqueueAfterClose(t *testing.T) {
	idx, _ := setup(t, &scriptedEmbedder{})

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	assert.ErrorIs(t, idx.Enqueue(context.Background(), "id"), ErrClosed)
}

func TestIndexer_QueueFull(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	e := &scriptedEmbedder{onEmbed: func(string) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}}
	idx, docs := setup(t, e, WithQueueSize(1))

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "a"})
	require.NoError(t, err)

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	<-started
	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	assert.ErrorIs(t, idx.Enqueue(ctx, doc.Id), ErrQueueFull)

	close(release)
	require.NoError(t, idx.Close())
}

// raceDocuments rewrites the text right before the first vector write lands.
type raceDocuments struct {
	storer.DocumentRepository
	once  sync.Once
	newer string
}

func (r *raceDocuments) Update(ctx context.Context, id string, patch storer.DocumentPatch) (storer.Document, error) {
	if patch.Vector != nil {
		r.once.Do(func() {
			_, _ = r.DocumentRepository.Update(ctx, id, storer.DocumentPatch{TextContent: &r.newer, ClearVector: true})
		})
	}
	return r.DocumentRepository.Update(ctx, id, patch)
}

func TestIndexer_VectorWriteRequiresEmbeddedText(t *testing.T) {
	ctx := context.Background()
	docs := &raceDocuments{
		DocumentRepository: memory.NewStorer(storer.WithDimensions(3)).Documents(),
		newer:              "brand new text",
	}
	e := &scriptedEmbedder{}
	idx := New(docs, e, WithBackoff(time.Millisecond, 5*time.Millisecond))

	doc, err := docs.Create(ctx, storer.Document{Name: "a", TextContent: "old"})
	require.NoError(t, err)

	require.NoError(t, idx.Enqueue(ctx, doc.Id))
	require.NoError(t, idx.Close())

	got, err := docs.Get(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "brand new text", got.TextContent)
	assert.Nil(t, got.Vector)
	assert.Equal(t, 1, e.Calls())
}
