// Package indexer computes document vectors in the background. Documents are
// written without a vector first and picked up here.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/cenkalti/backoff/v4"
)

var (
	ErrQueueFull = errors.New("indexer queue is full")
	ErrClosed    = errors.New("indexer is closed")
)

type Indexer struct {
	options  Options
	docs     storer.DocumentRepository
	embedder embedder.Embedder
	queue    chan string
	closed   bool
	mtx      sync.RWMutex
	wg       sync.WaitGroup
}

// Enqueue schedules the document for embedding. It never blocks.
func (i *Indexer) Enqueue(ctx context.Context, documentId string) error {
	i.mtx.RLock()
	defer i.mtx.RUnlock()

	if i.closed {
		return ErrClosed
	}

	select {
	case i.queue <- documentId:
		return nil
	default:
		slog.WarnContext(ctx, "indexer queue is full", "document_id", documentId)
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued documents to be processed.
func (i *Indexer) Close() error {
	i.mtx.Lock()
	if i.closed {
		i.mtx.Unlock()
		return nil
	}
	i.closed = true
	close(i.queue)
	i.mtx.Unlock()

	i.wg.Wait()

	return nil
}

func (i *Indexer) run() {
	defer i.wg.Done()

	for id := range i.queue {
		ctx := i.options.Context

		if err := i.index(ctx, id); err != nil {
			slog.ErrorContext(ctx, "failed to index document", "document_id", id, "error", err)
		}
	}
}

func (i *Indexer) index(ctx context.Context, id string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = i.options.InitialInterval
	b.MaxInterval = i.options.MaxInterval
	b.MaxElapsedTime = 0

	op := func() error {
		err := i.attempt(ctx, id)
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, wait time.Duration) {
		slog.WarnContext(ctx, "retrying document indexing", "document_id", id, "wait", wait, "error", err)
	}

	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, i.options.MaxRetries), ctx), notify)
}

func (i *Indexer) attempt(ctx context.Context, id string) error {
	doc, err := i.docs.Get(ctx, id)
	if err != nil {
		return err
	}

	vec, err := i.embedder.Embed(ctx, doc.TextContent)
	if err != nil {
		return err
	}

	// the vector only lands while the stored text is the one embedded
	_, err = i.docs.Update(ctx, id, storer.DocumentPatch{Vector: vec, IfTextContent: &doc.TextContent})
	if errors.Is(err, storer.ErrTextChanged) {
		// a newer text has its own job queued
		slog.DebugContext(ctx, "document text changed while indexing", "document_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to store document vector: %w", err)
	}

	slog.DebugContext(ctx, "document indexed", "document_id", id)

	return nil
}

func retryable(err error) bool {
	var providerErr *embedder.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable()
	}

	var transportErr *embedder.TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	return errors.Is(err, storer.ErrUnavailable)
}

func New(docs storer.DocumentRepository, e embedder.Embedder, opts ...Option) *Indexer {
	options := NewOptions(opts...)

	if options.QueueSize < 1 {
		options.QueueSize = 1
	}

	i := &Indexer{
		options:  options,
		docs:     docs,
		embedder: e,
		queue:    make(chan string, options.QueueSize),
		mtx:      sync.RWMutex{},
	}

	i.wg.Add(1)
	go i.run()

	return i
}
