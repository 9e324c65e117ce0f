// Package boti wires the semantic search core: documents and vector
// embeddings kept in a store, vectors computed by an embedder, and similarity
// search over both, served over REST.
package boti

import (
	"fmt"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/internal/handler"
	"github.com/IA-UD-Tech/backend-boti/internal/service/document"
	"github.com/IA-UD-Tech/backend-boti/internal/service/embedding"
	"github.com/IA-UD-Tech/backend-boti/internal/service/indexer"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/gorilla/mux"
)

type Boti struct {
	store   storer.Storer
	indexer *indexer.Indexer
	handler *handler.Handler
}

func (b *Boti) RegisterRoutes(router *mux.Router) {
	b.handler.RegisterRoutes(router)
}

// Close drains the background indexer, if any, and closes the store.
func (b *Boti) Close() error {
	if b.indexer != nil {
		if err := b.indexer.Close(); err != nil {
			return err
		}
	}
	return b.store.Close()
}

func New(
	store storer.Storer,
	e embedder.Embedder,
	opts ...Option,
) (*Boti, error) {
	options := NewOptions(opts...)

	var idx *indexer.Indexer

	switch options.Mode {
	case ModeSync:
	case ModeAsync:
		idx = indexer.New(store.Documents(), e, options.IndexerOptions...)
	default:
		return nil, fmt.Errorf("unknown embedding mode %q", options.Mode)
	}

	engineOpts := []searcher.Option{
		searcher.WithDimensions(e.Dimensions()),
		searcher.WithDefaultThreshold(options.SearchThreshold),
		searcher.WithDefaultLimit(options.SearchLimit),
	}

	if options.Breaker.Enabled {
		engineOpts = append(engineOpts, searcher.WithBreaker(options.Breaker))
	}

	docEngine := searcher.NewEngine[storer.Document](
		store.Documents(),
		append([]searcher.Option{searcher.WithName("documents")}, engineOpts...)...,
	)

	embEngine := searcher.NewEngine[storer.VectorEmbedding](
		store.Embeddings(),
		append([]searcher.Option{searcher.WithName("vector_embeddings")}, engineOpts...)...,
	)

	b := &Boti{
		store:   store,
		indexer: idx,
		handler: handler.NewHandler(
			document.New(store.Documents(), e, docEngine, idx),
			embedding.New(store, e, embEngine),
			options.Verifier,
		),
	}

	return b, nil
}
