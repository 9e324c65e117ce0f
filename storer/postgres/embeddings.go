package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

var embeddings = storer.KindVectorEmbedding.Collection()

const embeddingColumns = "id, message_id, document_id, agent_id, vector, created_at"

type embeddingRepository struct {
	p *postgresStorer
}

func (r *embeddingRepository) Get(ctx context.Context, id string) (storer.VectorEmbedding, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding %s", storer.ErrNotFound, id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, embeddingColumns, embeddings)

	emb, err := scanEmbedding(r.p.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return storer.VectorEmbedding{}, classify(err)
	}

	return emb, nil
}

func (r *embeddingRepository) GetMulti(ctx context.Context, page storer.Page) ([]storer.VectorEmbedding, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at, id OFFSET $1 LIMIT $2`, embeddingColumns, embeddings)
	return r.list(ctx, query, page.Skip, page.Limit)
}

func (r *embeddingRepository) GetByMessage(ctx context.Context, messageId string) (storer.VectorEmbedding, error) {
	return r.byOwner(ctx, "message_id", storer.MessageOwner(messageId))
}

func (r *embeddingRepository) GetByDocument(ctx context.Context, documentId string) (storer.VectorEmbedding, error) {
	return r.byOwner(ctx, "document_id", storer.DocumentOwner(documentId))
}

func (r *embeddingRepository) GetByAgent(ctx context.Context, agentId string, page storer.Page) ([]storer.VectorEmbedding, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE agent_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`, embeddingColumns, embeddings)
	return r.list(ctx, query, agentId, page.Skip, page.Limit)
}

func (r *embeddingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.p.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, embeddings)).Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

func (r *embeddingRepository) Create(ctx context.Context, emb storer.VectorEmbedding) (storer.VectorEmbedding, error) {
	if err := emb.Owner.Validate(); err != nil {
		return storer.VectorEmbedding{}, err
	}

	if emb.Owner.Kind != storer.OwnerAgent {
		if _, err := uuid.Parse(emb.Owner.Id); err != nil {
			return storer.VectorEmbedding{}, fmt.Errorf("%w: %s %s", storer.ErrNotFound, emb.Owner.Kind, emb.Owner.Id)
		}
	}

	if len(emb.Vector) == 0 {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding has no vector", storer.ErrDimensionMismatch)
	}

	if err := storer.CheckVector(emb.Vector, r.p.options.Dimensions); err != nil {
		return storer.VectorEmbedding{}, err
	}

	messageId, documentId, agentId := emb.Owner.Columns()

	query := fmt.Sprintf(`
		INSERT INTO %s (message_id, document_id, agent_id, vector)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, embeddings, embeddingColumns)

	created, err := scanEmbedding(r.p.conn.QueryRowContext(
		ctx,
		query,
		messageId,
		documentId,
		agentId,
		pgvector.NewVector(emb.Vector),
	))
	if err != nil {
		return storer.VectorEmbedding{}, classify(err)
	}

	return created, nil
}

func (r *embeddingRepository) Remove(ctx context.Context, id string) (storer.VectorEmbedding, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding %s", storer.ErrNotFound, id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, embeddings, embeddingColumns)

	removed, err := scanEmbedding(r.p.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return storer.VectorEmbedding{}, classify(err)
	}

	return removed, nil
}

// Match calls the match_vector_embeddings procedure installed by the migrations.
func (r *embeddingRepository) Match(ctx context.Context, query []float32, threshold float64, count int) ([]searcher.Match[storer.VectorEmbedding], error) {
	if count < 1 {
		return nil, nil
	}

	stmt := fmt.Sprintf(`SELECT %s, similarity FROM match_%s($1, $2, $3)`, embeddingColumns, embeddings)

	rows, err := r.p.conn.QueryContext(ctx, stmt, pgvector.NewVector(query), threshold, count)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var matches []searcher.Match[storer.VectorEmbedding]

	for rows.Next() {
		var score float64
		emb, err := scanEmbedding(rows, &score)
		if err != nil {
			return nil, classify(err)
		}
		matches = append(matches, searcher.Match[storer.VectorEmbedding]{Record: emb, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return matches, nil
}

func (r *embeddingRepository) byOwner(ctx context.Context, col string, owner storer.Owner) (storer.VectorEmbedding, error) {
	if _, err := uuid.Parse(owner.Id); err != nil {
		return storer.VectorEmbedding{}, fmt.Errorf("%w: vector embedding for %s %s", storer.ErrNotFound, owner.Kind, owner.Id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, embeddingColumns, embeddings, col)

	emb, err := scanEmbedding(r.p.conn.QueryRowContext(ctx, query, owner.Id))
	if err != nil {
		return storer.VectorEmbedding{}, classify(err)
	}

	return emb, nil
}

func (r *embeddingRepository) list(ctx context.Context, query string, args ...any) ([]storer.VectorEmbedding, error) {
	rows, err := r.p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	embs := []storer.VectorEmbedding{}

	for rows.Next() {
		emb, err := scanEmbedding(rows)
		if err != nil {
			return nil, classify(err)
		}
		embs = append(embs, emb)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return embs, nil
}

func scanEmbedding(row rowScanner, extra ...any) (storer.VectorEmbedding, error) {
	var emb storer.VectorEmbedding
	var messageId, documentId, agentId sql.NullString
	var vec pgvector.Vector

	dest := append([]any{&emb.Id, &messageId, &documentId, &agentId, &vec, &emb.CreatedAt}, extra...)

	if err := row.Scan(dest...); err != nil {
		return storer.VectorEmbedding{}, err
	}

	owner, err := storer.OwnerFromColumns(nullable(messageId), nullable(documentId), nullable(agentId))
	if err != nil {
		return storer.VectorEmbedding{}, err
	}

	emb.Owner = owner
	emb.Vector = vec.Slice()

	return emb, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
