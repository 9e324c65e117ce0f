package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

var documents = storer.KindDocument.Collection()

const documentColumns = "id, agent_id, name, text_content, tool_id, vector, created_at"

type documentRepository struct {
	p *postgresStorer
}

func (r *documentRepository) Get(ctx context.Context, id string) (storer.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrNotFound, id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, documents)

	doc, err := scanDocument(r.p.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return storer.Document{}, classify(err)
	}

	return doc, nil
}

func (r *documentRepository) GetMulti(ctx context.Context, page storer.Page) ([]storer.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at, id OFFSET $1 LIMIT $2`, documentColumns, documents)
	return r.list(ctx, query, page.Skip, page.Limit)
}

func (r *documentRepository) GetByAgent(ctx context.Context, agentId string, page storer.Page) ([]storer.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE agent_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`, documentColumns, documents)
	return r.list(ctx, query, agentId, page.Skip, page.Limit)
}

func (r *documentRepository) GetByTool(ctx context.Context, toolId int64, page storer.Page) ([]storer.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tool_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`, documentColumns, documents)
	return r.list(ctx, query, toolId, page.Skip, page.Limit)
}

func (r *documentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.p.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, documents)).Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

func (r *documentRepository) Create(ctx context.Context, doc storer.Document) (storer.Document, error) {
	if err := storer.CheckVector(doc.Vector, r.p.options.Dimensions); err != nil {
		return storer.Document{}, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (agent_id, name, text_content, tool_id, vector)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, documents, documentColumns)

	created, err := scanDocument(r.p.conn.QueryRowContext(
		ctx,
		query,
		doc.AgentId,
		doc.Name,
		doc.TextContent,
		doc.ToolId,
		vectorArg(doc.Vector),
	))
	if err != nil {
		return storer.Document{}, classify(err)
	}

	return created, nil
}

func (r *documentRepository) Update(ctx context.Context, id string, patch storer.DocumentPatch) (storer.Document, error) {
	if err := storer.CheckVector(patch.Vector, r.p.options.Dimensions); err != nil {
		return storer.Document{}, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrNotFound, id)
	}

	sets := []string{}
	args := []any{}

	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.AgentId != nil {
		set("agent_id", *patch.AgentId)
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.TextContent != nil {
		set("text_content", *patch.TextContent)
	}
	if patch.ToolId != nil {
		set("tool_id", *patch.ToolId)
	}
	if patch.Vector != nil {
		set("vector", pgvector.NewVector(patch.Vector))
	} else if patch.ClearVector {
		set("vector", nil)
	}

	if len(sets) == 0 {
		return r.checkText(ctx, id, patch.IfTextContent)
	}

	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))

	if patch.IfTextContent != nil {
		args = append(args, *patch.IfTextContent)
		where += fmt.Sprintf(" AND text_content = $%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s RETURNING %s`, documents, strings.Join(sets, ", "), where, documentColumns)

	updated, err := scanDocument(r.p.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) && patch.IfTextContent != nil {
		// the row is either gone or holds other text
		if _, err := r.checkText(ctx, id, patch.IfTextContent); err != nil {
			return storer.Document{}, err
		}
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrTextChanged, id)
	}
	if err != nil {
		return storer.Document{}, classify(err)
	}

	return updated, nil
}

func (r *documentRepository) checkText(ctx context.Context, id string, text *string) (storer.Document, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return storer.Document{}, err
	}

	if text != nil && doc.TextContent != *text {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrTextChanged, id)
	}

	return doc, nil
}

func (r *documentRepository) Remove(ctx context.Context, id string) (storer.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return storer.Document{}, fmt.Errorf("%w: document %s", storer.ErrNotFound, id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING %s`, documents, documentColumns)

	removed, err := scanDocument(r.p.conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return storer.Document{}, classify(err)
	}

	return removed, nil
}

// Match calls the match_documents procedure installed by the migrations.
func (r *documentRepository) Match(ctx context.Context, query []float32, threshold float64, count int) ([]searcher.Match[storer.Document], error) {
	if count < 1 {
		return nil, nil
	}

	stmt := fmt.Sprintf(`SELECT %s, similarity FROM match_%s($1, $2, $3)`, documentColumns, documents)

	rows, err := r.p.conn.QueryContext(ctx, stmt, pgvector.NewVector(query), threshold, count)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var matches []searcher.Match[storer.Document]

	for rows.Next() {
		var score float64
		doc, err := scanDocument(rows, &score)
		if err != nil {
			return nil, classify(err)
		}
		matches = append(matches, searcher.Match[storer.Document]{Record: doc, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return matches, nil
}

func (r *documentRepository) list(ctx context.Context, query string, args ...any) ([]storer.Document, error) {
	rows, err := r.p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	docs := []storer.Document{}

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, classify(err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return docs, nil
}

func scanDocument(row rowScanner, extra ...any) (storer.Document, error) {
	var doc storer.Document
	var agentId sql.NullString
	var toolId sql.NullInt64
	var vec *pgvector.Vector

	dest := append([]any{&doc.Id, &agentId, &doc.Name, &doc.TextContent, &toolId, &vec, &doc.CreatedAt}, extra...)

	if err := row.Scan(dest...); err != nil {
		return storer.Document{}, err
	}

	if agentId.Valid {
		doc.AgentId = &agentId.String
	}
	if toolId.Valid {
		doc.ToolId = &toolId.Int64
	}
	if vec != nil {
		doc.Vector = vec.Slice()
	}

	return doc, nil
}

func vectorArg(vec []float32) any {
	if vec == nil {
		return nil
	}
	return pgvector.NewVector(vec)
}
