package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/IA-UD-Tech/backend-boti/internal/service/embedding"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/gorilla/mux"
)

type embeddingResponse struct {
	Id         string    `json:"id"`
	MessageId  *string   `json:"message_id"`
	DocumentId *string   `json:"document_id"`
	AgentId    *string   `json:"agent_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type embeddingMatch struct {
	Embedding  embeddingResponse `json:"embedding"`
	Similarity float64           `json:"similarity"`
}

func (h *Handler) createMessageEmbedding(w http.ResponseWriter, r *http.Request) {
	emb, err := h.embeddings.CreateForMessage(r.Context(), mux.Vars(r)["message_id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toEmbeddingResponse(emb), http.StatusOK)
}

func (h *Handler) createDocumentEmbedding(w http.ResponseWriter, r *http.Request) {
	emb, err := h.embeddings.CreateForDocument(r.Context(), mux.Vars(r)["document_id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toEmbeddingResponse(emb), http.StatusOK)
}

func (h *Handler) listEmbeddings(w http.ResponseWriter, r *http.Request) {
	p, err := page(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	embs, err := h.embeddings.List(r.Context(), embedding.ListOptions{
		AgentId: stringParam(r, "agent_id"),
		Page:    p,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]embeddingResponse, 0, len(embs))
	for _, emb := range embs {
		out = append(out, toEmbeddingResponse(emb))
	}

	respondJSON(w, out, http.StatusOK)
}

func (h *Handler) getEmbedding(w http.ResponseWriter, r *http.Request) {
	emb, err := h.embeddings.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toEmbeddingResponse(emb), http.StatusOK)
}

func (h *Handler) getMessageEmbedding(w http.ResponseWriter, r *http.Request) {
	emb, err := h.embeddings.GetForMessage(r.Context(), mux.Vars(r)["message_id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toEmbeddingResponse(emb), http.StatusOK)
}

func (h *Handler) getDocumentEmbedding(w http.ResponseWriter, r *http.Request) {
	emb, err := h.embeddings.GetForDocument(r.Context(), mux.Vars(r)["document_id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toEmbeddingResponse(emb), http.StatusOK)
}

func (h *Handler) removeEmbedding(w http.ResponseWriter, r *http.Request) {
	emb, err := h.embeddings.Remove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toEmbeddingResponse(emb), http.StatusOK)
}

func (h *Handler) searchEmbeddings(w http.ResponseWriter, r *http.Request) {
	query, limit, err := searchParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.embeddings.Search(r.Context(), query, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !res.Available() {
		slog.WarnContext(r.Context(), "vector embedding search unavailable", "error", res.Unavailable)
		w.Header().Set(SearchStatusHeader, "unavailable")
	}

	respondJSON(w, map[string][]embeddingMatch{"results": toEmbeddingMatches(res.Matches)}, http.StatusOK)
}

func toEmbeddingResponse(emb storer.VectorEmbedding) embeddingResponse {
	messageId, documentId, agentId := emb.Owner.Columns()
	return embeddingResponse{
		Id:         emb.Id,
		MessageId:  messageId,
		DocumentId: documentId,
		AgentId:    agentId,
		CreatedAt:  emb.CreatedAt,
	}
}

func toEmbeddingMatches(matches []searcher.Match[storer.VectorEmbedding]) []embeddingMatch {
	out := make([]embeddingMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, embeddingMatch{Embedding: toEmbeddingResponse(m.Record), Similarity: m.Score})
	}
	return out
}
