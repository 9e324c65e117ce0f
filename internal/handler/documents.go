package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/IA-UD-Tech/backend-boti/internal/service/document"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/gorilla/mux"
)

type documentResponse struct {
	Id          string    `json:"id"`
	AgentId     *string   `json:"agent_id"`
	Name        string    `json:"name"`
	TextContent string    `json:"text_content"`
	ToolId      *int64    `json:"tool_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type documentMatch struct {
	Document   documentResponse `json:"document"`
	Similarity float64          `json:"similarity"`
}

type createDocumentRequest struct {
	AgentId     *string `json:"agent_id"`
	Name        string  `json:"name"`
	TextContent string  `json:"text_content"`
	ToolId      *int64  `json:"tool_id"`
}

type updateDocumentRequest struct {
	AgentId     *string `json:"agent_id"`
	Name        *string `json:"name"`
	TextContent *string `json:"text_content"`
	ToolId      *int64  `json:"tool_id"`
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	doc, err := h.documents.Create(r.Context(), document.Input{
		AgentId:     req.AgentId,
		Name:        req.Name,
		TextContent: req.TextContent,
		ToolId:      req.ToolId,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toDocumentResponse(doc), http.StatusOK)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	p, err := page(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	opts := document.ListOptions{
		AgentId: stringParam(r, "agent_id"),
		Page:    p,
	}

	if stringParam(r, "tool_id") != nil {
		toolId, err := intParam(r, "tool_id", 0)
		if err != nil {
			respondError(w, r, err)
			return
		}
		id := int64(toolId)
		opts.ToolId = &id
	}

	docs, err := h.documents.List(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}

	respondJSON(w, out, http.StatusOK)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toDocumentResponse(doc), http.StatusOK)
}

func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	var req updateDocumentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	doc, err := h.documents.Update(r.Context(), mux.Vars(r)["id"], storer.DocumentPatch{
		AgentId:     req.AgentId,
		Name:        req.Name,
		TextContent: req.TextContent,
		ToolId:      req.ToolId,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toDocumentResponse(doc), http.StatusOK)
}

func (h *Handler) removeDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Remove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, toDocumentResponse(doc), http.StatusOK)
}

func (h *Handler) searchDocuments(w http.ResponseWriter, r *http.Request) {
	query, limit, err := searchParams(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.documents.Search(r.Context(), query, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !res.Available() {
		slog.WarnContext(r.Context(), "document search unavailable", "error", res.Unavailable)
		w.Header().Set(SearchStatusHeader, "unavailable")
	}

	respondJSON(w, map[string][]documentMatch{"results": toDocumentMatches(res.Matches)}, http.StatusOK)
}

func toDocumentResponse(doc storer.Document) documentResponse {
	return documentResponse{
		Id:          doc.Id,
		AgentId:     doc.AgentId,
		Name:        doc.Name,
		TextContent: doc.TextContent,
		ToolId:      doc.ToolId,
		CreatedAt:   doc.CreatedAt,
	}
}

func toDocumentMatches(matches []searcher.Match[storer.Document]) []documentMatch {
	out := make([]documentMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, documentMatch{Document: toDocumentResponse(m.Record), Similarity: m.Score})
	}
	return out
}
