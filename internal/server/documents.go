package server

import (
	"log/slog"
	"net/http"

	"github.com/roofscope/roofscope/internal/pipeline"
	"github.com/roofscope/roofscope/internal/repository"
)

// DocumentHandler exposes the pipeline entry points over JSON.
type DocumentHandler struct {
	processor *pipeline.Processor
	documents repository.DocumentRepository
	logger    *slog.Logger
}

func NewDocumentHandler(processor *pipeline.Processor, documents repository.DocumentRepository, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{processor: processor, documents: documents, logger: logger}
}

// Process runs the pipeline on one document. The result envelope is returned
// with 200 even on pipeline failure; callers distinguish via the success flag.
func (h *DocumentHandler) Process(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	docID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "document id must be a UUID")
		return
	}

	result := h.processor.ProcessDocument(r.Context(), orgID, docID)
	writeJSON(w, http.StatusOK, result)
}

// Reprocess resets a finished document and runs the pipeline again.
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	docID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "document id must be a UUID")
		return
	}

	result := h.processor.Reprocess(r.Context(), orgID, docID)
	writeJSON(w, http.StatusOK, result)
}

// Get returns the document row including extraction payload and validation
// errors, scoped to the caller's organization.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFrom(r)
	if !ok {
		writeBadRequest(w, "missing or invalid "+OrgHeader+" header")
		return
	}
	docID, ok := pathUUID(r, "id")
	if !ok {
		writeBadRequest(w, "document id must be a UUID")
		return
	}

	doc, err := h.documents.GetByID(r.Context(), orgID, docID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
