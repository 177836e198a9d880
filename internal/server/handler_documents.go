package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/dfanalyzer/internal/store"
	"github.com/me/dfanalyzer/pkg/provenance"
)

type recordedResponse struct {
	ID string `json:"id"`
}

// readBody reads a bounded request body. It writes the error response itself.
func readBody(w http.ResponseWriter, r *http.Request, reqID string) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, reqID, http.StatusRequestEntityTooLarge, ErrValidation, "read body: %v", err)
		return nil, false
	}
	return body, true
}

func (s *Server) handleTaskDocument(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	body, ok := readBody(w, r, reqID)
	if !ok {
		return
	}

	var spec provenance.TaskSpec
	if err := json.Unmarshal(body, &spec); err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "invalid task document: %v", err)
		return
	}
	switch {
	case spec.ID == "":
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "task document: id is required")
		return
	case spec.Dataflow == "" || spec.Transformation == "":
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "task document: dataflow and transformation are required")
		return
	case !spec.Status.Valid():
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "task document: unknown status %q", spec.Status)
		return
	}

	doc := store.NewTaskDocument(spec, body)
	if err := s.store.Record(r.Context(), doc); err != nil {
		s.logger.Error("record task document", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, "record document failed")
		return
	}
	s.logger.Info("task document",
		"dataflow", spec.Dataflow, "transformation", spec.Transformation,
		"task", spec.ID, "status", spec.Status, "sets", len(spec.Sets))
	respondCreated(w, reqID, recordedResponse{ID: doc.ID})
}

func (s *Server) handleDataflowDocument(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	body, ok := readBody(w, r, reqID)
	if !ok {
		return
	}

	var spec provenance.DataflowSpec
	if err := json.Unmarshal(body, &spec); err != nil {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "invalid dataflow document: %v", err)
		return
	}
	if spec.Tag == "" {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "dataflow document: tag is required")
		return
	}

	doc := store.NewDataflowDocument(spec, body)
	if err := s.store.Record(r.Context(), doc); err != nil {
		s.logger.Error("record dataflow document", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, "record document failed")
		return
	}
	s.logger.Info("dataflow document", "dataflow", spec.Tag, "transformations", len(spec.Transformations))
	respondCreated(w, reqID, recordedResponse{ID: doc.ID})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	q := r.URL.Query()

	f := store.Filter{
		Kind:     store.Kind(q.Get("kind")),
		Dataflow: q.Get("dataflow"),
		TaskID:   q.Get("task"),
	}
	if f.Kind != "" && f.Kind != store.KindTask && f.Kind != store.KindDataflow {
		respondError(w, reqID, http.StatusBadRequest, ErrValidation, "unknown kind %q", f.Kind)
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, ErrValidation, "limit must be an integer")
			return
		}
		f.Limit = n
	}

	docs, err := s.store.List(r.Context(), f)
	if err != nil {
		s.logger.Error("list documents", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, "list documents failed")
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	respondOK(w, reqID, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("get document", "id", id, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, ErrInternal, "get document failed")
		return
	}
	if doc == nil {
		respondError(w, reqID, http.StatusNotFound, ErrNotFound, "document '%s' not found", id)
		return
	}
	respondOK(w, reqID, doc)
}
