package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/dgallion1/regdown/internal/labelstore"
	"github.com/go-chi/chi/v5"
)

// labelRe matches the labels a see(label) line can name.
var labelRe = regexp.MustCompile(`^[\w-]+$`)

type referenceRequest struct {
	Contents string `json:"contents"`
	URL      string `json:"url,omitempty"`
}

func (s *Server) referenceLabel(w http.ResponseWriter, r *http.Request) (string, bool) {
	label := chi.URLParam(r, "label")
	if !labelRe.MatchString(label) {
		jsonError(w, "invalid label", http.StatusBadRequest)
		return "", false
	}
	if s.refs == nil {
		jsonError(w, "no label store configured", http.StatusServiceUnavailable)
		return "", false
	}
	return label, true
}

func (s *Server) handleListReferences(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		jsonError(w, "no label store configured", http.StatusServiceUnavailable)
		return
	}
	lister, ok := s.store.(labelstore.Lister)
	if !ok {
		jsonError(w, "label store cannot list entries", http.StatusNotImplemented)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := lister.List(r.Context(), limit)
	if err != nil {
		s.log.Warn("label list failed", "error", err)
		jsonError(w, "label store unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"references": entries,
		"count":      len(entries),
	})
}

func (s *Server) handleGetReference(w http.ResponseWriter, r *http.Request) {
	label, ok := s.referenceLabel(w, r)
	if !ok {
		return
	}

	entry, err := s.refs.Lookup(r.Context(), label)
	if err != nil {
		s.log.Warn("label lookup failed", "label", label, "error", err)
		jsonError(w, "label store unavailable", http.StatusBadGateway)
		return
	}
	if entry == nil || entry.Contents == "" {
		jsonError(w, "label not found", http.StatusNotFound)
		return
	}

	resp := map[string]any{
		"label":    label,
		"url":      s.refs.URL(r.Context(), label),
		"contents": entry.Contents,
	}
	ref, err := s.regdown.Reference(r.Context(), label)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	if ref != nil {
		resp["html"] = ref.Markup
		resp["tree"] = ref.Tree()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutReference(w http.ResponseWriter, r *http.Request) {
	label, ok := s.referenceLabel(w, r)
	if !ok {
		return
	}
	editor, ok := s.store.(labelstore.Editor)
	if !ok {
		jsonError(w, "label store is read-only", http.StatusMethodNotAllowed)
		return
	}

	var req referenceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Contents == "" {
		jsonError(w, "contents is required", http.StatusBadRequest)
		return
	}

	entry := labelstore.Entry{Label: label, Contents: req.Contents, URL: req.URL}
	if err := editor.Put(r.Context(), entry); err != nil {
		s.log.Error("label put failed", "label", label, "error", err)
		jsonError(w, "label store unavailable", http.StatusBadGateway)
		return
	}
	s.refs.Invalidate(label)
	s.log.Info("label stored", "label", label, "bytes", len(req.Contents))

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteReference(w http.ResponseWriter, r *http.Request) {
	label, ok := s.referenceLabel(w, r)
	if !ok {
		return
	}
	editor, ok := s.store.(labelstore.Editor)
	if !ok {
		jsonError(w, "label store is read-only", http.StatusMethodNotAllowed)
		return
	}

	if err := editor.Delete(r.Context(), label); err != nil {
		s.log.Error("label delete failed", "label", label, "error", err)
		jsonError(w, "label store unavailable", http.StatusBadGateway)
		return
	}
	s.refs.Invalidate(label)
	s.log.Info("label deleted", "label", label)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"deleted": label})
}
