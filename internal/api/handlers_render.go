package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/regdown/internal/doctree"
	"github.com/dgallion1/regdown/internal/regdown"
	"github.com/dgallion1/regdown/internal/source"
)

type textRequest struct {
	Text string `json:"text"`
}

type extractRequest struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Exact *bool  `json:"exact,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	out, err := s.render(r.Context(), req.Text)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"html": out})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	out, err := s.render(r.Context(), req.Text)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	tree, err := doctree.FromHTML(strings.NewReader(out))
	if err != nil {
		jsonError(w, "failed to read rendered markup", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"title":  tree.Title,
		"tree":   tree,
		"labels": tree.Labels(),
	})
}

// fileResult is the outcome of rendering one uploaded file.
type fileResult struct {
	Filename string          `json:"filename"`
	Title    string          `json:"title,omitempty"`
	HTML     string          `json:"html,omitempty"`
	Labels   []doctree.Label `json:"labels,omitempty"`
	Error    string          `json:"error,omitempty"`
}

var errUnsupported = errors.New("unsupported file type")

func (s *Server) handleRenderFile(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := s.renderDocument(r.Context(), filename, data)
	if err != nil {
		code, msg := s.errorStatus(r, err)
		jsonError(w, msg, code)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRenderBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]fileResult, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range max(1, min(s.cfg.RenderWorkers, len(files))) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.renderUpload(r, files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"total":   len(results),
		"failed":  failed,
	})
}

func (s *Server) renderUpload(r *http.Request, fh *multipart.FileHeader) fileResult {
	filename := sanitizeFilename(fh.Filename)
	f, err := fh.Open()
	if err != nil {
		return fileResult{Filename: filename, Error: "failed to open file"}
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
		return fileResult{Filename: filename, Error: "file too large or read error"}
	}

	res, err := s.renderDocument(r.Context(), filename, data)
	if err != nil {
		_, msg := s.errorStatus(r, err)
		return fileResult{Filename: filename, Error: msg}
	}
	return res
}

// renderDocument recovers regdown text from an uploaded file and renders it.
func (s *Server) renderDocument(ctx context.Context, filename string, data []byte) (fileResult, error) {
	loader, err := source.ForFile(filename)
	if err != nil {
		return fileResult{}, fmt.Errorf("%w: %s", errUnsupported, filepath.Ext(filename))
	}
	if pl, ok := loader.(*source.PDFLoader); ok {
		pl.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	doc, err := loader.Load(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("load failed", "filename", filename, "error", err)
		return fileResult{}, &loadError{err: err}
	}

	out, err := s.render(ctx, doc.Text)
	if err != nil {
		return fileResult{}, err
	}
	tree, err := doctree.FromHTML(strings.NewReader(out))
	if err != nil {
		return fileResult{}, fmt.Errorf("read rendered markup: %w", err)
	}

	title := doc.Title
	if tree.Title != "" {
		title = tree.Title
	}
	return fileResult{
		Filename: filename,
		Title:    title,
		HTML:     out,
		Labels:   tree.Labels(),
	}, nil
}

type loadError struct{ err error }

func (e *loadError) Error() string { return "failed to read document: " + e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Label == "" {
		jsonError(w, "label is required", http.StatusBadRequest)
		return
	}
	exact := true
	if req.Exact != nil {
		exact = *req.Exact
	}

	text := regdown.ExtractLabeledParagraph(req.Label, req.Text, exact)
	if text == "" {
		jsonError(w, "label not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"text": text})
}

// render runs the pipeline and records its latency.
func (s *Server) render(ctx context.Context, src string) (string, error) {
	start := time.Now()
	out, err := s.regdown.Render(ctx, src)
	s.stats.Since(start, len(src), err)
	return out, err
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := s.errorStatus(r, err)
	jsonError(w, msg, code)
}

// errorStatus maps a render or load failure to a status and client message.
func (s *Server) errorStatus(r *http.Request, err error) (int, string) {
	var le *loadError
	switch {
	case errors.Is(err, errUnsupported):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &le):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, regdown.ErrReferenceDepth), errors.Is(err, regdown.ErrInvalidMarkup):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled"
	default:
		s.log.Error("render failed", "path", r.URL.Path, "error", err)
		return http.StatusInternalServerError, "render failed"
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
