package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/leapgate/internal/ledger"
	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/internal/session"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

type handlers struct {
	session   *session.Session
	loader    *loader.Loader
	ledger    *ledger.Store
	uploadDir string
	maxUpload int64
	logger    *slog.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) formats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": loader.Formats()})
}

func (h *handlers) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// load accepts a multipart upload in the "file" field.
func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	// Reject early instead of reading a large body that cannot be used.
	if state := h.session.State(); state != core.StateNoSession {
		h.writeError(w, r, &core.InvalidStateError{
			Op:       core.OpLoadDataset,
			Current:  state,
			Required: []core.State{core.StateNoSession},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, badRequest(fmt.Sprintf("upload exceeds %d MB", h.maxUpload>>20)))
			return
		}
		h.writeError(w, r, badRequest("expected a multipart upload in field \"file\""))
		return
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(header.Filename)
	if _, err := loader.Detect(name); err != nil {
		h.writeError(w, r, err)
		return
	}

	path, err := h.store(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer func() { _ = os.Remove(path) }()

	ds, err := h.loader.LoadAs(r.Context(), path, name)
	if err != nil {
		h.writeError(w, r, badRequest(err.Error()))
		return
	}
	if err := h.session.LoadDataset(ds); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.session.Snapshot())
}

// store copies an upload into the upload directory.
func (h *handlers) store(src io.Reader) (string, error) {
	if h.uploadDir != "" {
		if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	f, err := os.CreateTemp(h.uploadDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", badRequest(fmt.Sprintf("upload exceeds %d MB", h.maxUpload>>20))
		}
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return f.Name(), nil
}

func (h *handlers) reset(w http.ResponseWriter, _ *http.Request) {
	h.session.Reset()
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func (h *handlers) columns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.session.ListColumns()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": cols})
}

type targetRequest struct {
	Column string `json:"column"`
}

func (h *handlers) selectTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, badRequest("invalid JSON body: "+err.Error()))
		return
	}
	if req.Column == "" {
		h.writeError(w, r, badRequest("column is required"))
		return
	}
	if err := h.session.SelectTarget(req.Column); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type diagnosticsResponse struct {
	Verdict core.Verdict `json:"verdict"`
	Report  core.Report  `json:"report"`
}

func (h *handlers) runDiagnostics(w http.ResponseWriter, r *http.Request) {
	v, err := h.session.RunDiagnostics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rep, err := h.session.Report()
	if err != nil {
		// A reset can land between the run and the report.
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diagnosticsResponse{Verdict: v, Report: rep})
}

func (h *handlers) report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.session.Report()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type authorizeResponse struct {
	Verdict core.Verdict `json:"verdict"`
	State   core.State   `json:"state"`
}

func (h *handlers) authorize(w http.ResponseWriter, r *http.Request) {
	v, err := h.session.AuthorizeModeling(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authorizeResponse{Verdict: v, State: h.session.State()})
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "decision ledger is not configured", Code: "not_found"})
		return
	}
	limit := ledger.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, r, badRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}
	records, err := h.ledger.ListRecords(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []core.DiagnosticRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}
