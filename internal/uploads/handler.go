package uploads

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/leadflow/backend/internal/apperr"
	"github.com/leadflow/backend/internal/ingest"
	"github.com/leadflow/backend/internal/metrics"
)

const (
	formField = "file"
	sniffLen  = 512
	// multipart envelope allowance on top of the file size limit
	formOverhead = 64 << 10
)

// Receive reads the multipart field "file", checks its content kind and
// stores it. The file itself may be at most maxBytes long.
func Receive(w http.ResponseWriter, r *http.Request, store *Store, maxBytes int64) (*File, ingest.Kind, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	src, header, err := r.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, maxBytes)
		}
		return nil, "", fmt.Errorf("%w: no file uploaded", apperr.ErrValidation)
	}
	defer src.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	if header.Size > maxBytes {
		return nil, "", fmt.Errorf("%w: limit is %d bytes", apperr.ErrTooLarge, maxBytes)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	kind, err := ingest.DetectKind(header.Header.Get("Content-Type"), header.Filename, head)
	if err != nil {
		return nil, "", err
	}
	f, err := store.Save(header.Filename, io.MultiReader(bytes.NewReader(head), src))
	if err != nil {
		return nil, kind, err
	}
	return f, kind, nil
}

type UploadResponse struct {
	Message string `json:"message"`
	File    *File  `json:"file"`
}

type Handler struct {
	store    *Store
	maxBytes int64
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewHandler(store *Store, maxBytes int64, m *metrics.Metrics, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, maxBytes: maxBytes, metrics: m, log: log}
}

// Upload stores a file without distributing it.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	f, kind, err := Receive(w, r, h.store, h.maxBytes)
	if err != nil {
		h.metrics.ObserveUpload(string(kind), metrics.OutcomeRejected)
		if apperr.Status(err) == http.StatusInternalServerError {
			h.log.Error("store upload failed", "error", err)
		}
		apperr.Write(w, err)
		return
	}
	h.metrics.ObserveUpload(string(kind), metrics.OutcomeStored)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(UploadResponse{Message: "File uploaded successfully", File: f})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.List()
	if err != nil {
		h.log.Error("list uploads failed", "error", err)
		apperr.Write(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(entries)
}
