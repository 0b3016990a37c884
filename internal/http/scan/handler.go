package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
)

// sniffLen is how much of an upload is inspected to tell its type.
const sniffLen = 512

type Handler struct {
	svc       *scan.Service
	maxUpload int64
}

func NewHandler(svc *scan.Service, maxUpload int64) *Handler {
	return &Handler{svc: svc, maxUpload: maxUpload}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.scanUpload)
	r.With(middleware.AllowContentType("application/json")).Post("/fiscal", h.scanFiscal)
}

func (h *Handler) ReconcileRoutes(r chi.Router) {
	r.With(middleware.AllowContentType("application/json")).Post("/", h.reconcile)
}

type fiscalRequest struct {
	URL string `json:"url"`
}

type reconcileRequest struct {
	Invoice *invoice.Invoice       `json:"invoice"`
	Results []matching.MatchResult `json:"results"`
}

type upload struct {
	kind string
	data []byte
}

func (h *Handler) scanUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}

	uploads := make([]upload, 0, len(headers))

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "failed to open file: "+err.Error(), http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(f)
		f.Close()

		if err != nil {
			http.Error(w, "failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}

		uploads = append(uploads, upload{kind: kindOf(data), data: data})
	}

	if !singleDocument(uploads) {
		http.Error(w, "multiple files are only accepted as image pages", http.StatusBadRequest)
		return
	}

	inv, err := h.scanUploads(r.Context(), uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	h.review(w, r, inv)
}

func (h *Handler) scanUploads(ctx context.Context, uploads []upload) (*invoice.Invoice, error) {
	switch uploads[0].kind {
	case "pdf":
		return h.svc.ScanPDF(ctx, uploads[0].data)
	case "text":
		return h.svc.ScanText(ctx, bytes.NewReader(uploads[0].data))
	default:
		pages := make([][]byte, 0, len(uploads))
		for _, u := range uploads {
			pages = append(pages, u.data)
		}

		return h.svc.ScanImages(ctx, pages)
	}
}

// singleDocument reports whether uploads form one document: a single file of
// any kind or several image pages.
func singleDocument(uploads []upload) bool {
	if len(uploads) == 1 {
		return true
	}

	for _, u := range uploads {
		if u.kind != "image" {
			return false
		}
	}

	return true
}

// kindOf classifies an upload by content sniffing. Text covers HTML too.
func kindOf(data []byte) string {
	ct := http.DetectContentType(data[:min(len(data), sniffLen)])

	switch {
	case ct == "application/pdf":
		return "pdf"
	case strings.HasPrefix(ct, "image/"):
		return "image"
	default:
		return "text"
	}
}

func (h *Handler) scanFiscal(w http.ResponseWriter, r *http.Request) {
	var req fiscalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	inv, err := h.svc.ScanFiscal(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		writeError(w, err)
		return
	}

	h.review(w, r, inv)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, inv *invoice.Invoice) {
	rv, err := h.svc.Review(r.Context(), inv)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rv)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Invoice == nil {
		http.Error(w, "invoice is required", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Confirm(r.Context(), req.Invoice, req.Results)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if len(res.Errors) > 0 {
		status = http.StatusMultiStatus
	}

	writeJSON(w, status, res)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, invoice.ErrUnreadable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, invoice.ErrMissingParameter):
		status = http.StatusBadRequest
	case errors.Is(err, invoice.ErrCollaborator):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("scan request failed")
	}

	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
