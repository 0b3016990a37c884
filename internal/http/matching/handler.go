package matching

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/stockscan/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/aliases", h.learn)
}

type learnRequest struct {
	RawName   string `json:"raw_name"`
	ProductID string `json:"product_id"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.RawName) == "" || strings.TrimSpace(req.ProductID) == "" {
		http.Error(w, "raw_name and product_id are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Learn(r.Context(), req.RawName, req.ProductID); err != nil {
		if errors.Is(err, matching.ErrEmptyAlias) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusCreated)
}
