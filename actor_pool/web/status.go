package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keenzhang/pool/actor_pool/errs"
	"github.com/keenzhang/pool/actor_pool/pool"
)

// StatusHandler serves pool statistics over HTTP.
type StatusHandler struct{}

func NewStatusHandler() *StatusHandler {
	return &StatusHandler{}
}

func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Route("/pools", func(r chi.Router) {
		r.Get("/", h.AllPools)
		r.Get("/{pool}/status", h.PoolStatus)
	})
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *StatusHandler) AllPools(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]pool.Status)
	for _, name := range pool.Names() {
		st, err := pool.StatusOf(name)
		if err != nil {
			// a pool shutting down concurrently drops out of the listing
			continue
		}
		out[name] = st
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *StatusHandler) PoolStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pool")
	st, err := pool.StatusOf(name)
	if err != nil {
		if errs.IsUnknownPoolErr(err) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
