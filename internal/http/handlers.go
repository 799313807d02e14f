package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"boss-timer-api/internal/service"

	"github.com/go-chi/chi/v5"
)

const version = "v1.0.0"

type Handlers struct {
	svc  *service.Service
	page *Page
}

func NewHandlers(svc *service.Service, page *Page) *Handlers {
	return &Handlers{svc: svc, page: page}
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version,
		"bosses":  len(h.svc.Bosses(r.Context())),
	})
}

func (h *Handlers) Bosses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Bosses(r.Context()))
}

func (h *Handlers) Kill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, service.ErrBossNotFound)
		return
	}

	var report service.KillReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, badReq("invalid request body"))
		return
	}

	boss, err := h.svc.RecordKill(r.Context(), id, report)
	switch {
	case errors.Is(err, service.ErrBossNotFound):
		writeError(w, http.StatusNotFound, service.ErrBossNotFound)
		return
	case errors.Is(err, service.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, service.ErrStorage)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "boss": boss})
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, badReq("failed to reset data"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if h.page == nil {
		http.NotFound(w, r)
		return
	}
	h.page.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type badReq string

func (e badReq) Error() string { return string(e) }
