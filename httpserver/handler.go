package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruteri/secret-dns/api"
	"github.com/ruteri/secret-dns/interfaces"
)

// maxBodySize is the maximum allowed request body size (64KB).
const maxBodySize = 64 * 1024

// Handler serves the domain API on top of a NameRegistry.
type Handler struct {
	registry interfaces.NameRegistry
	log      *slog.Logger
}

func NewHandler(registry interfaces.NameRegistry, log *slog.Logger) *Handler {
	return &Handler{registry: registry, log: log}
}

// HandleRegister processes POST /api/v1/domains with a RegisterRequest body.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Domain == "" || req.Owner == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("domain and owner are required"))
		return
	}

	status, err := h.registry.RegisterStatus(r.Context(), req.Domain, req.Owner)
	if err != nil {
		h.log.Warn("Register failed", slog.String("domain", req.Domain), "err", err)
		h.writeError(w, statusForError(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewStatusResponse(status))
}

// HandleSetTarget processes PUT /api/v1/domains/{domain}/target with a SetTargetRequest body.
func (h *Handler) HandleSetTarget(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var req api.SetTargetRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Target == "" || req.Owner == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("target and owner are required"))
		return
	}

	status, err := h.registry.SetTargetStatus(r.Context(), domain, req.Target, req.Owner)
	if err != nil {
		h.log.Warn("Set target failed", slog.String("domain", domain), "err", err)
		h.writeError(w, statusForError(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.NewStatusResponse(status))
}

// HandleResolve processes GET /api/v1/domains/{domain}. Unregistered names
// and names whose target was never set answer 404, as they do over DNS.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	target, err := h.registry.ResolveTarget(r.Context(), domain)
	if err != nil {
		h.log.Warn("Resolve failed", slog.String("domain", domain), "err", err)
		h.writeError(w, statusForError(err), err)
		return
	}
	if target == "" || target == interfaces.UnsetTarget {
		h.writeError(w, http.StatusNotFound, errors.New("domain not found"))
		return
	}

	h.writeJSON(w, http.StatusOK, api.ResolveResponse{Domain: domain, Target: target})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

// statusForError maps task lifecycle failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, interfaces.ErrInvalidDomain):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, interfaces.ErrExecutionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interfaces.ErrSubmission),
		errors.Is(err, interfaces.ErrChain),
		errors.Is(err, interfaces.ErrDecode):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
