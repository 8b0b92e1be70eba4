package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pmartynov/otvet/internal/apperr"
	"github.com/pmartynov/otvet/internal/pipeline"
	"github.com/pmartynov/otvet/internal/registry"
	"github.com/pmartynov/otvet/internal/sse"
	"github.com/pmartynov/otvet/internal/stats"
)

// Responder answers one query. Satisfied by *pipeline.Pipeline.
type Responder interface {
	Respond(ctx context.Context, req pipeline.Request) (*pipeline.Answer, error)
}

// Handler holds API route handlers.
type Handler struct {
	pipe   Responder
	reg    *registry.Registry
	stats  stats.Recorder
	broker *sse.Broker
}

// NewHandler creates a new Handler. stats and broker may be nil.
func NewHandler(pipe Responder, reg *registry.Registry, rec stats.Recorder, broker *sse.Broker) *Handler {
	return &Handler{pipe: pipe, reg: reg, stats: rec, broker: broker}
}

// PostMessage handles POST /api/messages.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if h.stats != nil {
		if err := h.stats.LogMessage(SessionID(r.Context()), req.Text, time.Now()); err != nil {
			slog.Warn("message log failed", slog.String("error", err.Error()))
		}
	}

	docs := make([]pipeline.DocumentRef, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = pipeline.DocumentRef{Path: d.Path, Link: d.Link}
	}

	answer, err := h.pipe.Respond(r.Context(), pipeline.Request{
		Text:      req.Text,
		Context:   req.Context,
		Mode:      req.Mode,
		Documents: docs,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrGenerationUnavailable) {
			slog.Error("generation unavailable", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, errorBody("model service unavailable"))
			return
		}
		slog.Error("respond failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}

	resp := MessageResponse{Type: "message", Text: answer.Text}
	if answer.Mailto != nil {
		resp.Mailto = &MailtoDTO{
			To:      answer.Mailto.To,
			CC:      answer.Mailto.CC,
			Subject: answer.Mailto.Subject,
			Body:    answer.Mailto.Body,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTemplates handles GET /api/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, _ *http.Request) {
	snap := h.reg.Snapshot()
	writeJSON(w, http.StatusOK, TemplateListResponse{
		Templates: snap.Templates,
		Total:     len(snap.Templates),
	})
}

// GetTemplate handles GET /api/templates/{id}.
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.reg.Get(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("template not found"))
			return
		}
		slog.Error("get template failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AddTemplate handles POST /api/templates.
func (h *Handler) AddTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AddTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	t := req.Template()
	if err := h.reg.Add(t); err != nil {
		if errors.Is(err, apperr.ErrTemplateExists) {
			writeJSON(w, http.StatusConflict, errorBody("template id already exists"))
			return
		}
		slog.Error("add template failed", slog.String("id", t.ID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}

	if h.broker != nil {
		h.broker.PublishRegistryEvent("template_added", map[string]string{"id": t.ID})
	}
	writeJSON(w, http.StatusCreated, t)
}

// ReloadTemplates handles POST /api/templates/reload.
func (h *Handler) ReloadTemplates(w http.ResponseWriter, _ *http.Request) {
	if err := h.reg.Reload(); err != nil {
		slog.Error("reload failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("reload failed"))
		return
	}
	if h.broker != nil {
		h.broker.PublishRegistryEvent("reloaded", map[string]string{})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusOK, &stats.Payload{})
		return
	}
	payload, err := h.stats.Aggregates(time.Now())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
