package parties

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Handler serves one party kind.
type Handler struct {
	logger  *slog.Logger
	service *Service
	kind    Kind
}

func NewHandler(logger *slog.Logger, service *Service, kind Kind) *Handler {
	return &Handler{logger: logger, service: service, kind: kind}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := shared.ParsePage(q)
	if err != nil {
		httpx.RespondError(w, h.logger, "list "+h.kind.Table(), err)
		return
	}
	items, err := h.service.List(r.Context(), h.kind, ListRequest{Search: q.Get("q"), Limit: pg.Limit, Offset: pg.Offset})
	if err != nil {
		httpx.RespondError(w, h.logger, "list "+h.kind.Table(), err)
		return
	}
	if items == nil {
		items = []Party{}
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), h.ref(r))
	if err != nil {
		httpx.RespondError(w, h.logger, "get "+string(h.kind), err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create "+string(h.kind), err)
		return
	}
	p, err := h.service.Create(r.Context(), h.kind, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create "+string(h.kind), err)
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update "+string(h.kind), err)
		return
	}
	p, err := h.service.Update(r.Context(), h.ref(r), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update "+string(h.kind), err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ref := h.ref(r)
	if err := h.service.Delete(r.Context(), ref); err != nil {
		httpx.RespondError(w, h.logger, "delete "+string(h.kind), err)
		return
	}
	httpx.OK(w, http.StatusOK, ref)
}

func (h *Handler) ref(r *http.Request) Ref {
	return Ref{Kind: h.kind, ID: chi.URLParam(r, "id")}
}

// MountRoutes registers the party endpoints relative to the kind's prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}
