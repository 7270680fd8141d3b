package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Handler serves one order kind.
type Handler struct {
	logger  *slog.Logger
	service *Service
	kind    parties.Kind
}

func NewHandler(logger *slog.Logger, service *Service, kind parties.Kind) *Handler {
	return &Handler{logger: logger, service: service, kind: kind}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/statuses", h.Statuses)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/status", h.SetStatus)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) op(verb string) string {
	return verb + " " + string(h.kind) + " order"
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := shared.ParsePage(q)
	if err != nil {
		httpx.RespondError(w, h.logger, h.op("list"), err)
		return
	}
	req := ListRequest{PartyID: q.Get("party_id"), Limit: pg.Limit, Offset: pg.Offset}
	if raw := q.Get("status"); raw != "" {
		st, err := ParseStatus(h.kind, raw)
		if err != nil {
			httpx.RespondError(w, h.logger, h.op("list"), err)
			return
		}
		req.Status = st
	}
	items, err := h.service.List(r.Context(), h.kind, req)
	if err != nil {
		httpx.RespondError(w, h.logger, h.op("list"), err)
		return
	}
	if items == nil {
		items = []Order{}
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, Statuses(h.kind))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), h.kind, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, h.op("get"), err)
		return
	}
	httpx.OK(w, http.StatusOK, o)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, h.op("create"), err)
		return
	}
	res, err := h.service.Create(r.Context(), h.kind, req)
	if err != nil {
		httpx.RespondError(w, h.logger, h.op("create"), err)
		return
	}
	httpx.OK(w, http.StatusCreated, res)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, h.op("update"), err)
		return
	}
	res, err := h.service.Update(r.Context(), h.kind, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, h.op("update"), err)
		return
	}
	httpx.OK(w, http.StatusOK, res)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, h.logger, h.op("set status of"), err)
		return
	}
	o, err := h.service.SetStatus(r.Context(), h.kind, chi.URLParam(r, "id"), body.Status)
	if err != nil {
		httpx.RespondError(w, h.logger, h.op("set status of"), err)
		return
	}
	httpx.OK(w, http.StatusOK, o)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), h.kind, id); err != nil {
		httpx.RespondError(w, h.logger, h.op("delete"), err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"order_id": id})
}
