package invoicing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
	"github.com/odyssey-erp/storeledger/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/next-id", h.NextID)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pg, err := shared.ParsePage(q)
	if err != nil {
		httpx.RespondError(w, h.logger, "list invoices", err)
		return
	}
	items, err := h.service.List(r.Context(), ListRequest{
		CustomerID: q.Get("customer_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Limit:      pg.Limit,
		Offset:     pg.Offset,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, "list invoices", err)
		return
	}
	if items == nil {
		items = []Invoice{}
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, "get invoice", err)
		return
	}
	httpx.OK(w, http.StatusOK, inv)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create invoice", err)
		return
	}
	res, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create invoice", err)
		return
	}
	httpx.OK(w, http.StatusCreated, res)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update invoice", err)
		return
	}
	res, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update invoice", err)
		return
	}
	httpx.OK(w, http.StatusOK, res)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete invoice", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"invoice_id": id})
}

func (h *Handler) NextID(w http.ResponseWriter, r *http.Request) {
	id, err := h.service.NextID(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, "next invoice id", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"invoice_id": id})
}
