package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
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
	r.Get("/{code}", h.Show)
	r.Put("/{code}", h.Update)
	r.Delete("/{code}", h.Delete)
	r.Post("/{code}/restore", h.Restore)
	r.Post("/{code}/ensure", h.Ensure)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))
	items, err := h.service.List(r.Context(), ListRequest{IncludeDeleted: includeDeleted, Search: r.URL.Query().Get("q")})
	if err != nil {
		httpx.RespondError(w, h.logger, "list products", err)
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, h.logger, "get product", err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create product", err)
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create product", err)
		return
	}
	httpx.OK(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update product", err)
		return
	}
	p, err := h.service.Update(r.Context(), chi.URLParam(r, "code"), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update product", err)
		return
	}
	httpx.OK(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.service.Delete(r.Context(), code); err != nil {
		httpx.RespondError(w, h.logger, "delete product", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := h.service.Restore(r.Context(), code); err != nil {
		httpx.RespondError(w, h.logger, "restore product", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) Ensure(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Ensure(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, h.logger, "ensure product", err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httpx.OK(w, status, res)
}
