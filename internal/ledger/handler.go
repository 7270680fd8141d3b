package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/parties"
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

// MountMaalRoutes registers the standalone maal endpoints.
func (h *Handler) MountMaalRoutes(r chi.Router) {
	r.Get("/", h.listMaal)
	r.Post("/", h.createMaal)
	r.Get("/{id}", h.showMaal)
	r.Put("/{id}", h.updateMaal)
	r.Delete("/{id}", h.deleteMaal)
}

// MountJamaRoutes registers the payment endpoints.
func (h *Handler) MountJamaRoutes(r chi.Router) {
	r.Get("/", h.listJama)
	r.Post("/", h.createJama)
	r.Get("/{id}", h.showJama)
	r.Put("/{id}", h.updateJama)
	r.Delete("/{id}", h.deleteJama)
}

func (h *Handler) listMaal(w http.ResponseWriter, r *http.Request) {
	party, err := partyFromQuery(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "list maal", err)
		return
	}
	items, err := h.service.ListMaal(r.Context(), party)
	if err != nil {
		httpx.RespondError(w, h.logger, "list maal", err)
		return
	}
	if items == nil {
		items = []MaalEntry{}
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) createMaal(w http.ResponseWriter, r *http.Request) {
	var req CreateMaalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create maal", err)
		return
	}
	entry, err := h.service.CreateMaal(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create maal", err)
		return
	}
	httpx.OK(w, http.StatusCreated, entry)
}

func (h *Handler) showMaal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "get maal", err)
		return
	}
	entry, err := h.service.GetMaal(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "get maal", err)
		return
	}
	httpx.OK(w, http.StatusOK, entry)
}

func (h *Handler) updateMaal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "update maal", err)
		return
	}
	var req UpdateMaalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update maal", err)
		return
	}
	entry, err := h.service.UpdateMaal(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update maal", err)
		return
	}
	httpx.OK(w, http.StatusOK, entry)
}

func (h *Handler) deleteMaal(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "delete maal", err)
		return
	}
	if err := h.service.DeleteMaal(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete maal", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *Handler) listJama(w http.ResponseWriter, r *http.Request) {
	party, err := partyFromQuery(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "list jama", err)
		return
	}
	items, err := h.service.ListJama(r.Context(), party)
	if err != nil {
		httpx.RespondError(w, h.logger, "list jama", err)
		return
	}
	if items == nil {
		items = []JamaEntry{}
	}
	httpx.OK(w, http.StatusOK, items)
}

func (h *Handler) createJama(w http.ResponseWriter, r *http.Request) {
	var req JamaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "create jama", err)
		return
	}
	entry, err := h.service.CreateJama(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, "create jama", err)
		return
	}
	httpx.OK(w, http.StatusCreated, entry)
}

func (h *Handler) showJama(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "get jama", err)
		return
	}
	entry, err := h.service.GetJama(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, "get jama", err)
		return
	}
	httpx.OK(w, http.StatusOK, entry)
}

func (h *Handler) updateJama(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "update jama", err)
		return
	}
	var req JamaRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, "update jama", err)
		return
	}
	entry, err := h.service.UpdateJama(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, h.logger, "update jama", err)
		return
	}
	httpx.OK(w, http.StatusOK, entry)
}

func (h *Handler) deleteJama(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "delete jama", err)
		return
	}
	if err := h.service.DeleteJama(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, "delete jama", err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]int64{"id": id})
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func partyFromQuery(r *http.Request) (parties.Ref, error) {
	kind, err := parties.ParseKind(r.URL.Query().Get("party_kind"))
	if err != nil {
		return parties.Ref{}, err
	}
	id := r.URL.Query().Get("party_id")
	if id == "" {
		return parties.Ref{}, shared.NewValidationError("party_id", "is required")
	}
	return parties.Ref{Kind: kind, ID: id}, nil
}
