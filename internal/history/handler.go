package history

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/parties"
	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes expects to be mounted under /parties.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{kind}/{id}/history", h.History)
	r.Get("/{kind}/{id}/payments", h.Payments)
	r.Get("/{kind}/{id}/balance", h.Balance)
	r.Get("/{kind}/{id}/statement", h.Statement)
}

func partyParam(r *http.Request) (parties.Ref, error) {
	kind, err := parties.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return parties.Ref{}, err
	}
	return parties.Ref{Kind: kind, ID: chi.URLParam(r, "id")}, nil
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	party, err := partyParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "party history", err)
		return
	}
	rows, err := h.service.PartyHistory(r.Context(), party)
	if err != nil {
		httpx.RespondError(w, h.logger, "party history", err)
		return
	}
	if rows == nil {
		rows = []Row{}
	}
	httpx.OK(w, http.StatusOK, rows)
}

func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	party, err := partyParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "party payments", err)
		return
	}
	rows, err := h.service.PartyPayments(r.Context(), party)
	if err != nil {
		httpx.RespondError(w, h.logger, "party payments", err)
		return
	}
	if rows == nil {
		rows = []Payment{}
	}
	httpx.OK(w, http.StatusOK, rows)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	party, err := partyParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "party balance", err)
		return
	}
	b, err := h.service.Balance(r.Context(), party)
	if err != nil {
		httpx.RespondError(w, h.logger, "party balance", err)
		return
	}
	httpx.OK(w, http.StatusOK, b)
}

func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	party, err := partyParam(r)
	if err != nil {
		httpx.RespondError(w, h.logger, "party statement", err)
		return
	}
	st, err := h.service.Statement(r.Context(), party)
	if err != nil {
		httpx.RespondError(w, h.logger, "party statement", err)
		return
	}
	httpx.OK(w, http.StatusOK, st)
}
