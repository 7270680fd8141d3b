package integrity

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/storeledger/internal/platform/httpx"
)

// Handler exposes on-demand scans.
type Handler struct {
	logger  *slog.Logger
	checker *Checker
}

func NewHandler(logger *slog.Logger, checker *Checker) *Handler {
	return &Handler{logger: logger, checker: checker}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Scan)
}

type scanResponse struct {
	Report
	Clean  bool         `json:"clean"`
	Counts map[Kind]int `json:"counts"`
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	report, err := h.checker.Scan(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, "integrity scan", err)
		return
	}
	httpx.OK(w, http.StatusOK, scanResponse{Report: report, Clean: report.Clean(), Counts: report.Counts()})
}
