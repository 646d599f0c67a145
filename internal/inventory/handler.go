package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-commerce/atelier/internal/shared"
	"github.com/atelier-commerce/atelier/internal/view"
)

// Handler exposes the low-stock report and replenishment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireCustomer)
		r.Get("/low-stock", h.lowStockReport)
		r.Post("/replenish/{id}", h.replenish)
	})
}

func (h *Handler) lowStockReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.LowStockReport(r.Context())
	if err != nil {
		h.logger.Error("low stock report", slog.Any("error", err))
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/low_stock.html", map[string]any{
		"Entries": entries,
		"Total":   len(entries),
	}, http.StatusOK)
}

func (h *Handler) replenish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/inventory/low-stock", http.StatusSeeOther)
		return
	}
	actorID := shared.CurrentCustomerID(r)

	move, err := h.service.Replenish(r.Context(), ReplenishInput{
		ProductID: id,
		ActorID:   actorID,
		Note:      r.PostFormValue("note"),
	})
	if err != nil {
		h.logger.Warn("replenish", slog.Any("error", err), slog.Int64("product_id", id))
		h.redirectWithFlash(w, r, "/inventory/low-stock", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/inventory/low-stock", "success",
		"Replenished "+strconv.FormatFloat(move.Qty, 'f', -1, 64)+" units")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Inventory",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.logger.Error("render inventory page", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
