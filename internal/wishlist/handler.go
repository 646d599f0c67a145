package wishlist

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-commerce/atelier/internal/platform/httpx"
	"github.com/atelier-commerce/atelier/internal/shared"
	"github.com/atelier-commerce/atelier/internal/view"
)

// Handler exposes wishlist pages and the toggle endpoint.
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

// MountRoutes registers wishlist routes. All of them require a signed-in
// customer.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireCustomer)
	r.Get("/", h.list)
	r.Post("/toggle", h.toggle)
	r.Post("/remove/{id}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	customerID := shared.CurrentCustomerID(r)
	items, err := h.service.List(r.Context(), customerID)
	if err != nil {
		h.logger.Error("list wishlist", slog.Any("error", err), slog.Int64("customer_id", customerID))
		items = []Item{}
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "My Wishlist",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        map[string]any{"Items": items},
	}
	if err := h.templates.Render(w, "pages/wishlist.html", data); err != nil {
		h.logger.Error("render wishlist", slog.Any("error", err))
	}
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	productID, err := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "product_id must be a positive integer")
		return
	}

	result, err := h.service.Toggle(r.Context(), shared.CurrentCustomerID(r), productID)
	if err != nil {
		h.logger.Error("toggle wishlist", slog.Any("error", err), slog.Int64("product_id", productID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "action": string(result)})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/shop/wishlist", http.StatusSeeOther)
		return
	}
	removed, err := h.service.Remove(r.Context(), shared.CurrentCustomerID(r), entryID)
	if err != nil {
		h.logger.Error("remove wishlist entry", slog.Any("error", err), slog.Int64("entry_id", entryID))
	}
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && removed {
		sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Removed from your wishlist"})
	}
	http.Redirect(w, r, "/shop/wishlist", http.StatusSeeOther)
}
