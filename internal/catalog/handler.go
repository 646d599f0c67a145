package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-commerce/atelier/internal/platform/httpx"
	"github.com/atelier-commerce/atelier/internal/shared"
	"github.com/atelier-commerce/atelier/internal/view"
)

// WishlistChecker reports which of the given products a customer has saved.
type WishlistChecker interface {
	Saved(ctx context.Context, customerID int64, productIDs []int64) (map[int64]bool, error)
}

// Handler renders the storefront catalog pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	wishlist  WishlistChecker
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// WithWishlist enables saved-state annotation on the product page.
func (h *Handler) WithWishlist(w WishlistChecker) *Handler {
	h.wishlist = w
	return h
}

// Homepage renders the landing page with the newest products.
func (h *Handler) Homepage(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Homepage(r.Context())
	if err != nil {
		h.logger.Error("homepage products", slog.Any("error", err))
		products = []Listing{}
	}
	h.render(w, r, "pages/home.html", "Atelier", map[string]any{
		"Products": products,
	})
}

// MountRoutes registers the catalog routes under /shop.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.browse)
	r.Get("/search", h.search)
	r.Get("/autocomplete", h.autocomplete)
}

func (h *Handler) browse(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		if !errors.Is(err, ErrBadPage) {
			h.logger.Warn("parse catalog filter", slog.Any("error", err))
		}
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}

	page, err := h.service.Browse(r.Context(), filter)
	if err != nil {
		h.logger.Error("browse catalog", slog.Any("error", err))
		page = Page{Products: []Listing{}}
	}
	h.render(w, r, "pages/shop.html", "Shop", map[string]any{
		"Products":   page.Products,
		"Pagination": page.Pagination,
		"Filter":     filter,
		"Sizes":      SizeOptions(),
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}

	page, err := h.service.Browse(r.Context(), filter)
	if err != nil {
		h.logger.Error("search catalog", slog.Any("error", err))
		page = Page{Products: []Listing{}}
	}
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		h.logger.Error("catalog facets", slog.Any("error", err))
	}
	h.render(w, r, "pages/search.html", "Search", map[string]any{
		"Products":   page.Products,
		"Pagination": page.Pagination,
		"Filter":     filter,
		"Facets":     facets,
	})
}

func (h *Handler) autocomplete(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	suggestions, err := h.service.Suggest(r.Context(), term)
	if err != nil {
		h.logger.Error("autocomplete", slog.Any("error", err))
		suggestions = []Suggestion{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"results": suggestions})
}

// ProductDetail renders a single product page. It is mounted next to the
// review routes under /shop/product.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	listing, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("load product", slog.Any("error", err), slog.Int64("product_id", id))
		}
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	wishlisted := false
	if customerID := shared.CurrentCustomerID(r); h.wishlist != nil && customerID != 0 {
		saved, err := h.wishlist.Saved(r.Context(), customerID, []int64{id})
		if err != nil {
			h.logger.Warn("load wishlist state", slog.Any("error", err))
		} else {
			wishlisted = saved[id]
		}
	}
	h.render(w, r, "pages/product.html", listing.Name, map[string]any{
		"Product":    listing,
		"Wishlisted": wishlisted,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.logger.Error("render catalog page", slog.Any("error", err))
	}
}
