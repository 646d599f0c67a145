package reviews

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-commerce/atelier/internal/catalog"
	"github.com/atelier-commerce/atelier/internal/shared"
	"github.com/atelier-commerce/atelier/internal/view"
)

// Handler wires the review pages under /shop/product.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	catalog   *catalog.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, catalogService *catalog.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, catalog: catalogService, templates: templates, csrf: csrf}
}

// MountRoutes registers review routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}/reviews", h.listReviews)
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireCustomer)
		r.Get("/{id}/review/add", h.showForm)
		r.Post("/{id}/review/submit", h.submit)
	})
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	published, agg, err := h.service.ForProduct(r.Context(), product.ID, 10)
	if err != nil {
		h.logger.Error("product reviews", slog.Any("error", err), slog.Int64("product_id", product.ID))
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}

	h.render(w, r, "pages/reviews.html", map[string]any{
		"Product":       product,
		"Reviews":       published,
		"AverageRating": agg.AverageRating,
		"TotalReviews":  agg.ReviewCount,
	}, http.StatusOK)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}

	existing, err := h.service.Existing(r.Context(), shared.CurrentCustomerID(r), product.ID)
	if err != nil {
		h.logger.Error("load existing review", slog.Any("error", err))
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}

	h.render(w, r, "pages/review_form.html", map[string]any{
		"Product":  product,
		"Existing": existing,
	}, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadProduct(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}

	rating, _ := strconv.Atoi(r.PostFormValue("rating"))
	_, err := h.service.Submit(r.Context(), SubmitInput{
		ProductID:  product.ID,
		CustomerID: shared.CurrentCustomerID(r),
		Title:      r.PostFormValue("title"),
		Rating:     rating,
		Body:       r.PostFormValue("review_text"),
	})
	if err != nil {
		h.logger.Warn("submit review", slog.Any("error", err), slog.Int64("product_id", product.ID))
		h.render(w, r, "pages/review_error.html", map[string]any{
			"Error":   shared.UserSafeMessage(err),
			"Product": product,
		}, http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, "/shop/product/"+strconv.FormatInt(product.ID, 10)+"/reviews", http.StatusSeeOther)
}

func (h *Handler) loadProduct(w http.ResponseWriter, r *http.Request) (catalog.Listing, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return catalog.Listing{}, false
	}
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return catalog.Listing{}, false
	}
	return product, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Reviews",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.logger.Error("render reviews page", slog.Any("error", err))
	}
}
