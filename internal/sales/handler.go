package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-commerce/atelier/internal/catalog"
	"github.com/atelier-commerce/atelier/internal/shared"
	"github.com/atelier-commerce/atelier/internal/view"
)

// Handler exposes cart, checkout, confirmation, tracking and the B2B portal.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	catalog   *catalog.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	validate  *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service, catalogService *catalog.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		catalog:   catalogService,
		templates: templates,
		csrf:      csrf,
		validate:  validator.New(),
	}
}

// MountRoutes registers the storefront order routes under /shop.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/cart/update", h.cartUpdate)
	r.Get("/checkout", h.checkout)
	r.Post("/confirm_order", h.confirmOrder)
	r.Get("/track/{trackingNumber}", h.track)
	r.With(shared.RequireCustomer).Get("/b2b", h.b2bPortal)
}

type cartUpdateForm struct {
	ProductID int64   `validate:"required,gt=0"`
	Quantity  float64 `validate:"gte=0"`
}

func (h *Handler) cartUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	productID, _ := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	quantity, err := strconv.ParseFloat(r.PostFormValue("quantity"), 64)
	if err != nil {
		quantity = -1
	}
	form := cartUpdateForm{ProductID: productID, Quantity: quantity}
	if err := h.validate.Struct(form); err != nil {
		h.redirectWithFlash(w, r, "/shop", "error", "Invalid cart request")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	_, err = h.service.UpdateCart(r.Context(), sess.ID, shared.CurrentCustomerID(r), productID, quantity)
	if err != nil {
		var shortage *StockShortageError
		if errors.As(err, &shortage) {
			h.render(w, r, "pages/stock_unavailable.html", "Out of Stock", map[string]any{
				"ProductName": shortage.ProductName,
				"Requested":   shortage.Requested,
				"Available":   shortage.Available,
			}, http.StatusConflict)
			return
		}
		h.logger.Warn("cart update", slog.Any("error", err), slog.Int64("product_id", productID))
		h.redirectWithFlash(w, r, "/shop", "error", shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/shop/checkout", "success", "Cart updated")
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	order, lines, err := h.service.Cart(r.Context(), sess.ID)
	if err != nil {
		h.logger.Error("load checkout", slog.Any("error", err))
		http.Redirect(w, r, "/shop", http.StatusSeeOther)
		return
	}
	if order == nil || len(lines) == 0 {
		h.redirectWithFlash(w, r, "/shop", "info", "Your cart is empty")
		return
	}
	h.render(w, r, "pages/checkout.html", "Checkout", map[string]any{
		"Order": order,
		"Lines": lines,
	}, http.StatusOK)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/shop/checkout", http.StatusSeeOther)
		return
	}

	method := r.PostFormValue("delivery_method")
	if !ValidDeliveryMethod(method) {
		method = string(DeliveryStandard)
	}

	sess := shared.SessionFromContext(r.Context())
	ctx := r.Context()

	if ct := r.PostFormValue("customer_type"); ValidCustomerType(ct) {
		order, _, err := h.service.Cart(ctx, sess.ID)
		if err == nil && order != nil {
			if err := h.service.SetCustomerType(ctx, order.ID, CustomerType(ct)); err != nil {
				h.logger.Warn("set customer type", slog.Any("error", err), slog.Int64("order_id", order.ID))
			}
		}
	}

	confirmed, err := h.service.Confirm(ctx, sess.ID, DeliveryMethod(method))
	if err != nil {
		var shortage *StockShortageError
		if errors.As(err, &shortage) {
			h.render(w, r, "pages/stock_unavailable.html", "Out of Stock", map[string]any{
				"ProductName": shortage.ProductName,
				"Requested":   shortage.Requested,
				"Available":   shortage.Available,
			}, http.StatusConflict)
			return
		}
		h.logger.Warn("confirm order", slog.Any("error", err))
		h.render(w, r, "pages/order_error.html", "Order Error", map[string]any{
			"Error": shared.UserSafeMessage(err),
		}, http.StatusBadRequest)
		return
	}

	h.render(w, r, "pages/order_confirmation.html", "Order Confirmed", map[string]any{
		"Order": confirmed,
	}, http.StatusOK)
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	tracking := chi.URLParam(r, "trackingNumber")
	order, lines, err := h.service.Track(r.Context(), tracking)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("track order", slog.Any("error", err))
		}
		h.render(w, r, "pages/tracking_not_found.html", "Order Tracking", map[string]any{
			"TrackingNumber": tracking,
		}, http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/tracking.html", "Order Tracking", map[string]any{
		"Order": order,
		"Lines": lines,
	}, http.StatusOK)
}

func (h *Handler) b2bPortal(w http.ResponseWriter, r *http.Request) {
	customerID := shared.CurrentCustomerID(r)
	orders, err := h.service.B2BOrders(r.Context(), customerID, 10)
	if err != nil {
		h.logger.Error("b2b orders", slog.Any("error", err), slog.Int64("customer_id", customerID))
		orders = []Order{}
	}
	products, err := h.catalog.B2BPriced(r.Context())
	if err != nil {
		h.logger.Error("b2b products", slog.Any("error", err))
		products = nil
	}
	h.render(w, r, "pages/b2b_portal.html", "B2B Portal", map[string]any{
		"Orders":   orders,
		"Products": products,
	}, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
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
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.logger.Error("render sales page", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
