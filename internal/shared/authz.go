package shared

import (
	"net/http"
	"strconv"
)

// CurrentCustomerID extracts the authenticated customer from the session.
// Returns 0 when the request is anonymous.
func CurrentCustomerID(r *http.Request) int64 {
	sess := SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return 0
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// RequireCustomer redirects anonymous requests to the login page. Handlers
// behind it can rely on CurrentCustomerID returning a non-zero value.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentCustomerID(r) == 0 {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
