package middleware

import (
	"net/http"
	"strings"
	"time"

	"tienda-web/apiclient"
	"tienda-web/core"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// LoginPath is where page requests without a session are sent.
const LoginPath = "/login"

// RequireAdmin lets a request through when the visitor holds an unexpired
// admin token. API calls get a JSON 401, pages a redirect to the login form.
func RequireAdmin(items core.ItemStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID := VisitorID(r.Context())
			tokens := apiclient.NewItemTokenStore(items, visitorID)

			token, err := tokens.Token(r.Context())
			if err != nil {
				logrus.WithError(err).WithField("visitor_id", visitorID).Error("Failed to read auth token")
			}
			if apiclient.TokenUsable(token, time.Now()) {
				next.ServeHTTP(w, r)
				return
			}
			if token != "" {
				if err := tokens.Clear(r.Context()); err != nil {
					logrus.WithError(err).WithField("visitor_id", visitorID).Error("Failed to clear expired token")
				}
			}

			if strings.HasPrefix(r.URL.Path, "/api/") {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, map[string]string{"error": "Tu sesión expiró. Por favor, iniciá sesión nuevamente."})
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		})
	}
}
