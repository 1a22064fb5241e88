package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	VisitorContextKey = contextKey("visitor")

	// VisitorCookie names the browser this server keeps local storage for.
	VisitorCookie = "tienda_visitor"
	visitorMaxAge = 365 * 24 * time.Hour
)

// Visitor makes sure every request carries a visitor id, issuing a cookie
// on first contact.
func Visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(VisitorCookie); err == nil {
			if _, err := ulid.ParseStrict(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = ulid.Make().String()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(visitorMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   r.Header.Get("X-Forwarded-Proto") == "https",
				SameSite: http.SameSiteLaxMode,
			})
			logrus.WithField("visitor_id", id).Debug("New visitor")
		}

		ctx := context.WithValue(r.Context(), VisitorContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VisitorID returns the id Visitor stored, or "" outside that middleware.
func VisitorID(ctx context.Context) string {
	id, _ := ctx.Value(VisitorContextKey).(string)
	return id
}
