package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tienda-web/apiclient"
	"tienda-web/core"
	"tienda-web/handlers/api/reply"
	"tienda-web/middleware"
	"tienda-web/validation"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// SessionStatus tells the page whether the visitor is logged in as admin.
type SessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// HandleLogin checks the form, exchanges the credentials with the API and
// keeps the token in the visitor's storage.
func HandleLogin(clients *apiclient.Factory, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds core.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Los datos enviados no son válidos. Por favor, revisá el formulario."})
			return
		}
		if err := v.Login(creds); err != nil {
			var errs validation.Errors
			if errors.As(err, &errs) {
				reply.Invalid(w, r, errs)
				return
			}
			reply.Error(w, r, err, apiclient.OpLogin)
			return
		}

		visitorID := middleware.VisitorID(r.Context())
		result, err := clients.ForVisitor(visitorID).Auth().Login(r.Context(), creds)
		if err != nil {
			logrus.WithError(err).WithField("visitor_id", visitorID).Warn("Login failed")
			reply.Error(w, r, err, apiclient.OpLogin)
			return
		}

		render.JSON(w, r, map[string]any{
			"user":      result.User,
			"expiresAt": result.ExpiresAt,
		})
	}
}

func HandleLogout(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := middleware.VisitorID(r.Context())
		if err := clients.ForVisitor(visitorID).Auth().Logout(r.Context()); err != nil {
			logrus.WithError(err).WithField("visitor_id", visitorID).Error("Failed to clear session")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to log out"})
			return
		}
		logrus.WithField("visitor_id", visitorID).Info("Admin logged out")
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSession(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := clients.ForVisitor(middleware.VisitorID(r.Context())).Auth()
		status := SessionStatus{Authenticated: auth.IsAuthenticated(r.Context())}
		if status.Authenticated {
			if token, err := auth.Token(r.Context()); err == nil {
				if exp, ok := apiclient.TokenExpiry(token); ok {
					status.ExpiresAt = &exp
				}
			}
		}
		render.JSON(w, r, status)
	}
}
