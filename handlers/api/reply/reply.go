// Package reply renders API failures the same way across handlers.
package reply

import (
	"errors"
	"net/http"

	"tienda-web/apiclient"
	"tienda-web/core"
	"tienda-web/middleware"
	"tienda-web/validation"

	"github.com/go-chi/render"
)

// Error renders err with the user-facing message for op. A 401 also tells
// the page where to log in again.
func Error(w http.ResponseWriter, r *http.Request, err error, op apiclient.Op) {
	status := Status(err)
	body := map[string]any{"error": apiclient.Message(err, op)}
	if status == http.StatusUnauthorized && op != apiclient.OpLogin {
		body["redirect"] = middleware.LoginPath
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Invalid answers a form that failed validation.
func Invalid(w http.ResponseWriter, r *http.Request, errs validation.Errors) {
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, map[string]any{
		"error":  "Los datos proporcionados no son válidos.",
		"fields": errs,
	})
}

// Status picks the HTTP status to answer err with.
func Status(err error) int {
	var (
		validationErr *apiclient.ValidationError
		formErrs      validation.Errors
		statusErr     *apiclient.StatusError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &formErrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &statusErr):
		return statusErr.Status
	case errors.Is(err, apiclient.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
