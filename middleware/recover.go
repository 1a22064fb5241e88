package middleware

import (
	"html/template"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

var errorPage = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="es">
<head><meta charset="utf-8"><title>Algo salió mal</title></head>
<body>
<h1>Algo salió mal</h1>
<p>{{.}}</p>
<a href="/">Volver al inicio</a>
</body>
</html>`))

const msgUnexpected = "Ocurrió un error inesperado. Por favor, intentá de nuevo."

// Recover turns a panicking handler into an error response: JSON for the
// API, a page with a link home for everything else.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logrus.WithFields(logrus.Fields{
				"panic":  rec,
				"path":   r.URL.Path,
				"method": r.Method,
				"stack":  string(debug.Stack()),
			}).Error("Recovered from panic")

			if strings.HasPrefix(r.URL.Path, "/api/") {
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, map[string]string{"error": msgUnexpected})
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			if err := errorPage.Execute(w, msgUnexpected); err != nil {
				logrus.WithError(err).Error("Failed to render error page")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
