package designs

import (
	"errors"
	"net/http"

	"tienda-web/config"
	"tienda-web/core"
	"tienda-web/designer"
	"tienda-web/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const exportContentType = "image/png"

// FontView is a font table entry with its preload state.
type FontView struct {
	core.Font
	Loaded bool `json:"loaded"`
}

func HandleTemplates(assets *designer.Assets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, assets.Templates)
	}
}

func HandleColors(assets *designer.Assets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"colors":  assets.Colors,
			"default": assets.DefaultShirtColor(),
		})
	}
}

func HandleFonts(assets *designer.Assets, fonts *designer.FontLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views := make([]FontView, 0, len(assets.Fonts))
		for _, f := range assets.Fonts {
			views = append(views, FontView{Font: f, Loaded: fonts.IsLoaded(f.Family)})
		}
		render.JSON(w, r, views)
	}
}

// HandleExport renders the visitor's open design, stores the PNG and
// returns its link and a WhatsApp share link.
func HandleExport(sessions *designer.Registry, store core.ExportStore, contact config.ContactConfig, siteURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := middleware.VisitorID(r.Context())
		log := logrus.WithField("visitor_id", visitorID)

		session := sessions.ForVisitor(visitorID)
		if session == nil {
			log.Warn("Export requested without an open design")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": "No hay un diseño abierto para exportar."})
			return
		}

		data, err := session.Export()
		if err != nil {
			log.WithError(err).Error("Failed to export design")
			status := http.StatusInternalServerError
			if errors.Is(err, designer.ErrSessionClosed) {
				status = http.StatusConflict
			}
			render.Status(r, status)
			render.JSON(w, r, map[string]string{"error": "No se pudo exportar el diseño. Por favor, intentá de nuevo."})
			return
		}

		id, err := store.Create(r.Context(), &core.Export{ContentType: exportContentType, Data: data})
		if err != nil {
			log.WithError(err).Error("Failed to store export")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "No se pudo exportar el diseño. Por favor, intentá de nuevo."})
			return
		}

		url := siteURL + "/api/designer/exports/" + id
		log.WithField("export_id", id).Info("Design exported")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{
			"id":        id,
			"url":       url,
			"shareLink": designer.ShareLink(contact, url),
		})
	}
}

func HandleGetExport(store core.ExportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		export, err := store.FindID(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Export not found"})
				return
			}
			logrus.WithError(err).WithField("export_id", id).Error("Failed to load export")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load export"})
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `inline; filename="diseno-`+id+`.png"`)
		w.Write(export.Data)
	}
}

func HandleSessions(sessions *designer.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]int{"sessions": sessions.Count()})
	}
}
