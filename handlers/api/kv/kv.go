package kv

import (
	"errors"
	"io"
	"net/http"

	"tienda-web/apiclient"
	"tienda-web/core"
	"tienda-web/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// maxItemSize bounds one request body; the store's quota applies on top.
const maxItemSize = 5 << 20

// reserved keys are managed by the server and never exposed to the page.
var reserved = map[string]bool{apiclient.TokenKey: true}

func itemKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if key == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Item key is required"})
		return "", false
	}
	if reserved[key] {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, map[string]string{"error": "Item key is reserved"})
		return "", false
	}
	return key, true
}

func HandleListItems(store core.ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := middleware.VisitorID(r.Context())

		items, err := store.List(r.Context(), visitorID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"visitor_id": visitorID,
			}).Error("Failed to list items")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list items"})
			return
		}

		visible := make([]*core.Item, 0, len(items))
		for _, item := range items {
			if !reserved[item.Key] {
				visible = append(visible, item)
			}
		}
		render.JSON(w, r, visible)
	}
}

func HandleGetItem(store core.ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := middleware.VisitorID(r.Context())
		key, ok := itemKey(w, r)
		if !ok {
			return
		}

		item, err := store.Get(r.Context(), visitorID, key)
		if err != nil {
			log := logrus.WithFields(logrus.Fields{"error": err, "visitor_id": visitorID, "key": key})
			if errors.Is(err, core.ErrNotFound) {
				log.Warn("Item not found")
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Item not found"})
				return
			}
			log.Error("Failed to get item")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get item"})
			return
		}

		// The value is returned as stored.
		w.Header().Set("Content-Type", "application/json")
		w.Write(item.Value)
	}
}

func HandleSaveItem(store core.ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := middleware.VisitorID(r.Context())
		key, ok := itemKey(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxItemSize))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err,
				"key":   key,
			}).Error("Failed to read request body")
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, map[string]string{"error": "Failed to read request body"})
			return
		}
		defer r.Body.Close()

		item := &core.Item{VisitorID: visitorID, Key: key, Value: body}
		if err := store.Save(r.Context(), item); err != nil {
			log := logrus.WithFields(logrus.Fields{"error": err, "visitor_id": visitorID, "key": key})
			if errors.Is(err, core.ErrQuotaExceeded) {
				log.Warn("Item rejected by quota")
				render.Status(r, http.StatusRequestEntityTooLarge)
				render.JSON(w, r, map[string]string{"error": "Sin espacio de almacenamiento. Liberá espacio e intentá de nuevo."})
				return
			}
			log.Error("Failed to save item")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save item"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleDeleteItem(store core.ItemStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		visitorID := middleware.VisitorID(r.Context())
		key, ok := itemKey(w, r)
		if !ok {
			return
		}

		if err := store.Delete(r.Context(), visitorID, key); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"visitor_id": visitorID,
				"key":        key,
			}).Error("Failed to delete item")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete item"})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
