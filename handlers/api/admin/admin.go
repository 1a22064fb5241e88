package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tienda-web/apiclient"
	"tienda-web/core"
	"tienda-web/handlers/api/reply"
	"tienda-web/middleware"
	"tienda-web/validation"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// multipartOverhead is room for the form framing around an upload.
const multipartOverhead = 1 << 20

func client(clients *apiclient.Factory, r *http.Request) *apiclient.Client {
	return clients.ForVisitor(middleware.VisitorID(r.Context()))
}

func HandleListProducts(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := client(clients, r).Products().All(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list products")
			reply.Error(w, r, err, apiclient.OpLoadProducts)
			return
		}
		render.JSON(w, r, products)
	}
}

func HandleGetProduct(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		product, err := client(clients, r).Products().Get(r.Context(), id)
		if err != nil {
			logrus.WithError(err).WithField("product_id", id).Warn("Failed to load product")
			reply.Error(w, r, err, apiclient.OpLoadProduct)
			return
		}
		render.JSON(w, r, product)
	}
}

func decodeProduct(w http.ResponseWriter, r *http.Request, v *validation.Validator) (core.ProductInput, bool) {
	var in core.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "Los datos enviados no son válidos. Por favor, revisá el formulario."})
		return in, false
	}
	if err := v.Product(in); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			reply.Invalid(w, r, errs)
			return in, false
		}
		logrus.WithError(err).Error("Failed to validate product")
		reply.Error(w, r, err, apiclient.OpCreateProduct)
		return in, false
	}
	return in, true
}

func HandleCreateProduct(clients *apiclient.Factory, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeProduct(w, r, v)
		if !ok {
			return
		}
		product, err := client(clients, r).Products().Create(r.Context(), in)
		if err != nil {
			logrus.WithError(err).WithField("name", in.Name).Error("Failed to create product")
			reply.Error(w, r, err, apiclient.OpCreateProduct)
			return
		}
		logrus.WithField("product_id", product.ID).Info("Product created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, product)
	}
}

func HandleUpdateProduct(clients *apiclient.Factory, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		in, ok := decodeProduct(w, r, v)
		if !ok {
			return
		}
		product, err := client(clients, r).Products().Update(r.Context(), id, in)
		if err != nil {
			logrus.WithError(err).WithField("product_id", id).Error("Failed to update product")
			reply.Error(w, r, err, apiclient.OpUpdateProduct)
			return
		}
		logrus.WithField("product_id", id).Info("Product updated")
		render.JSON(w, r, product)
	}
}

func HandleDeleteProduct(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := client(clients, r).Products().Delete(r.Context(), id); err != nil {
			logrus.WithError(err).WithField("product_id", id).Error("Failed to delete product")
			reply.Error(w, r, err, apiclient.OpDeleteProduct)
			return
		}
		logrus.WithField("product_id", id).Info("Product deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleUpload validates an image locally and forwards it to the API. The
// declared content type must match the file's bytes.
func HandleUpload(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, apiclient.MaxUploadSize+multipartOverhead)
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reply.Error(w, r, apiclient.ValidateImage("", apiclient.MaxUploadSize+1, ""), apiclient.OpUploadImage)
				return
			}
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "No se recibió ningún archivo"})
			return
		}
		defer file.Close()

		log := logrus.WithFields(logrus.Fields{"filename": header.Filename, "size": header.Size})
		if err := apiclient.ValidateImage(header.Filename, header.Size, header.Header.Get("Content-Type")); err != nil {
			reply.Error(w, r, err, apiclient.OpUploadImage)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			log.WithError(err).Error("Failed to read upload")
			reply.Error(w, r, err, apiclient.OpUploadImage)
			return
		}
		detected := mimetype.Detect(data).String()
		if err := apiclient.ValidateImage(header.Filename, int64(len(data)), detected); err != nil {
			log.WithField("detected", detected).Warn("Upload content does not match an image type")
			reply.Error(w, r, err, apiclient.OpUploadImage)
			return
		}

		progress := func(sent, total int64) {
			if sent == total {
				log.Debug("Upload body sent")
			}
		}
		result, err := client(clients, r).Uploads().Upload(r.Context(), apiclient.File{
			Name:        header.Filename,
			ContentType: detected,
			Data:        data,
		}, progress)
		if err != nil {
			log.WithError(err).Error("Failed to upload image")
			reply.Error(w, r, err, apiclient.OpUploadImage)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, result)
	}
}

func HandleListOrphaned(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		images, err := client(clients, r).Images().ListOrphaned(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list orphaned images")
			reply.Error(w, r, err, "")
			return
		}
		render.JSON(w, r, images)
	}
}

func HandleDeleteImage(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if err := client(clients, r).Images().Delete(r.Context(), filename); err != nil {
			logrus.WithError(err).WithField("filename", filename).Error("Failed to delete image")
			reply.Error(w, r, err, "")
			return
		}
		logrus.WithField("filename", filename).Info("Image deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}
