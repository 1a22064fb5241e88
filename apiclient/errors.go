package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"

	"tienda-web/core"
)

// Op names the user action a failure happened in, for the fallback message.
type Op string

const (
	OpCreateProduct Op = "CREATE_PRODUCT"
	OpUpdateProduct Op = "UPDATE_PRODUCT"
	OpDeleteProduct Op = "DELETE_PRODUCT"
	OpLoadProducts  Op = "LOAD_PRODUCTS"
	OpLoadProduct   Op = "LOAD_PRODUCT"
	OpUploadImage   Op = "UPLOAD_IMAGE"
	OpLogin         Op = "LOGIN_FAILED"
)

const (
	msgNetwork = "No se pudo conectar al servidor. Verificá tu conexión a internet."
	msgTimeout = "La solicitud tardó demasiado. Por favor, intentá de nuevo."
	msgGeneric = "Ocurrió un error inesperado. Por favor, intentá de nuevo."
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Los datos enviados no son válidos. Por favor, revisá el formulario.",
	http.StatusUnauthorized:        "Tu sesión expiró. Por favor, iniciá sesión nuevamente.",
	http.StatusForbidden:           "No tenés permisos para realizar esta acción.",
	http.StatusNotFound:            "No se encontró el recurso solicitado.",
	http.StatusConflict:            "Ya existe un recurso con esos datos.",
	http.StatusUnprocessableEntity: "Los datos proporcionados no son válidos.",
	http.StatusInternalServerError: "Ocurrió un error en el servidor. Estamos trabajando para solucionarlo.",
	http.StatusBadGateway:          "El servidor está temporalmente no disponible. Intentá de nuevo en unos momentos.",
	http.StatusServiceUnavailable:  "El servicio no está disponible en este momento. Intentá más tarde.",
}

var opMessages = map[Op]string{
	OpCreateProduct: "No se pudo crear el producto. Por favor, verificá los datos e intentá de nuevo.",
	OpUpdateProduct: "No se pudo actualizar el producto. Por favor, intentá de nuevo.",
	OpDeleteProduct: "No se pudo eliminar el producto. Por favor, intentá de nuevo.",
	OpLoadProducts:  "No se pudieron cargar los productos. Por favor, recargá la página.",
	OpLoadProduct:   "No se pudo cargar el producto. Por favor, intentá de nuevo.",
	OpUploadImage:   "No se pudo subir la imagen. Verificá el tamaño y formato del archivo.",
	OpLogin:         "Email o contraseña incorrectos. Por favor, intentá de nuevo.",
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Message returns the text shown to the user for err. Lookup order: timeout,
// network failure, not found, known status, the API's own message, the operation's
// message, a generic fallback.
func Message(err error, op Op) string {
	if err == nil {
		return ""
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	if isTimeout(err) {
		return msgTimeout
	}
	if errors.Is(err, ErrNetwork) {
		return msgNetwork
	}
	if errors.Is(err, ErrUnauthorized) {
		if op == OpLogin {
			return opMessages[OpLogin]
		}
		return statusMessages[http.StatusUnauthorized]
	}
	if errors.Is(err, core.ErrNotFound) {
		return statusMessages[http.StatusNotFound]
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if msg, ok := statusMessages[statusErr.Status]; ok {
			return msg
		}
		if statusErr.Message != "" {
			return statusErr.Message
		}
	}
	if msg, ok := opMessages[op]; ok {
		return msg
	}
	return msgGeneric
}

// IsRetryable reports whether repeating the request may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetwork) || isTimeout(err) {
		return true
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch {
	case statusErr.Status >= 500:
		return true
	case statusErr.Status == http.StatusRequestTimeout, statusErr.Status == http.StatusTooManyRequests:
		return true
	}
	return false
}
