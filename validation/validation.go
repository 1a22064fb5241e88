// Package validation checks the admin product form and the login form and
// reports failures as field → message maps in the shop's language.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"tienda-web/core"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field to the first rule it failed.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	slices.Sort(parts)
	return strings.Join(parts, "; ")
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type productForm struct {
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=500"`
	Price       int      `json:"price" validate:"required,gt=0"`
	Images      []string `json:"images" validate:"min=1,max=4,dive,url"`
	Sizes       []string `json:"sizes" validate:"min=1"`
	Colors      []string `json:"colors" validate:"min=1"`
	Gender      string   `json:"gender" validate:"required,known_gender"`
	Category    string   `json:"category" validate:"required,known_category"`
}

type loginForm struct {
	Email    string `json:"email" validate:"required,simple_email"`
	Password string `json:"password" validate:"required,min=6"`
}

// messages is keyed by field then failed tag; "" is the field's fallback.
var messages = map[string]map[string]string{
	"name": {
		"required": "El nombre es requerido",
		"min":      "El nombre debe tener al menos 3 caracteres",
		"max":      "El nombre no puede exceder 100 caracteres",
	},
	"description": {
		"required": "La descripción es requerida",
		"min":      "La descripción debe tener al menos 10 caracteres",
		"max":      "La descripción no puede exceder 500 caracteres",
	},
	"price": {
		"required": "El precio es requerido",
		"gt":       "El precio debe ser mayor a 0",
	},
	"images": {
		"min": "Debe agregar al menos 1 imagen",
		"max": "Máximo 4 imágenes permitidas",
		"url": "Todas las URLs deben ser válidas",
	},
	"sizes":  {"": "Debe seleccionar al menos 1 talle"},
	"colors": {"": "Debe agregar al menos 1 color"},
	"gender": {
		"required":     "El género es requerido",
		"known_gender": "El género seleccionado no es válido",
	},
	"category": {
		"required":       "La categoría es requerida",
		"known_category": "La categoría seleccionada no es válida",
	},
	"email": {
		"required":     "El email es requerido",
		"simple_email": "Email inválido",
	},
	"password": {
		"required": "La contraseña es requerida",
		"min":      "La contraseña debe tener al menos 6 caracteres",
	},
}

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	mustRegister(v, "simple_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "known_gender", func(fl validator.FieldLevel) bool {
		g := fl.Field().String()
		return g == "unisex" || slices.Contains(core.Genders, g)
	})
	mustRegister(v, "known_category", func(fl validator.FieldLevel) bool {
		return slices.Contains(core.Categories, fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Product returns nil when in passes every product rule.
func (val *Validator) Product(in core.ProductInput) error {
	return val.check(productForm{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Images:      in.Images,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
		Gender:      in.Gender,
		Category:    in.Category,
	})
}

func (val *Validator) Login(creds core.Credentials) error {
	return val.check(loginForm{Email: strings.TrimSpace(creds.Email), Password: creds.Password})
}

func (val *Validator) check(form any) error {
	err := val.v.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := Errors{}
	for _, fe := range fieldErrs {
		field := fieldName(fe)
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag())
	}
	return out
}

// fieldName strips the index from dive errors, so images[2] reports as images.
func fieldName(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Field(), "[")
	return name
}

func message(field, tag string) string {
	byTag := messages[field]
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	if msg, ok := byTag[""]; ok {
		return msg
	}
	return "Valor inválido"
}
