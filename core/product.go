package core

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type (
	// Product is a read-through copy of a catalog entry owned by the remote API.
	Product struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Price       int       `json:"price"`
		Category    string    `json:"category"`
		Images      []string  `json:"images"`
		Tags        []string  `json:"tags"`
		Sizes       []string  `json:"sizes"`
		Colors      []string  `json:"colors"`
		Gender      string    `json:"gender"`
		Oversize    bool      `json:"oversize"`
		Featured    bool      `json:"featured"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	ProductInput struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       int      `json:"price"`
		Category    string   `json:"category"`
		Images      []string `json:"images"`
		Tags        []string `json:"tags"`
		Sizes       []string `json:"sizes"`
		Colors      []string `json:"colors"`
		Gender      string   `json:"gender"`
		Oversize    bool     `json:"oversize"`
		Featured    bool     `json:"featured"`
	}

	// ProductFilter narrows a catalog listing. Gender and Oversize are not
	// supported by the API and are applied after the fetch.
	ProductFilter struct {
		Gender   string
		Category string
		Oversize *bool
		Search   string
		Page     int
		Limit    int
	}

	ProductPage struct {
		Products []Product `json:"products"`
		Total    int       `json:"total"`
		Pages    int       `json:"pages"`
	}

	OrphanedImage struct {
		Filename   string `json:"filename"`
		URL        string `json:"url"`
		Size       int64  `json:"size"`
		UploadedAt string `json:"uploadedAt"`
	}
)

var (
	Categories = []string{"Casual", "Religioso", "Deportivo"}
	Genders    = []string{"Hombre", "Mujer", "Niño"}
	Sizes      = []string{"XS", "S", "M", "L", "XL", "XXL"}
)

// Input returns the editable fields of p.
func (p Product) Input() ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Images:      p.Images,
		Tags:        p.Tags,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		Gender:      p.Gender,
		Oversize:    p.Oversize,
		Featured:    p.Featured,
	}
}

var priceFormat = message.NewPrinter(language.MustParse("es-AR"))

// DisplayPrice formats the price the way the storefront shows it, e.g. "$15.000".
func (p Product) DisplayPrice() string {
	return priceFormat.Sprintf("$%d", p.Price)
}
