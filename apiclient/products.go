package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tienda-web/core"
)

// listAllLimit is the page size used when the whole catalog is needed.
const listAllLimit = 100

// flexibleID accepts numeric or string ids.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexibleID(n.String())
	return nil
}

type wireProduct struct {
	ID          flexibleID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int        `json:"price"`
	Category    string     `json:"category"`
	Images      []string   `json:"images"`
	Tags        []string   `json:"tags"`
	Sizes       []string   `json:"sizes"`
	Colors      []string   `json:"colors"`
	Gender      string     `json:"gender"`
	Oversize    bool       `json:"oversize"`
	Featured    bool       `json:"featured"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// normalize fills the fields older API records may omit.
func (w wireProduct) normalize() core.Product {
	gender := w.Gender
	if gender == "" {
		gender = "unisex"
	}
	return core.Product{
		ID:          string(w.ID),
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price,
		Category:    w.Category,
		Images:      orEmpty(w.Images),
		Tags:        orEmpty(w.Tags),
		Sizes:       orEmpty(w.Sizes),
		Colors:      orEmpty(w.Colors),
		Gender:      gender,
		Oversize:    w.Oversize,
		Featured:    w.Featured,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func payload(in core.ProductInput) core.ProductInput {
	in.Images = orEmpty(in.Images)
	in.Tags = orEmpty(in.Tags)
	in.Sizes = orEmpty(in.Sizes)
	in.Colors = orEmpty(in.Colors)
	if in.Gender == "" {
		in.Gender = "unisex"
	}
	return in
}

type Products struct {
	c *Client
}

func (c *Client) Products() *Products { return &Products{c: c} }

type listResponse struct {
	Products   []wireProduct `json:"products"`
	Pagination *struct {
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

func (p *Products) fetch(ctx context.Context, params url.Values) (*core.ProductPage, error) {
	path := "/api/products"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var resp listResponse
	if err := p.c.call(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}

	page := &core.ProductPage{Products: make([]core.Product, 0, len(resp.Products))}
	for _, w := range resp.Products {
		page.Products = append(page.Products, w.normalize())
	}
	if resp.Pagination != nil {
		page.Total, page.Pages = resp.Pagination.Total, resp.Pagination.Pages
	}
	return page, nil
}

// List fetches a page of products. The API filters by category and search;
// gender and oversize are applied to the fetched page.
func (p *Products) List(ctx context.Context, f core.ProductFilter) (*core.ProductPage, error) {
	params := url.Values{}
	if f.Category != "" {
		params.Set("category", f.Category)
	}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}

	page, err := p.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	filtered := page.Products[:0]
	for _, prod := range page.Products {
		if f.Gender != "" && prod.Gender != f.Gender {
			continue
		}
		if f.Oversize != nil && prod.Oversize != *f.Oversize {
			continue
		}
		filtered = append(filtered, prod)
	}
	page.Products = filtered
	return page, nil
}

func (p *Products) All(ctx context.Context) ([]core.Product, error) {
	page, err := p.fetch(ctx, url.Values{"limit": {strconv.Itoa(listAllLimit)}})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// Featured returns the carousel products.
func (p *Products) Featured(ctx context.Context) ([]core.Product, error) {
	all, err := p.All(ctx)
	if err != nil {
		return nil, err
	}
	featured := []core.Product{}
	for _, prod := range all {
		if prod.Featured {
			featured = append(featured, prod)
		}
	}
	return featured, nil
}

func (p *Products) Search(ctx context.Context, query string) ([]core.Product, error) {
	page, err := p.fetch(ctx, url.Values{"search": {query}})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// Get returns core.ErrNotFound for unknown products.
func (p *Products) Get(ctx context.Context, id string) (*core.Product, error) {
	var w wireProduct
	err := p.c.call(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, false, &w)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	prod := w.normalize()
	return &prod, nil
}

func (p *Products) Create(ctx context.Context, in core.ProductInput) (*core.Product, error) {
	var w wireProduct
	if err := p.c.call(ctx, http.MethodPost, "/api/products", payload(in), true, &w); err != nil {
		return nil, err
	}
	prod := w.normalize()
	return &prod, nil
}

func (p *Products) Update(ctx context.Context, id string, in core.ProductInput) (*core.Product, error) {
	var w wireProduct
	if err := p.c.call(ctx, http.MethodPatch, "/api/products/"+url.PathEscape(id), payload(in), true, &w); err != nil {
		return nil, err
	}
	prod := w.normalize()
	return &prod, nil
}

func (p *Products) Delete(ctx context.Context, id string) error {
	return p.c.call(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, true, nil)
}
