package catalog

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"tienda-web/apiclient"
	"tienda-web/config"
	"tienda-web/core"
	"tienda-web/designer"
	"tienda-web/handlers/api/reply"
	"tienda-web/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
)

const defaultPageSize = 12

var (
	markdown   = goldmark.New()
	descPolicy = bluemonday.UGCPolicy()
)

func filterFromQuery(r *http.Request) core.ProductFilter {
	q := r.URL.Query()
	f := core.ProductFilter{
		Gender:   q.Get("gender"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Limit:    defaultPageSize,
	}
	if v, err := strconv.ParseBool(q.Get("oversize")); err == nil {
		f.Oversize = &v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		f.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		f.Limit = v
	}
	return f
}

func HandleListProducts(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api := clients.ForVisitor(middleware.VisitorID(r.Context()))
		page, err := api.Products().List(r.Context(), filterFromQuery(r))
		if err != nil {
			logrus.WithError(err).Error("Failed to list products")
			reply.Error(w, r, err, apiclient.OpLoadProducts)
			return
		}
		render.JSON(w, r, page)
	}
}

func HandleFeatured(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api := clients.ForVisitor(middleware.VisitorID(r.Context()))
		products, err := api.Products().Featured(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to load featured products")
			reply.Error(w, r, err, apiclient.OpLoadProducts)
			return
		}
		render.JSON(w, r, products)
	}
}

// HandleSearch answers the header search box. A blank query yields an
// empty list without calling the API.
func HandleSearch(clients *apiclient.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			render.JSON(w, r, []core.Product{})
			return
		}
		api := clients.ForVisitor(middleware.VisitorID(r.Context()))
		products, err := api.Products().Search(r.Context(), query)
		if err != nil {
			logrus.WithError(err).WithField("query", query).Error("Failed to search products")
			reply.Error(w, r, err, apiclient.OpLoadProducts)
			return
		}
		render.JSON(w, r, products)
	}
}

// ProductDetail is a product with what its page shows around it.
type ProductDetail struct {
	core.Product
	DescriptionHTML string `json:"descriptionHtml"`
	DisplayPrice    string `json:"displayPrice"`
	InquiryLink     string `json:"inquiryLink"`
}

// RenderDescription turns a markdown description into safe HTML.
func RenderDescription(description string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(description), &buf); err != nil {
		return "", err
	}
	return string(descPolicy.SanitizeBytes(buf.Bytes())), nil
}

func HandleGetProduct(clients *apiclient.Factory, contact config.ContactConfig, siteURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := logrus.WithField("product_id", id)

		api := clients.ForVisitor(middleware.VisitorID(r.Context()))
		product, err := api.Products().Get(r.Context(), id)
		if err != nil {
			log.WithError(err).Warn("Failed to load product")
			reply.Error(w, r, err, apiclient.OpLoadProduct)
			return
		}

		html, err := RenderDescription(product.Description)
		if err != nil {
			log.WithError(err).Warn("Failed to render product description")
			html = descPolicy.Sanitize(product.Description)
		}

		render.JSON(w, r, ProductDetail{
			Product:         *product,
			DescriptionHTML: html,
			DisplayPrice:    product.DisplayPrice(),
			InquiryLink:     designer.ProductInquiryLink(contact, *product, siteURL+"/product/"+product.ID),
		})
	}
}

// HandleFilters lists the values the catalog filters offer.
func HandleFilters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string][]string{
		"categories": core.Categories,
		"genders":    core.Genders,
		"sizes":      core.Sizes,
	})
}
