package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tienda-web/apiclient"
	"tienda-web/config"
	"tienda-web/stores/memory"

	"github.com/go-chi/chi/v5"
)

func fakeAPI(t *testing.T) *apiclient.Factory {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/products":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
				"products": []map[string]any{
					{"id": 1, "name": "Remera Fe", "price": 15000, "gender": "Hombre", "featured": true},
					{"id": 2, "name": "Remera Cruz", "price": 12000, "gender": "Mujer"},
				},
				"pagination": map[string]int{"total": 2, "pages": 1},
			}})
		case "/api/products/1":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
				"id": 1, "name": "Remera Fe", "price": 15000,
				"description": "**Algodón** peinado <script>alert(1)</script>",
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": map[string]string{"code": "NOT_FOUND", "message": "product not found"}})
		}
	}))
	t.Cleanup(srv.Close)
	return apiclient.NewFactory(apiclient.Options{BaseURL: srv.URL}, memory.NewStore())
}

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleListProducts_FiltersGender(t *testing.T) {
	handler := HandleListProducts(fakeAPI(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products?gender=Mujer", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var page struct {
		Products []struct {
			Name string `json:"name"`
		} `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(page.Products) != 1 || page.Products[0].Name != "Remera Cruz" {
		t.Errorf("Expected only Remera Cruz, got %+v", page.Products)
	}
}

func TestHandleFeatured(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleFeatured(fakeAPI(t)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/featured", nil))

	var products []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &products); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(products) != 1 || products[0]["name"] != "Remera Fe" {
		t.Errorf("Expected one featured product, got %v", products)
	}
}

func TestHandleGetProduct(t *testing.T) {
	contact := config.ContactConfig{WhatsAppPhone: "5491100000000", WhatsAppMessage: "Hola!"}
	handler := HandleGetProduct(fakeAPI(t), contact, "https://tienda.com")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withID(httptest.NewRequest(http.MethodGet, "/api/products/1", nil), "1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var detail ProductDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(detail.DescriptionHTML, "<strong>Algodón</strong>") {
		t.Errorf("Expected rendered markdown, got %q", detail.DescriptionHTML)
	}
	if strings.Contains(detail.DescriptionHTML, "<script>") {
		t.Errorf("Description was not sanitized: %q", detail.DescriptionHTML)
	}
	if detail.DisplayPrice != "$15.000" {
		t.Errorf("Expected $15.000, got %q", detail.DisplayPrice)
	}
	if !strings.HasPrefix(detail.InquiryLink, "https://wa.me/5491100000000?text=") {
		t.Errorf("Unexpected inquiry link %q", detail.InquiryLink)
	}
}

func TestHandleGetProduct_NotFound(t *testing.T) {
	handler := HandleGetProduct(fakeAPI(t), config.ContactConfig{}, "")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, withID(httptest.NewRequest(http.MethodGet, "/api/products/99", nil), "99"))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No se encontró el recurso solicitado.") {
		t.Errorf("Unexpected body %s", rr.Body.String())
	}
}

func TestHandleSearch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("search"); got != "esperanza" {
			t.Errorf("Expected search=esperanza, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
			"products": []map[string]any{{"id": 7, "name": "Remera Esperanza", "price": 14000}},
		}})
	}))
	defer srv.Close()
	handler := HandleSearch(apiclient.NewFactory(apiclient.Options{BaseURL: srv.URL}, memory.NewStore()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/search?q=esperanza", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var products []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &products); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if len(products) != 1 || products[0].ID != "7" {
		t.Errorf("Unexpected products %+v", products)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/search?q=+", nil))
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("Expected empty list for blank query, got %s", rr.Body.String())
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("Expected one API call, got %d", n)
	}
}
