package kv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tienda-web/middleware"
	"tienda-web/stores"
	"tienda-web/stores/memory"

	"github.com/go-chi/chi/v5"
)

func request(method, key, body, visitor string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/api/kv/"+key, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, "/api/kv/"+key, nil)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("key", key)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.VisitorContextKey, visitor)
	return req.WithContext(ctx)
}

func TestItemLifecycle(t *testing.T) {
	store := memory.NewStore()

	rr := httptest.NewRecorder()
	HandleSaveItem(store).ServeHTTP(rr, request(http.MethodPut, "tshirt-design-draft", `{"templateId":"cruz-radiante"}`, "a"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	HandleGetItem(store).ServeHTTP(rr, request(http.MethodGet, "tshirt-design-draft", "", "a"))
	if rr.Body.String() != `{"templateId":"cruz-radiante"}` {
		t.Errorf("Unexpected value %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	HandleGetItem(store).ServeHTTP(rr, request(http.MethodGet, "tshirt-design-draft", "", "b"))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Another visitor must not see the item, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	HandleListItems(store).ServeHTTP(rr, request(http.MethodGet, "", "", "a"))
	var items []map[string]any
	json.Unmarshal(rr.Body.Bytes(), &items)
	if len(items) != 1 || items[0]["key"] != "tshirt-design-draft" {
		t.Errorf("Unexpected listing %v", items)
	}

	rr = httptest.NewRecorder()
	HandleDeleteItem(store).ServeHTTP(rr, request(http.MethodDelete, "tshirt-design-draft", "", "a"))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
}

func TestReservedKey(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleGetItem(memory.NewStore()).ServeHTTP(rr, request(http.MethodGet, "auth_token", "", "a"))
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rr.Code)
	}
}

func TestQuotaExceeded(t *testing.T) {
	store := stores.WithQuota(memory.NewStore(), 8)

	rr := httptest.NewRecorder()
	HandleSaveItem(store).ServeHTTP(rr, request(http.MethodPut, "big", `{"x":"0123456789"}`, "a"))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rr.Code)
	}
}
