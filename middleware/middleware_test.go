package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tienda-web/apiclient"
	"tienda-web/stores/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

func TestVisitorIssuesCookieOnce(t *testing.T) {
	var seen string
	handler := Visitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = VisitorID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != VisitorCookie {
		t.Fatalf("expected visitor cookie, got %v", cookies)
	}
	if seen != cookies[0].Value {
		t.Errorf("context visitor %q does not match cookie %q", seen, cookies[0].Value)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if len(rr.Result().Cookies()) != 0 {
		t.Error("known visitor should not get a new cookie")
	}
	if seen != cookies[0].Value {
		t.Errorf("visitor changed: got %q, want %q", seen, cookies[0].Value)
	}
}

func TestVisitorReplacesForgedCookie(t *testing.T) {
	handler := Visitor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "../../etc"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if len(rr.Result().Cookies()) != 1 {
		t.Fatal("expected a fresh visitor cookie")
	}
}

func adminRequest(t *testing.T, path string, token string) *httptest.ResponseRecorder {
	t.Helper()
	items := memory.NewStore()
	visitor := ulid.Make().String()
	if token != "" {
		if err := apiclient.NewItemTokenStore(items, visitor).SetToken(context.Background(), token); err != nil {
			t.Fatalf("SetToken() failed: %v", err)
		}
	}

	handler := RequireAdmin(items)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(context.WithValue(req.Context(), VisitorContextKey, visitor))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRequireAdmin(t *testing.T) {
	valid := token(t, time.Now().Add(time.Hour))
	expired := token(t, time.Now().Add(-time.Hour))

	if rr := adminRequest(t, "/admin", valid); rr.Code != http.StatusNoContent {
		t.Errorf("valid token: got %d", rr.Code)
	}
	if rr := adminRequest(t, "/admin", ""); rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != LoginPath {
		t.Errorf("page without token: got %d to %q", rr.Code, rr.Header().Get("Location"))
	}
	if rr := adminRequest(t, "/api/admin/products", expired); rr.Code != http.StatusUnauthorized {
		t.Errorf("api with expired token: got %d", rr.Code)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/product/1", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("page panic: got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("page panic content type: %q", ct)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("api panic: got %d", rr.Code)
	}
}
