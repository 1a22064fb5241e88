package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tienda-web/apiclient"
	"tienda-web/middleware"
	"tienda-web/stores/memory"
	"tienda-web/validation"

	"github.com/golang-jwt/jwt/v5"
)

const visitor = "01J0000000000000000000AUTH"

func asVisitor(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.VisitorContextKey, visitor))
}

func setup(t *testing.T, status int) *apiclient.Factory {
	t.Helper()
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("k"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": map[string]string{"code": "INVALID_CREDENTIALS", "message": "invalid username or password"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{
			"token": token, "expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
			"user": map[string]any{"id": 1, "username": "admin@tienda.com"},
		}})
	}))
	t.Cleanup(srv.Close)
	return apiclient.NewFactory(apiclient.Options{BaseURL: srv.URL}, memory.NewStore())
}

func TestLoginLogoutSession(t *testing.T) {
	clients := setup(t, http.StatusOK)

	session := func() SessionStatus {
		rr := httptest.NewRecorder()
		HandleSession(clients).ServeHTTP(rr, asVisitor(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)))
		var status SessionStatus
		json.Unmarshal(rr.Body.Bytes(), &status)
		return status
	}
	if session().Authenticated {
		t.Fatal("Expected no session before login")
	}

	body := strings.NewReader(`{"email":"admin@tienda.com","password":"secreto"}`)
	rr := httptest.NewRecorder()
	HandleLogin(clients, validation.New()).ServeHTTP(rr, asVisitor(httptest.NewRequest(http.MethodPost, "/api/auth/login", body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "token") {
		t.Error("Login response must not expose the token")
	}

	status := session()
	if !status.Authenticated || status.ExpiresAt == nil {
		t.Errorf("Expected an authenticated session, got %+v", status)
	}

	rr = httptest.NewRecorder()
	HandleLogout(clients).ServeHTTP(rr, asVisitor(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
	if session().Authenticated {
		t.Error("Expected no session after logout")
	}
}

func TestLoginRejected(t *testing.T) {
	clients := setup(t, http.StatusUnauthorized)

	body := strings.NewReader(`{"email":"admin@tienda.com","password":"incorrecta"}`)
	rr := httptest.NewRecorder()
	HandleLogin(clients, validation.New()).ServeHTTP(rr, asVisitor(httptest.NewRequest(http.MethodPost, "/api/auth/login", body)))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rr.Code)
	}
	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "Email o contraseña incorrectos. Por favor, intentá de nuevo." {
		t.Errorf("Unexpected error %q", resp["error"])
	}
	if _, ok := resp["redirect"]; ok {
		t.Error("A failed login must not redirect")
	}
}

func TestLoginValidation(t *testing.T) {
	rr := httptest.NewRecorder()
	body := strings.NewReader(`{"email":"admin","password":"123"}`)
	HandleLogin(setup(t, http.StatusOK), validation.New()).ServeHTTP(rr, asVisitor(httptest.NewRequest(http.MethodPost, "/api/auth/login", body)))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rr.Code)
	}
}
