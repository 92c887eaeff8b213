package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/tournament-engine/services"
)

var testSecret = []byte("test-secret")

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func request(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthenticateStoresActor(t *testing.T) {
	t.Parallel()
	var got services.Actor
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := ActorFromContext(r.Context())
		if err != nil {
			t.Errorf("actor from context: %v", err)
		}
		got = actor
	}))

	tests := []struct {
		role string
		want services.Actor
	}{
		{"participant", services.Actor{ID: "p1"}},
		{"organizer", services.Actor{ID: "p1", Organizer: true}},
		{"admin", services.Actor{ID: "p1", Organizer: true}},
	}
	for _, tt := range tests {
		token := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
			"sub":  "p1",
			"role": tt.role,
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request(token))
		if rec.Code != http.StatusOK || got != tt.want {
			t.Fatalf("role %s: expected %+v, got %+v (status %d)", tt.role, tt.want, got, rec.Code)
		}
	}
}

func TestAuthenticateRejects(t *testing.T) {
	t.Parallel()
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("handler must not run")
	}))

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "p1", "role": "organizer"})},
		{"expired", signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "p1", "exp": time.Now().Add(-time.Minute).Unix()})},
		{"none algorithm", signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "p1"})},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request(tt.token))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tt.name, rec.Code)
		}
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	handler := Authenticate(testSecret)(Authorize(RoleOrganizer, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	tests := []struct {
		role string
		want int
	}{
		{"organizer", http.StatusNoContent},
		{"admin", http.StatusNoContent},
		{"participant", http.StatusForbidden},
		{"spectator", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		token := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "u1", "role": tt.role})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request(token))
		if rec.Code != tt.want {
			t.Fatalf("role %s: expected %d, got %d", tt.role, tt.want, rec.Code)
		}
	}
}

func TestActorFromContextWithoutClaims(t *testing.T) {
	t.Parallel()
	if _, err := ActorFromContext(t.Context()); !errors.Is(err, ErrNoClaims) {
		t.Fatalf("expected ErrNoClaims, got %v", err)
	}
}
