package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func adminToken(t *testing.T, role string) string {
	t.Helper()
	token, err := SignJWT(testSecret, AdminClaims{
		Sub:  "admin-1",
		Role: role,
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestVerifyJWTRoundTrip(t *testing.T) {
	token := adminToken(t, RoleAdmin)
	claims, err := VerifyJWT(testSecret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "admin-1" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyJWTRejectsTampering(t *testing.T) {
	token := adminToken(t, RoleAdmin)
	if _, err := VerifyJWT(testSecret, token+"x"); err == nil {
		t.Fatal("expected signature failure")
	}
	if _, err := VerifyJWT("other-secret", token); err == nil {
		t.Fatal("expected signature failure with wrong secret")
	}
}

func TestVerifyJWTRejectsExpired(t *testing.T) {
	token, err := SignJWT(testSecret, AdminClaims{Sub: "a", Role: RoleAdmin, Exp: time.Now().Add(-time.Minute).Unix()})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(testSecret, token); err == nil {
		t.Fatal("expected expiry failure")
	}
}

func TestAdminJWTMiddleware(t *testing.T) {
	var gotAdminID string
	handler := AdminJWT(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdminID = AdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"non-admin role", "Bearer " + adminToken(t, "editor"), http.StatusForbidden},
		{"admin", "Bearer " + adminToken(t, RoleAdmin), http.StatusOK},
	}
	for _, tc := range cases {
		gotAdminID = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.wantCode {
			t.Fatalf("%s: code = %d, want %d", tc.name, rec.Code, tc.wantCode)
		}
		if tc.wantCode == http.StatusOK && gotAdminID != "admin-1" {
			t.Fatalf("%s: admin id = %q", tc.name, gotAdminID)
		}
	}
}
