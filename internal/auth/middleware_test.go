package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/session-registration-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, secret string, userID uint, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func serve(handler *AuthHandler, req *http.Request) (*httptest.ResponseRecorder, uint) {
	var seen uint
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(UserIDKey).(uint)
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	handler.SessionMiddleware(next).ServeHTTP(rr, req)
	return rr, seen
}

func TestSessionMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil, nil)

	t.Run("TokenRenewed", func(t *testing.T) {
		// 11 hours left is less than TokenDuration/2
		tokenString := signedToken(t, cfg.JWTSecret, 1, 11*time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})
		rr, userID := serve(handler, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status OK, got %v", rr.Code)
		}
		if userID != 1 {
			t.Errorf("expected user 1 in context, got %d", userID)
		}

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				found = true
				if c.Value == tokenString {
					t.Errorf("expected new token value, but got the old one")
				}
			}
		}
		if !found {
			t.Errorf("expected new auth_token cookie to be set")
		}
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		tokenString := signedToken(t, cfg.JWTSecret, 1, 13*time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})
		rr, userID := serve(handler, req)

		if userID != 1 {
			t.Errorf("expected user 1 in context, got %d", userID)
		}
		for _, c := range rr.Result().Cookies() {
			if c.Name == CookieName {
				t.Errorf("did not expect a new auth_token cookie to be set")
			}
		}
	})
}

func TestSessionMiddleware_PassThrough(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil, nil)

	t.Run("NoCookie", func(t *testing.T) {
		rr, userID := serve(handler, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rr.Code != http.StatusOK || userID != 0 {
			t.Errorf("expected anonymous pass-through, got status %d user %d", rr.Code, userID)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: signedToken(t, "other-secret", 1, time.Hour)})
		_, userID := serve(handler, req)
		if userID != 0 {
			t.Errorf("expected no user for forged token, got %d", userID)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: signedToken(t, cfg.JWTSecret, 1, -time.Hour)})
		_, userID := serve(handler, req)
		if userID != 0 {
			t.Errorf("expected no user for expired token, got %d", userID)
		}
	})
}
