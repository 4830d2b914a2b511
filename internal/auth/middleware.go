package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// SessionMiddleware resolves the caller from the X-API-KEY header or the
// session cookie and stores the user ID in the request context. Requests
// without valid credentials pass through unchanged; operations decide for
// themselves whether authentication is required.
func (h *AuthHandler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-KEY"); apiKey != "" && h.db != nil {
			if userID, err := h.LookupAPIKey(r.Context(), apiKey); err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, userID)))
				return
			}
		}

		cookie, err := r.Cookie(CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, expiresAt, err := h.ParseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		// Sliding session: refresh token if it's more than halfway through its duration
		if !expiresAt.IsZero() && time.Until(expiresAt) < TokenDuration/2 {
			newToken, err := h.GenerateToken(userID)
			if err == nil {
				http.SetCookie(w, h.sessionCookie(newToken))
			} else {
				log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to refresh session token")
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, userID)))
	})
}
