package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// verifyToken сверяет токен администратора из Authorization: Bearer
// или query-параметра token
func (h *Handler) verifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			// токен не настроен - защищённые маршруты закрыты целиком
			http.Error(w, "admin token is not configured", http.StatusForbidden)
			return
		}

		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" || got == r.Header.Get("Authorization") {
			got = r.URL.Query().Get("token")
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
