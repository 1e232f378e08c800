package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"devicetracker/logger"
	"devicetracker/models"
	"devicetracker/utils"
)

// RequireResetToken guards destructive endpoints with an HS256 bearer token
// carrying the reset scope. An empty secret disables the check.
func RequireResetToken(secret string) func(http.HandlerFunc) http.HandlerFunc {
	key := []byte(secret)
	return func(next http.HandlerFunc) http.HandlerFunc {
		if len(key) == 0 {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			requestID := utils.RequestIDFromContext(r.Context())

			// Authorization 헤더 확인
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         utils.PeerIP(r.RemoteAddr),
				}).Warn("Missing authorization header")

				writeUnauthorized(w, "Authorization header required", nil)
				return
			}

			// Bearer 토큰 추출
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeUnauthorized(w, "Invalid authorization header format", nil)
				return
			}

			// 토큰 검증
			claims, err := utils.ValidateToken(key, strings.TrimSpace(token))
			if err != nil {
				logger.WithFields(map[string]interface{}{
					"request_id": requestID,
					"ip":         utils.PeerIP(r.RemoteAddr),
					"error":      err.Error(),
				}).Warn("Invalid or expired token")

				writeUnauthorized(w, "Invalid or expired token", err)
				return
			}

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"subject":    claims.Subject,
			}).Info("Reset authorized")

			next.ServeHTTP(w, r)
		}
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse(msg, err))
}
