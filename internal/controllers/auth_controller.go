package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
	"golang.org/x/crypto/bcrypt"
)

// apiKeyUser is the username recorded for requests authenticated by X-API-Key.
const apiKeyUser = "api"

// AuthController guards routes with a single shared secret. PasswordHash is a
// bcrypt hash; when it is empty every request is let through.
type AuthController struct {
	PasswordHash string
}

func NewAuthController(passwordHash string) *AuthController {
	return &AuthController{PasswordHash: passwordHash}
}

func (a *AuthController) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.PasswordHash == "" {
			next(w, r)
			return
		}
		// 1) HTTP basic auth, any username
		if username, password, ok := r.BasicAuth(); ok {
			if a.matches(password) {
				next(w, r.WithContext(context.WithValue(r.Context(), core.CtxKeyUsername, username)))
				return
			}
			slog.WarnContext(r.Context(), "Rejected basic auth", "username", username, "path", r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		// 2) X-API-Key: <secret>
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			if a.matches(apiKey) {
				next(w, r.WithContext(context.WithValue(r.Context(), core.CtxKeyUsername, apiKeyUser)))
				return
			}
			slog.WarnContext(r.Context(), "Rejected API key", "path", r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="taskflow"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
}

func (a *AuthController) matches(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(secret)) == nil
}

// HashPassword returns the bcrypt hash to configure as TASKFLOW_API_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
