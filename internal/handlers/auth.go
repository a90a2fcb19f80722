package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"

	"github.com/complium/asset-inventory/internal/repo"
)

// AuthHandler issues JWTs for API access. Identity management proper lives
// outside this service; this is just enough account surface to protect the
// inventory routes.
type AuthHandler struct {
	UserRepo    *repo.UserRepo
	Secret      []byte
	ExpireHours int
}

// Register creates an account. Idempotent: when the username exists, the
// existing account is returned with 200.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Username == "" {
		JSONError(w, "username is required", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.Create(input.Username, input.Password)
	if err != nil {
		if e, ok := err.(*pq.Error); ok && e.Code == "23505" {
			existing, getErr := h.UserRepo.GetByUsername(input.Username)
			if getErr != nil {
				JSONError(w, "failed to create user", http.StatusInternalServerError)
				return
			}
			JSON(w, existing, http.StatusOK)
			return
		}
		slog.Error("register failed", "username", input.Username, "error", err)
		JSONError(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	JSON(w, user, http.StatusOK)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByUsername(input.Username)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !h.UserRepo.VerifyPassword(user, input.Password) {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	expire := h.ExpireHours
	if expire <= 0 {
		expire = 24
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(time.Duration(expire) * time.Hour).Unix(),
	})
	signed, err := token.SignedString(h.Secret)
	if err != nil {
		slog.Error("token signing failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, map[string]string{"token": signed}, http.StatusOK)
}
