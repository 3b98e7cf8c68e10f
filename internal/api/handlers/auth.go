// HTTP handlers for the public register and login endpoints. The domain
// service owns all validation; these handlers translate its errors onto
// status codes and never add rules of their own.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	domainauth "github.com/zerofn/zof/internal/domain/auth"
)

// AuthHandler serves POST /auth/register and POST /auth/login.
type AuthHandler struct {
	auth *domainauth.Service
}

// NewAuthHandler creates an AuthHandler backed by the provided service.
func NewAuthHandler(auth *domainauth.Service) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// credentials is the request body both endpoints share.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is the body returned for a created account.
type RegisterResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LoginResponse carries the Bearer token for subsequent API calls.
type LoginResponse struct {
	Token string `json:"token"`
}

// Register creates an account: 201 with the new user, 409 for a taken
// email, 400 for a malformed email or short password.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), domainauth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, domainauth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, domainauth.ErrEmailInvalid), errors.Is(err, domainauth.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "registration failed")
	default:
		writeJSON(w, http.StatusCreated, RegisterResponse{ID: user.ID, Email: user.Email})
	}
}

// Login exchanges credentials for a token. Wrong password and unknown
// email both come back as the same generic 401, so the endpoint cannot be
// used to probe which emails have accounts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(r.Context(), domainauth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if errors.Is(err, domainauth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}
