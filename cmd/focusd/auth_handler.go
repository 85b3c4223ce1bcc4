package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"focusService/internal/auth"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authRepo auth.AuthRepository
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authRepo auth.AuthRepository) *AuthHandler {
	return &AuthHandler{
		authRepo: authRepo,
	}
}

// RegisterUser registers a VIEWER
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, auth.NewUserFromRequest)
}

// RegisterOwner registers an OWNER.
// WARNING: Development/testing only - disable in production
func (h *AuthHandler) RegisterOwner(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, auth.NewOwnerFromRequest)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, build func(*auth.NewUserRequest) *auth.User) {
	var req auth.NewUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}

	user := build(&req)
	if err := auth.ValidateNewUser(user); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	if err := h.authRepo.CreateUser(r.Context(), user); err != nil {
		log.Printf("Failed to create user: %v", err)
		if errors.Is(err, auth.ErrUserExists) {
			writeErrorResponse(w, http.StatusConflict, "User already exists", err.Error())
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create user", "Internal server error")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Printf("Failed to generate JWT token: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to generate token", "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user": auth.UserRegistrationResponse{
			ID:       *user.ID,
			Username: *user.Username,
			Email:    *user.Email,
			Role:     *user.Role,
		},
		"token": token,
	})
}

// LoginUser handles user authentication
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var creds auth.UserLoginCredentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}

	if strings.TrimSpace(creds.Username) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Validation error", "Username is required")
		return
	}
	if strings.TrimSpace(creds.Password) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Validation error", "Password is required")
		return
	}

	isAuthenticated, err := h.authRepo.AuthenticateUser(r.Context(), &creds)
	if err != nil {
		log.Printf("Authentication error: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Authentication failed", "Internal server error")
		return
	}
	if !isAuthenticated {
		writeErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", "Username or password is incorrect")
		return
	}

	user, err := h.authRepo.GetUserInfo(r.Context(), creds.Username)
	if err != nil {
		log.Printf("Failed to get user info: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get user info", "Internal server error")
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Printf("Failed to generate JWT token: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to generate token", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, auth.UserLoginResponse{Token: token})
}

// GetProfile returns the caller's account
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	_, username, _, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User information not found in context")
		return
	}

	user, err := h.authRepo.GetUserInfo(r.Context(), username)
	if err != nil {
		log.Printf("Failed to get user info: %v", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get user info", "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         *user.ID,
		"username":   *user.Username,
		"email":      *user.Email,
		"role":       *user.Role,
		"created_at": *user.CreatedAt,
	})
}
