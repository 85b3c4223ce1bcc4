package auth

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Roles. Owners drive the timer; viewers are read-only presentation surfaces.
const (
	RoleOwner  = "OWNER"
	RoleViewer = "VIEWER"
)

const (
	newUserRole = RoleViewer
	// JWT expiration time - 24 hours
	jwtExpirationHours = 24
	jwtIssuer          = "focus-service"
)

var (
	secretMu     sync.RWMutex
	jwtSecretKey = os.Getenv("JWT_SECRET")
)

// SetJWTSecret replaces the signing key read from JWT_SECRET.
func SetJWTSecret(secret string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecretKey = secret
}

func signingKey() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	return []byte(jwtSecretKey)
}

// Context keys for storing user information
type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
	roleKey     contextKey = "role"
)

type JWTClaims struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewAuthRepository(conn *pgxpool.Pool) AuthRepository {
	if conn == nil {
		return nil
	}
	return NewPostgresRepository(conn)
}

type User struct {
	ID           *string    `json:"id,omitempty"`
	Username     *string    `json:"username,omitempty"`
	Password     *string    `json:"password,omitempty"`
	PasswordHash *string    `json:"password_hash,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Role         *string    `json:"role,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

type NewUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type UserLoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserLoginResponse struct {
	Token string `json:"token"`
}

type UserRegistrationResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewUserFromRequest creates a new user with the VIEWER role
func NewUserFromRequest(req *NewUserRequest) *User {
	return newUser(req, newUserRole)
}

// NewOwnerFromRequest creates a new user with the OWNER role
func NewOwnerFromRequest(req *NewUserRequest) *User {
	return newUser(req, RoleOwner)
}

func newUser(req *NewUserRequest, role string) *User {
	return &User{
		Username: &req.Username,
		Password: &req.Password,
		Email:    &req.Email,
		Role:     &role,
	}
}

// GenerateJWT generates a JWT token for the given user
func GenerateJWT(user *User) (string, error) {
	if user.ID == nil || user.Username == nil {
		return "", jwt.ErrInvalidKey
	}

	now := time.Now()
	claims := &JWTClaims{
		Username: *user.Username,
		UserID:   *user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpirationHours * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
			Subject:   *user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

// ValidateJWT validates and parses a JWT token
func ValidateJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return signingKey(), nil
	}, jwt.WithIssuer(jwtIssuer))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrInvalidKey
	}

	return claims, nil
}

// GetUserFromContext extracts user information from request context
func GetUserFromContext(ctx context.Context) (userID, username, role string, ok bool) {
	userID, ok1 := ctx.Value(userIDKey).(string)
	username, ok2 := ctx.Value(usernameKey).(string)
	role, ok3 := ctx.Value(roleKey).(string)
	if !ok1 || !ok2 || !ok3 {
		return "", "", "", false
	}
	return userID, username, role, true
}

// RequireRoles creates middleware that authenticates the bearer token and
// admits users holding one of roles. The role is read from the repository,
// not the token, so a demotion takes effect at once.
func RequireRoles(repo AuthRepository, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Extract token from "Bearer <token>" format
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := ValidateJWT(tokenParts[1])
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			user, err := repo.GetUserInfo(r.Context(), claims.Username)
			if err != nil {
				http.Error(w, "Failed to get user information", http.StatusInternalServerError)
				return
			}

			if user.Role == nil || !hasRole(*user.Role, roles) {
				http.Error(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, usernameKey, claims.Username)
			ctx = context.WithValue(ctx, roleKey, *user.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner admits OWNER users only.
func RequireOwner(repo AuthRepository) func(http.Handler) http.Handler {
	return RequireRoles(repo, RoleOwner)
}

// RequireAnyRole admits OWNER and VIEWER users.
func RequireAnyRole(repo AuthRepository) func(http.Handler) http.Handler {
	return RequireRoles(repo, RoleOwner, RoleViewer)
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
