package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	users map[string]*User
}

func (f *fakeRepo) CreateUser(_ context.Context, user *User) error {
	if _, ok := f.users[*user.Username]; ok {
		return ErrUserExists
	}
	f.users[*user.Username] = user
	return nil
}

func (f *fakeRepo) AuthenticateUser(_ context.Context, cred *UserLoginCredentials) (bool, error) {
	_, ok := f.users[cred.Username]
	return ok, nil
}

func (f *fakeRepo) GetUserInfo(_ context.Context, username string) (*User, error) {
	u, ok := f.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func withSecret(t *testing.T, secret string) {
	t.Helper()
	secretMu.RLock()
	previous := jwtSecretKey
	secretMu.RUnlock()
	SetJWTSecret(secret)
	t.Cleanup(func() { SetJWTSecret(previous) })
}

func testUser(id, name, role string) *User {
	return &User{ID: &id, Username: &name, Role: &role}
}

func TestJWTRoundTrip(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateJWT(testUser("u-1", "ada", RoleOwner))
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, jwtIssuer, claims.Issuer)

	SetJWTSecret("rotated")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestGenerateJWTRequiresIdentity(t *testing.T) {
	_, err := GenerateJWT(&User{})
	assert.Error(t, err)
}

func TestValidateNewUser(t *testing.T) {
	s := func(v string) *string { return &v }
	tests := []struct {
		name string
		user *User
		ok   bool
	}{
		{"valid", &User{Username: s("ada"), Password: s("pw"), Email: s("ada@example.com"), Role: s(RoleViewer)}, true},
		{"no username", &User{Username: s(" "), Password: s("pw"), Email: s("ada@example.com"), Role: s(RoleViewer)}, false},
		{"no password", &User{Username: s("ada"), Email: s("ada@example.com"), Role: s(RoleViewer)}, false},
		{"bad email", &User{Username: s("ada"), Password: s("pw"), Email: s("ada@"), Role: s(RoleViewer)}, false},
		{"unknown role", &User{Username: s("ada"), Password: s("pw"), Email: s("ada@example.com"), Role: s("ADMIN")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNewUser(tt.user)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	withSecret(t, "middleware-secret")
	repo := &fakeRepo{users: map[string]*User{
		"owner":  testUser("1", "owner", RoleOwner),
		"viewer": testUser("2", "viewer", RoleViewer),
	}}

	ownerToken, err := GenerateJWT(repo.users["owner"])
	require.NoError(t, err)
	viewerToken, err := GenerateJWT(repo.users["viewer"])
	require.NoError(t, err)
	ghostToken, err := GenerateJWT(testUser("3", "ghost", RoleOwner))
	require.NoError(t, err)

	var seenRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, role, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		seenRole = role
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		mw     func(http.Handler) http.Handler
		header string
		want   int
		role   string
	}{
		{"owner on owner route", RequireOwner(repo), "Bearer " + ownerToken, http.StatusNoContent, RoleOwner},
		{"viewer on owner route", RequireOwner(repo), "Bearer " + viewerToken, http.StatusForbidden, ""},
		{"viewer on read route", RequireAnyRole(repo), "Bearer " + viewerToken, http.StatusNoContent, RoleViewer},
		{"missing header", RequireAnyRole(repo), "", http.StatusUnauthorized, ""},
		{"wrong scheme", RequireAnyRole(repo), "Token " + ownerToken, http.StatusUnauthorized, ""},
		{"garbage token", RequireAnyRole(repo), "Bearer nope", http.StatusUnauthorized, ""},
		{"deleted user", RequireAnyRole(repo), "Bearer " + ghostToken, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenRole = ""
			req := httptest.NewRequest(http.MethodGet, "/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.mw(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.role, seenRole)
		})
	}
}

func TestGetUserFromContextEmpty(t *testing.T) {
	_, _, _, ok := GetUserFromContext(context.Background())
	assert.False(t, ok)
}

func TestNewAuthRepositoryNilConn(t *testing.T) {
	assert.Nil(t, NewAuthRepository(nil))
}
