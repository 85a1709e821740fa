package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mintylist/backend/internal/docstore"
	"mintylist/backend/internal/identity"
	"mintylist/backend/internal/models"
	"mintylist/backend/internal/notes"
	"mintylist/backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

// mockVerifier is a configurable TokenVerifier.
type mockVerifier struct {
	user *models.User
	err  error
	got  string
}

func (m *mockVerifier) VerifyToken(_ context.Context, token string) (*models.User, error) {
	m.got = token
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

// =============================================================================
// extractBearerToken Tests
// =============================================================================

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing", "", ""},
		{"no scheme", "abc123", ""},
		{"basic auth", "Basic abc123", ""},
		{"empty bearer", "Bearer ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			assert.Equal(t, tt.want, extractBearerToken(c))
		})
	}
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func apiRouter(v TokenVerifier) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		u := ForContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	return r
}

func TestAuthMiddleware_ValidTokenSetsUser(t *testing.T) {
	v := &mockVerifier{user: &models.User{ID: "u1"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer tok")

	apiRouter(v).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1"}`, w.Body.String())
	assert.Equal(t, "tok", v.got)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
	}{
		{"missing header", "", nil},
		{"not bearer", "Basic abc", nil},
		{"invalid token", "Bearer bad", errors.New("expired")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &mockVerifier{user: &models.User{ID: "u1"}, err: tt.err}
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			apiRouter(v).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

// =============================================================================
// Session Middleware Tests
// =============================================================================

func sessionRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	provider := identity.NewMemory(identity.WithHashCost(bcrypt.MinCost))
	_, err := provider.SignUp(context.Background(), "ann@example.com", "hunter22", "Ann")
	require.NoError(t, err)
	m := session.NewManager(provider, notes.NewService(docstore.NewMemory()), session.NewMemoryStore(), []byte("k"), time.Hour)
	t.Cleanup(m.Close)

	r := gin.New()
	r.Use(SessionMiddleware(m, time.Hour, false))
	r.POST("/login", func(c *gin.Context) {
		_, err := CurrentSession(c).Auth.SignIn(c.Request.Context(), "ann@example.com", "hunter22")
		require.NoError(t, err)
		c.Status(http.StatusNoContent)
	})
	r.GET("/notes", RequireSignedIn(), func(c *gin.Context) {
		s := CurrentSession(c)
		c.String(http.StatusOK, "%s %t", s.Auth.CurrentUser().Email, s.View.Authenticated())
	})
	return r, m
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookie {
			return ck
		}
	}
	t.Fatalf("no %s cookie set", SessionCookie)
	return nil
}

func TestSessionMiddleware_SetsHTTPOnlyCookie(t *testing.T) {
	r, m := sessionRouter(t)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest("GET", "/notes", nil))

	ck := sessionCookie(t, w)
	assert.True(t, ck.HttpOnly)
	assert.NotEmpty(t, ck.Value)
	assert.Equal(t, 1, m.Len())
}

func TestRequireSignedIn_RedirectsUntilSignedIn(t *testing.T) {
	r, _ := sessionRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/notes", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	ck := sessionCookie(t, w)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/login", nil)
	req.AddCookie(ck)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/notes", nil)
	req.AddCookie(ck)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	// the notes view is caught up before the handler runs
	assert.Equal(t, "ann@example.com true", w.Body.String())
}
