package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/middleware"
	"minimal-blog/internal/service"
)

type mockAuthenticator struct{ mock.Mock }

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	session, _ := args.Get(0).(*domain.Session)
	return session, args.Error(1)
}

func newAuthRouter(authn middleware.Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/dashboard", middleware.Auth(authn), func(c *gin.Context) {
		session, ok := middleware.CurrentSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": session.UserID, "ctx_user": c.GetUint(middleware.ContextUserID)})
	})
	return r
}

func TestAuth_BearerToken(t *testing.T) {
	authn := new(mockAuthenticator)
	authn.On("Authenticate", mock.Anything, "tok").Return(&domain.Session{ID: "s1", UserID: 7}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	newAuthRouter(authn).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"ctx_user":7}`, w.Body.String())
	authn.AssertExpectations(t)
}

func TestAuth_SessionCookie(t *testing.T) {
	authn := new(mockAuthenticator)
	authn.On("Authenticate", mock.Anything, "cookie-tok").Return(&domain.Session{ID: "s1", UserID: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "cookie-tok"})
	w := httptest.NewRecorder()
	newAuthRouter(authn).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	authn.AssertExpectations(t)
}

func TestAuth_AnonymousJSONGets401(t *testing.T) {
	authn := new(mockAuthenticator)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	newAuthRouter(authn).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	authn.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestAuth_AnonymousBrowserRedirectedToLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	newAuthRouter(new(mockAuthenticator)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAuth_MalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	newAuthRouter(new(mockAuthenticator)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid token", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"expired session", service.ErrSessionExpired, http.StatusUnauthorized},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authn := new(mockAuthenticator)
			authn.On("Authenticate", mock.Anything, "tok").Return(nil, tc.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			req.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()
			newAuthRouter(authn).ServeHTTP(w, req)

			require.Equal(t, tc.code, w.Code)
		})
	}
}

func TestWantsHTML(t *testing.T) {
	cases := map[string]bool{
		"":                                false,
		"application/json":                false,
		"text/html":                       true,
		"text/html,application/json":      false,
		"text/html,application/xhtml+xml": true,
		"*/*":                             false,
	}
	for accept, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Accept", accept)
		assert.Equal(t, want, middleware.WantsHTML(c), "Accept: %q", accept)
	}
}

func TestAuth_PanicsOnNilAuthenticator(t *testing.T) {
	assert.Panics(t, func() { middleware.Auth(nil) })
}
