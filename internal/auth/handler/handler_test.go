package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"badgeforge/internal/auth/service"
	lockoutstore "badgeforge/internal/auth/store/lockout"
	sessionstore "badgeforge/internal/auth/store/session"
	jwttoken "badgeforge/internal/jwt_token"
	mwauth "badgeforge/pkg/platform/middleware/auth"
	"badgeforge/pkg/secrets"
)

const (
	testUsername = "admin"
	testPassword = "correct-horse-battery"
)

type AuthHandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *AuthHandlerSuite) SetupTest() {
	hash, err := secrets.Hash(testPassword)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	tokens := jwttoken.NewService("handler-test-signing-key", 24*time.Hour)
	svc, err := service.New(service.Config{
		AdminUsername: testUsername,
		PasswordHash:  hash,
		SessionTTL:    24 * time.Hour,
	}, sessionstore.New(), lockoutstore.New(), tokens, service.WithLogger(logger))
	s.Require().NoError(err)

	h := New(svc, logger, false)
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(pr chi.Router) {
		pr.Use(mwauth.RequireAuth(svc, logger))
		h.RegisterProtected(pr)
	})
	s.router = r
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) postLogin(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *AuthHandlerSuite) loginAndGetCookie() *http.Cookie {
	rec := s.postLogin(`{"username":"admin","password":"correct-horse-battery"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	cookie := findSessionCookie(rec.Result().Cookies())
	s.Require().NotNil(cookie, "login must set the session cookie")
	return cookie
}

func findSessionCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == mwauth.SessionCookieName {
			return c
		}
	}
	return nil
}

func (s *AuthHandlerSuite) TestLoginSetsSessionCookie() {
	rec := s.postLogin(`{"username":"admin","password":"correct-horse-battery"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp LoginResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(testUsername, resp.Username)
	s.False(resp.ExpiresAt.IsZero())

	cookie := findSessionCookie(rec.Result().Cookies())
	s.Require().NotNil(cookie)
	s.NotEmpty(cookie.Value)
	s.True(cookie.HttpOnly)
	s.Equal("/", cookie.Path)
	s.Equal(http.SameSiteLaxMode, cookie.SameSite)
}

func (s *AuthHandlerSuite) TestLoginTrimsUsername() {
	rec := s.postLogin(`{"username":"  admin  ","password":"correct-horse-battery"}`)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *AuthHandlerSuite) TestLoginRejectsBadPassword() {
	rec := s.postLogin(`{"username":"admin","password":"wrong"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("unauthorized", errBody["error"])
	s.Equal("invalid username or password", errBody["error_description"])
	s.Nil(findSessionCookie(rec.Result().Cookies()))
}

func (s *AuthHandlerSuite) TestLoginRejectsMissingFields() {
	for _, body := range []string{
		`{"username":"admin"}`,
		`{"password":"correct-horse-battery"}`,
		`{}`,
	} {
		rec := s.postLogin(body)
		s.Equal(http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func (s *AuthHandlerSuite) TestLoginRejectsMalformedJSON() {
	rec := s.postLogin(`{"username": `)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *AuthHandlerSuite) TestLoginLocksOutAfterRepeatedFailures() {
	for range 4 {
		rec := s.postLogin(`{"username":"admin","password":"wrong"}`)
		s.Equal(http.StatusUnauthorized, rec.Code)
	}

	// The fifth failure crosses the threshold.
	rec := s.postLogin(`{"username":"admin","password":"wrong"}`)
	s.Equal(http.StatusTooManyRequests, rec.Code)

	// Correct credentials are rejected too while the lock holds.
	rec = s.postLogin(`{"username":"admin","password":"correct-horse-battery"}`)
	s.Equal(http.StatusTooManyRequests, rec.Code)

	var errBody map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &errBody))
	s.Equal("account_locked", errBody["error"])
}

func (s *AuthHandlerSuite) TestLogoutClearsCookie() {
	cookie := s.loginAndGetCookie()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	cleared := findSessionCookie(rec.Result().Cookies())
	s.Require().NotNil(cleared, "logout must overwrite the session cookie")
	s.Empty(cleared.Value)
	s.Negative(cleared.MaxAge)
}

func (s *AuthHandlerSuite) TestLogoutInvalidatesSession() {
	cookie := s.loginAndGetCookie()

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusNoContent, rec.Code)

	// The revoked session no longer passes the auth middleware.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AuthHandlerSuite) TestMeReturnsPrincipal() {
	cookie := s.loginAndGetCookie()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	var resp MeResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(testUsername, resp.Username)
	s.False(resp.SessionExpiresAt.IsZero())
}

func (s *AuthHandlerSuite) TestMeRequiresSession() {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *AuthHandlerSuite) TestMeRejectsGarbageToken() {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: mwauth.SessionCookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}
