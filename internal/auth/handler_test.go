package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/filestorage/filestoragetest"
	"wecare_donations_backend/internal/middleware"
	"wecare_donations_backend/internal/platform/database/dbtest"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

// HandlerTestSuite runs the auth endpoints against an in-memory database.
type HandlerTestSuite struct {
	suite.Suite
	Router    *gin.Engine
	UserSvc   *user.ServiceImplementation
	TokenSvc  shared.TokenService
	Blocklist shared.TokenBlocklist
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{
		JWTSecretKey:          "suite-secret",
		JWTAccessTokenExpiry:  15 * time.Minute,
		JWTRefreshTokenExpiry: 24 * time.Hour,
	}

	db := dbtest.Open(s.T(), &user.User{})
	s.TokenSvc = NewJWTService(cfg, logger)
	s.Blocklist = NewBlocklist(nil)
	s.UserSvc = user.NewService(user.NewGORMRepository(db), s.TokenSvc, filestoragetest.NewMemoryStore(),
		filestorage.ImageRules{MaxCount: 1, MaxBytes: 1 << 20}, logger)

	authMW := middleware.AuthMiddleware(s.TokenSvc, s.Blocklist, logger)
	s.Router = gin.New()
	api := s.Router.Group("/api/v1")
	NewHandler(s.UserSvc, s.TokenSvc, s.Blocklist, logger).RegisterRoutes(api, authMW)
	api.GET("/whoami", authMW, func(c *gin.Context) {
		p, _ := middleware.GetPrincipal(c)
		common.RespondOK(c, "", gin.H{"id": p.UserID, "role": p.Role})
	})
}

func (s *HandlerTestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

type authEnvelope struct {
	Data user.AuthResponse `json:"data"`
}

type tokenEnvelope struct {
	Data shared.TokenResponse `json:"data"`
}

func (s *HandlerTestSuite) register(email, role string) user.AuthResponse {
	w := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
		"phone":    "+15550100",
		"role":     role,
	}, "")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var env authEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func (s *HandlerTestSuite) TestRegister_IssuesUsableTokens() {
	resp := s.register("donor@example.com", "donor")
	s.Equal("donor@example.com", resp.User.Email)
	s.Equal(shared.RoleDonor, resp.User.Role)
	s.Require().NotNil(resp.Token)
	s.Equal("Bearer", resp.Token.TokenType)

	w := s.do(http.MethodGet, "/api/v1/whoami", nil, resp.Token.AccessToken)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), resp.User.ID.String())
}

func (s *HandlerTestSuite) TestRegister_Validation() {
	w := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "x", "email": "not-an-email", "password": "short", "phone": "1", "role": "donor",
	}, "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "VALIDATION_ERROR")

	w = s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Eve", "email": "eve@example.com", "password": "password123", "phone": "1", "role": "admin",
	}, "")
	s.Equal(http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "BAD_REQUEST")
}

func (s *HandlerTestSuite) TestRegister_DuplicateEmail() {
	s.register("dup@example.com", "receiver")
	w := s.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Again", "email": "dup@example.com", "password": "password123", "phone": "1", "role": "donor",
	}, "")
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlerTestSuite) TestLogin() {
	s.register("login@example.com", "receiver")

	w := s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "login@example.com", "password": "password123"}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var env authEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.Equal(shared.RoleReceiver, env.Data.User.Role)
	s.NotEmpty(env.Data.Token.RefreshToken)

	w = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "login@example.com", "password": "wrong-password"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	wrongPassword := w.Body.String()

	w = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "nobody@example.com", "password": "password123"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(wrongPassword, w.Body.String(), "unknown email and wrong password look the same")
}

func (s *HandlerTestSuite) TestRefresh() {
	resp := s.register("refresh@example.com", "donor")

	w := s.do(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": resp.Token.RefreshToken}, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var env tokenEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.NotEmpty(env.Data.AccessToken)
	s.Equal(resp.Token.RefreshToken, env.Data.RefreshToken)

	w = s.do(http.MethodGet, "/api/v1/whoami", nil, env.Data.AccessToken)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": resp.Token.AccessToken}, "")
	s.Equal(http.StatusUnauthorized, w.Code, "access tokens cannot refresh")

	w = s.do(http.MethodGet, "/api/v1/whoami", nil, resp.Token.RefreshToken)
	s.Equal(http.StatusUnauthorized, w.Code, "refresh tokens cannot authenticate requests")
}

func (s *HandlerTestSuite) TestLogout_RevokesBothTokens() {
	resp := s.register("logout@example.com", "receiver")

	w := s.do(http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": resp.Token.RefreshToken}, resp.Token.AccessToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/whoami", nil, resp.Token.AccessToken)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "revoked")

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"refresh_token": resp.Token.RefreshToken}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Contains(w.Body.String(), "revoked")
}

func (s *HandlerTestSuite) TestLogout_WithoutBodyOrToken() {
	resp := s.register("plain@example.com", "donor")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token.AccessToken)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/logout", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}
