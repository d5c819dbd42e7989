package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/config"
	"github.com/leadgridhq/leadgrid/pkg/auth"
	"github.com/leadgridhq/leadgrid/pkg/cache"
	"github.com/leadgridhq/leadgrid/pkg/metrics"
	"github.com/leadgridhq/leadgrid/pkg/models"
	"github.com/leadgridhq/leadgrid/pkg/users"
)

type fakeUserStore struct {
	users []*models.User
}

func (s *fakeUserStore) Insert(_ context.Context, user *models.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return users.ErrDuplicateEmail
		}
	}
	user.ID = bson.NewObjectID()
	s.users = append(s.users, user)
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func newAuthTestHandler(t *testing.T) (*AuthHandler, *fakeUserStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	store := &fakeUserStore{}
	cfg := &config.Config{
		APIEnvironment:     "test",
		JWTSecret:          "test-secret",
		JWTExpirationHours: 1,
	}
	blacklist := auth.NewTokenBlacklist(&cache.Client{Redis: redisClient})
	m := metrics.NewWith(prometheus.NewRegistry())

	return NewAuthHandler(users.NewService(store), cfg, blacklist, m), store
}

func newAuthContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	h, store := newAuthTestHandler(t)

	body := `{"email":"Jane@Example.com","password":"supersecret","firstName":"Jane","lastName":"Doe"}`
	c, rec := newAuthContext(http.MethodPost, "/api/auth/register", body)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.Equal(t, "jane@example.com", resp.User.Email)

	cookie := sessionCookieFrom(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, 3600, cookie.MaxAge)

	require.Len(t, store.users, 1)
	assert.NotEqual(t, "supersecret", store.users[0].PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	body := `{"email":"jane@example.com","password":"supersecret","firstName":"Jane","lastName":"Doe"}`
	c, _ := newAuthContext(http.MethodPost, "/api/auth/register", body)
	require.NoError(t, h.Register(c))

	c2, rec2 := newAuthContext(http.MethodPost, "/api/auth/register", body)
	require.NoError(t, h.Register(c2))
	assert.Equal(t, http.StatusBadRequest, rec2.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.Equal(t, "User already exists with this email", resp.Message)
}

func TestRegisterShortPassword(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	body := `{"email":"jane@example.com","password":"short","firstName":"Jane","lastName":"Doe"}`
	c, rec := newAuthContext(http.MethodPost, "/api/auth/register", body)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Message)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "password", resp.Errors[0].Field)
}

func TestLogin(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	register := `{"email":"jane@example.com","password":"supersecret","firstName":"Jane","lastName":"Doe"}`
	c, _ := newAuthContext(http.MethodPost, "/api/auth/register", register)
	require.NoError(t, h.Register(c))

	c2, rec2 := newAuthContext(http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"supersecret"}`)
	require.NoError(t, h.Login(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp.Message)
	assert.NotEmpty(t, sessionCookieFrom(t, rec2).Value)
}

func TestLoginWrongPassword(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	register := `{"email":"jane@example.com","password":"supersecret","firstName":"Jane","lastName":"Doe"}`
	c, _ := newAuthContext(http.MethodPost, "/api/auth/register", register)
	require.NoError(t, h.Register(c))

	c2, rec2 := newAuthContext(http.MethodPost, "/api/auth/login",
		`{"email":"jane@example.com","password":"wrong-password"}`)
	require.NoError(t, h.Login(c2))
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)

	// unknown email reads exactly the same as a wrong password
	c3, rec3 := newAuthContext(http.MethodPost, "/api/auth/login",
		`{"email":"nobody@example.com","password":"supersecret"}`)
	require.NoError(t, h.Login(c3))
	assert.Equal(t, http.StatusUnauthorized, rec3.Code)
	assert.JSONEq(t, rec2.Body.String(), rec3.Body.String())
}

func TestLogoutRevokesToken(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	register := `{"email":"jane@example.com","password":"supersecret","firstName":"Jane","lastName":"Doe"}`
	c, rec := newAuthContext(http.MethodPost, "/api/auth/register", register)
	require.NoError(t, h.Register(c))
	token := sessionCookieFrom(t, rec).Value

	c2, rec2 := newAuthContext(http.MethodPost, "/api/auth/logout", "")
	c2.Request().AddCookie(&http.Cookie{Name: "token", Value: token})
	require.NoError(t, h.Logout(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)

	cleared := sessionCookieFrom(t, rec2)
	assert.Less(t, cleared.MaxAge, 0)

	revoked, err := h.blacklist.IsBlacklisted(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestLogoutWithoutTokenStillSucceeds(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	c, rec := newAuthContext(http.MethodPost, "/api/auth/logout", "")
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Logout successful", resp.Message)
}

func TestMe(t *testing.T) {
	h, store := newAuthTestHandler(t)

	register := `{"email":"jane@example.com","password":"supersecret","firstName":"Jane","lastName":"Doe"}`
	c, _ := newAuthContext(http.MethodPost, "/api/auth/register", register)
	require.NoError(t, h.Register(c))

	c2, rec2 := newAuthContext(http.MethodGet, "/api/auth/me", "")
	c2.Set("user_id", store.users[0].ID.Hex())
	require.NoError(t, h.Me(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)

	var resp map[string]models.UserInfo
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.Equal(t, "jane@example.com", resp["user"].Email)
	assert.Equal(t, "Jane", resp["user"].FirstName)
}
