package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movers-api/models"
	"movers-api/session"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeUsers map[uint]*models.User

func (f fakeUsers) UserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, errors.NewNotFound(nil, "user not found")
	}
	return u, nil
}

func TestTokenRoundTrip(t *testing.T) {
	clk := testclock.NewClock(now)
	m := NewTokenManager("secret", 0, clk)

	tok, err := m.Issue(42)
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Add(DefaultTokenTTL), claims.ExpiresAt.Time.UTC())
}

func TestTokenRejectsTamperingAndExpiry(t *testing.T) {
	clk := testclock.NewClock(now)
	m := NewTokenManager("secret", time.Hour, clk)
	tok, err := m.Issue(7)
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", time.Hour, clk).Parse(tok)
	assert.True(t, errors.Is(err, errors.Unauthorized))

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = m.Parse(parts[0] + "." + parts[1] + "." + string(sig))
	assert.True(t, errors.Is(err, errors.Unauthorized))

	clk.Advance(2 * time.Hour)
	_, err = m.Parse(tok)
	assert.True(t, errors.Is(err, errors.Unauthorized))
}

func newAuthRouter(t *testing.T, users fakeUsers, deny session.Denylist, clk *testclock.Clock, gates ...gin.HandlerFunc) (*gin.Engine, *TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager("secret", time.Hour, clk)
	auth := NewAuthenticator(tokens, users, deny)

	r := gin.New()
	chain := append([]gin.HandlerFunc{auth.AuthRequired()}, gates...)
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	r.GET("/me", chain...)
	return r, tokens
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	clk := testclock.NewClock(now)
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleClient, IsActive: true},
		2: {ID: 2, Role: models.RoleClient, IsActive: false},
	}
	deny := session.NewMemoryDenylist(clk)
	r, tokens := newAuthRouter(t, users, deny, clk)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	tok, _ := tokens.Issue(1)
	rec := get(r, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())

	inactive, _ := tokens.Issue(2)
	assert.Equal(t, http.StatusForbidden, get(r, inactive).Code)

	ghost, _ := tokens.Issue(99)
	assert.Equal(t, http.StatusUnauthorized, get(r, ghost).Code)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	require.NoError(t, deny.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	rec = get(r, tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AuthError")
}

func TestRoleGates(t *testing.T) {
	clk := testclock.NewClock(now)
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleClient, IsActive: true},
		2: {ID: 2, Role: models.RoleAdmin, IsApproved: false, IsActive: true},
		3: {ID: 3, Role: models.RoleAdmin, IsApproved: true, IsActive: true},
		4: {ID: 4, Role: models.RoleSuperadmin, IsActive: true},
	}
	admin, tokens := newAuthRouter(t, users, nil, clk, AdminRequired())
	super, _ := newAuthRouter(t, users, nil, clk, SuperadminRequired())

	cases := []struct {
		id           uint
		admin, super int
	}{
		{1, http.StatusForbidden, http.StatusForbidden},
		{2, http.StatusForbidden, http.StatusForbidden},
		{3, http.StatusOK, http.StatusForbidden},
		{4, http.StatusOK, http.StatusOK},
	}
	for _, tc := range cases {
		tok, err := tokens.Issue(tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.admin, get(admin, tok).Code, "admin gate, user %d", tc.id)
		assert.Equal(t, tc.super, get(super, tok).Code, "superadmin gate, user %d", tc.id)
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()
	rl := NewRateLimiter(0.001, 2, log)

	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Len(t, hook.AllEntries(), 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLoggerSetsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, http.StatusNotFound, hook.LastEntry().Data["status"])
}
