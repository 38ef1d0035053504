package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"movers-api/middleware"
	"movers-api/models"
	"movers-api/notify"
	"movers-api/session"
	"movers-api/store"
	"movers-api/store/storetest"
)

// Tuesday 10 March 2026, mid-morning UTC.
var epoch = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type env struct {
	store    *store.Store
	clock    *testclock.Clock
	tokens   *middleware.TokenManager
	notes    *notify.Recorder
	deny     *session.MemoryDenylist
	auth     *AuthService
	requests *RequestService
	admin    *AdminService
	reviews  *ReviewService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	clk := testclock.NewClock(epoch)
	st := store.New(storetest.Open(t, clk))
	log, _ := test.NewNullLogger()
	e := &env{
		store:  st,
		clock:  clk,
		tokens: middleware.NewTokenManager("test-secret", 0, clk),
		notes:  &notify.Recorder{},
		deny:   session.NewMemoryDenylist(clk),
	}
	e.auth = NewAuthService(st, e.tokens, e.deny, e.notes, log, AuthConfig{FrontendURL: "http://app", BcryptCost: bcrypt.MinCost})
	e.requests = NewRequestService(st, e.notes, clk, log, "http://app")
	e.admin = NewAdminService(st, clk, time.UTC, log)
	e.reviews = NewReviewService(st)
	return e
}

func (e *env) register(t *testing.T, role models.UserRole, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := e.auth.Register(ctx, RegisterInput{
		Name:        "User " + email,
		Email:       email,
		Password:    "secret123",
		Role:        string(role),
		Phone:       "9999999999",
		Address:     "12 MG Road",
		City:        "Pune",
		Pincode:     "411001",
		CompanyName: "Acme Movers",
		LicenseNo:   "LIC-1",
		RegisterID:  "REG-1",
	})
	require.NoError(t, err)
	user, err := e.store.UserByEmail(ctx, email)
	require.NoError(t, err)
	return user
}

func (e *env) client(t *testing.T, name string) *models.User {
	return e.register(t, models.RoleClient, name+"@example.com")
}

// approvedAdmin registers an admin and approves it.
func (e *env) approvedAdmin(t *testing.T, name string) *models.User {
	t.Helper()
	u := e.register(t, models.RoleAdmin, name+"@example.com")
	require.NoError(t, e.admin.ApproveAdmin(context.Background(), u.ID))
	u.IsApproved = true
	return u
}

func (e *env) superadmin(t *testing.T) *models.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.auth.EnsureSuperadmin(ctx, "Root", "root@example.com", "rootpass"))
	u, err := e.store.UserByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	return u
}

func (e *env) book(t *testing.T, client *models.User, price float64) *models.ServiceRequest {
	t.Helper()
	req, err := e.requests.Create(context.Background(), client, CreateRequestInput{
		PickupLocation:  "Pune",
		DropoffLocation: "Mumbai",
		MovingDate:      "2026-03-20",
		ServiceType:     "home",
		EstimatedPrice:  &price,
	})
	require.NoError(t, err)
	return req
}

func (e *env) setStatus(t *testing.T, user *models.User, id uint, status models.RequestStatus) {
	t.Helper()
	_, err := e.requests.UpdateStatus(context.Background(), user, id, UpdateStatusInput{Status: status})
	require.NoError(t, err, fmt.Sprintf("set %s", status))
}
