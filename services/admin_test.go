package services

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movers-api/models"
)

func TestStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	client := e.client(t, "c")
	admin := e.approvedAdmin(t, "a")
	e.register(t, models.RoleProvider, "p@example.com")

	done := e.book(t, client, 3000)
	e.book(t, client, 500)
	_, err := e.requests.Claim(ctx, admin, done.ID)
	require.NoError(t, err)
	e.setStatus(t, admin, done.ID, models.StatusCompleted)

	st, err := e.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Users)
	assert.Equal(t, int64(1), st.Clients)
	assert.Equal(t, int64(1), st.Providers)
	assert.Equal(t, int64(1), st.Admins)
	assert.Equal(t, int64(2), st.ServiceRequests)
	assert.Equal(t, int64(1), st.ByStatus["completed"])
	assert.Equal(t, int64(1), st.ByStatus["pending"])
	assert.Equal(t, int64(0), st.ByStatus["cancelled"])
	assert.Equal(t, 3000.0, st.CompletedRevenue)
}

func TestUserAdministration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	root := e.superadmin(t)
	client := e.client(t, "c")
	pending := e.register(t, models.RoleAdmin, "pending@example.com")

	list, err := e.admin.PendingAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	err = e.admin.ApproveAdmin(ctx, client.ID)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	_, err = e.admin.ToggleStatus(ctx, pending.ID)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	users, err := e.admin.ListUsers(ctx, "client")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	_, err = e.admin.ListUsers(ctx, "driver")
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	promoted, err := e.admin.UpdateRole(ctx, root, client.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)
	assert.True(t, promoted.IsApproved)
	_, err = e.store.AdminProfileByUser(ctx, client.ID)
	assert.NoError(t, err)

	_, err = e.admin.UpdateRole(ctx, root, client.ID, "provider")
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)

	other, err := e.admin.UpdateRole(ctx, root, pending.ID, "superadmin")
	require.NoError(t, err)
	_, err = e.admin.UpdateRole(ctx, root, other.ID, "client")
	assert.True(t, errors.Is(err, errors.Forbidden), "got %v", err)

	err = e.admin.DeleteUser(ctx, root, root.ID)
	assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
	err = e.admin.DeleteUser(ctx, root, other.ID)
	assert.True(t, errors.Is(err, errors.Forbidden), "got %v", err)

	require.NoError(t, e.admin.DeleteUser(ctx, root, client.ID))
	_, err = e.store.UserByID(ctx, client.ID)
	assert.True(t, errors.Is(err, errors.NotFound), "got %v", err)
}
