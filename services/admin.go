package services

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"movers-api/analytics"
	"movers-api/models"
	"movers-api/store"
)

// Stats is the dashboard summary for admins.
type Stats struct {
	Users            int64            `json:"users"`
	Clients          int64            `json:"clients"`
	Providers        int64            `json:"providers"`
	Admins           int64            `json:"admins"`
	ServiceRequests  int64            `json:"service_requests"`
	ByStatus         map[string]int64 `json:"by_status"`
	CompletedRevenue float64          `json:"completed_revenue"`
}

type AdminService struct {
	store *store.Store
	clock clock.Clock
	loc   *time.Location
	log   logrus.FieldLogger
}

func NewAdminService(st *store.Store, clk clock.Clock, loc *time.Location, log logrus.FieldLogger) *AdminService {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminService{store: st, clock: clk, loc: loc, log: log}
}

// Performance summarizes completed jobs claimed by the caller, or by
// targetAdminID when the caller is a superadmin.
func (s *AdminService) Performance(ctx context.Context, user *models.User, targetAdminID uint, timeRange string) (*analytics.Report, error) {
	r, err := analytics.ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}
	target := user.ID
	if targetAdminID != 0 && targetAdminID != user.ID {
		if user.Role != models.RoleSuperadmin {
			return nil, errors.NewForbidden(nil, "Only a superadmin can view another admin's performance")
		}
		target = targetAdminID
	}

	now := s.clock.Now()
	w := analytics.WindowFor(r, now, s.loc)
	rows, err := s.store.CompletedClaimedBetween(ctx, target, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	items := make([]analytics.Completion, 0, len(rows))
	for i := range rows {
		items = append(items, analytics.Completion{At: rows[i].UpdatedAt, Amount: rows[i].Price()})
	}
	report := analytics.Summarize(r, now, s.loc, items)
	return &report, nil
}

func (s *AdminService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	r := models.UserRole(role)
	if r != "" && !r.Valid() {
		return nil, errors.NewNotValid(nil, "unknown role "+role)
	}
	return s.store.ListUsers(ctx, r)
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByStatus: make(map[string]int64, len(models.AllStatuses))}
	counts := []struct {
		role models.UserRole
		dst  *int64
	}{
		{"", &st.Users},
		{models.RoleClient, &st.Clients},
		{models.RoleProvider, &st.Providers},
		{models.RoleAdmin, &st.Admins},
	}
	for _, c := range counts {
		n, err := s.store.CountUsers(ctx, c.role)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	for _, status := range models.AllStatuses {
		st.ByStatus[string(status)] = 0
	}
	rows, err := s.store.CountRequestsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		st.ByStatus[string(row.Status)] = row.Count
		st.ServiceRequests += row.Count
	}

	if st.CompletedRevenue, err = s.store.CompletedRevenue(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor *models.User, id uint) error {
	if id == actor.ID {
		return errors.NewNotValid(nil, "You cannot delete your own account")
	}
	target, err := s.store.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == models.RoleSuperadmin {
		return errors.NewForbidden(nil, "Cannot delete a superadmin account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "by": actor.ID}).Info("user deleted")
	return nil
}

func (s *AdminService) PendingAdmins(ctx context.Context) ([]models.User, error) {
	return s.store.PendingAdmins(ctx)
}

func (s *AdminService) ApproveAdmin(ctx context.Context, id uint) error {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return errors.NewNotValid(nil, "User is not an admin")
	}
	if err := s.store.UpdateUser(ctx, id, map[string]any{"is_approved": true}); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("admin approved")
	return nil
}

// ToggleStatus flips the active flag of a non-admin account.
func (s *AdminService) ToggleStatus(ctx context.Context, id uint) (bool, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user.Role == models.RoleAdmin || user.Role == models.RoleSuperadmin {
		return false, errors.NewNotValid(nil, "Cannot deactivate an admin account")
	}
	active := !user.IsActive
	if err := s.store.UpdateUser(ctx, id, map[string]any{"is_active": active}); err != nil {
		return false, err
	}
	return active, nil
}

// UpdateRole changes a user's role. Promotion to an admin role approves the
// account and ensures it has the matching profile.
func (s *AdminService) UpdateRole(ctx context.Context, actor *models.User, id uint, role string) (*models.User, error) {
	r := models.UserRole(role)
	if r != models.RoleClient && r != models.RoleAdmin && r != models.RoleSuperadmin {
		return nil, errors.NewNotValid(nil, "Invalid role")
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleSuperadmin && user.ID != actor.ID {
		return nil, errors.NewForbidden(nil, "Cannot change the role of another superadmin")
	}

	fields := map[string]any{"role": r}
	if r == models.RoleAdmin || r == models.RoleSuperadmin {
		fields["is_approved"] = true
	}
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.UpdateUser(ctx, id, fields); err != nil {
			return err
		}
		if r == models.RoleClient {
			_, err := tx.ClientProfileByUser(ctx, id)
			if errors.Is(err, errors.NotFound) {
				return tx.CreateClientProfile(ctx, &models.ClientProfile{UserID: id})
			}
			return err
		}
		_, err := tx.AdminProfileByUser(ctx, id)
		if errors.Is(err, errors.NotFound) {
			return tx.CreateAdminProfile(ctx, &models.AdminProfile{UserID: id})
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": id, "role": r, "by": actor.ID}).Info("user role updated")
	return s.store.UserByID(ctx, id)
}
