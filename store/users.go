package store

import (
	"context"

	"github.com/juju/errors"

	"movers-api/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error, "user")
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

// EmailTaken reports whether a user other than exceptID owns email.
func (s *Store) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND id <> ?", email, exceptID).
		Count(&n).Error
	return n > 0, errors.Annotate(err, "count users by email")
}

// UpdateUser writes the given columns of user id.
func (s *Store) UpdateUser(ctx context.Context, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFound(nil, "user not found")
	}
	return nil
}

// DeleteUser removes the user and all of its profiles.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		db := tx.db
		for _, profile := range []any{&models.ClientProfile{}, &models.ProviderProfile{}, &models.AdminProfile{}} {
			if err := db.Where("user_id = ?", id).Delete(profile).Error; err != nil {
				return errors.Annotate(err, "delete profile")
			}
		}
		res := db.Delete(&models.User{}, id)
		if res.Error != nil {
			return errors.Annotate(res.Error, "delete user")
		}
		if res.RowsAffected == 0 {
			return errors.NewNotFound(nil, "user not found")
		}
		return nil
	})
}

// ListUsers returns users newest first, optionally narrowed to one role.
func (s *Store) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("created_at desc, id desc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, errors.Annotate(err, "list users")
	}
	return users, nil
}

func (s *Store) PendingAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role IN ? AND is_approved = ?", []models.UserRole{models.RoleAdmin, models.RoleSuperadmin}, false).
		Order("created_at desc, id desc").
		Find(&users).Error
	return users, errors.Annotate(err, "list pending admins")
}

func (s *Store) CountUsers(ctx context.Context, role models.UserRole) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var n int64
	return n, errors.Annotate(q.Count(&n).Error, "count users")
}

func (s *Store) CreateClientProfile(ctx context.Context, p *models.ClientProfile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "client profile")
}

func (s *Store) CreateProviderProfile(ctx context.Context, p *models.ProviderProfile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "provider profile")
}

func (s *Store) CreateAdminProfile(ctx context.Context, p *models.AdminProfile) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "admin profile")
}

func (s *Store) ClientProfileByUser(ctx context.Context, userID uint) (*models.ClientProfile, error) {
	var p models.ClientProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err, "client profile")
	}
	return &p, nil
}

func (s *Store) ProviderProfileByUser(ctx context.Context, userID uint) (*models.ProviderProfile, error) {
	var p models.ProviderProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err, "provider profile")
	}
	return &p, nil
}

func (s *Store) AdminProfileByUser(ctx context.Context, userID uint) (*models.AdminProfile, error) {
	var p models.AdminProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err, "admin profile")
	}
	return &p, nil
}

// SaveProfile updates an existing profile row of any kind.
func (s *Store) SaveProfile(ctx context.Context, profile any) error {
	return translate(s.db.WithContext(ctx).Save(profile).Error, "profile")
}
