package services

import (
	"context"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"movers-api/metrics"
	"movers-api/models"
	"movers-api/notify"
	"movers-api/session"
	"movers-api/store"
)

const minPasswordLen = 6

// RegisterInput carries the base and role-specific registration fields.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`

	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`

	CompanyName string `json:"company_name"`
	LicenseNo   string `json:"license_no"`

	RegisterID string `json:"register_id"`
}

// ProfileUpdate holds optional profile edits; empty fields are left as is.
type ProfileUpdate struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Pincode     string `json:"pincode"`
	CompanyName string `json:"company_name"`
	LicenseNo   string `json:"license_no"`
	RegisterID  string `json:"register_id"`
}

// UserPayload is a user merged with its role profile.
type UserPayload struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        models.UserRole `json:"role"`
	Phone       string          `json:"phone"`
	IsApproved  bool            `json:"is_approved"`
	IsActive    bool            `json:"is_active"`
	ProfileID   uint            `json:"profile_id,omitempty"`
	Address     string          `json:"address,omitempty"`
	City        string          `json:"city,omitempty"`
	Pincode     string          `json:"pincode,omitempty"`
	CompanyName string          `json:"company_name,omitempty"`
	LicenseNo   string          `json:"license_no,omitempty"`
	RegisterID  string          `json:"register_id,omitempty"`
	Token       string          `json:"token,omitempty"`
	Pending     bool            `json:"pending,omitempty"`
}

type AuthConfig struct {
	FrontendURL string
	BcryptCost  int
}

type AuthService struct {
	store    *store.Store
	tokens   TokenIssuer
	denylist session.Denylist
	notifier notify.Notifier
	log      logrus.FieldLogger
	cfg      AuthConfig
}

func NewAuthService(st *store.Store, tokens TokenIssuer, denylist session.Denylist, notifier notify.Notifier, log logrus.FieldLogger, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{store: st, tokens: tokens, denylist: denylist, notifier: notifier, log: log, cfg: cfg}
}

// Register creates a user and its role profile in one transaction. Admins
// are created unapproved and get no token until a superadmin approves them.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserPayload, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	role := models.UserRole(strings.ToLower(strings.TrimSpace(in.Role)))

	if in.Name == "" || in.Email == "" || in.Password == "" || role == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, errors.NewNotValid(nil, "Please add all required base fields")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, errors.NewNotValid(nil, "Please provide a valid email address")
	}
	if role != models.RoleClient && role != models.RoleProvider && role != models.RoleAdmin {
		return nil, errors.NewNotValid(nil, "Role must be client, provider or admin")
	}
	if len(in.Password) < minPasswordLen {
		return nil, errors.NewNotValid(nil, "Password must be at least 6 characters")
	}

	taken, err := s.store.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.NewAlreadyExists(nil, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, errors.Annotate(err, "hash password")
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		IsApproved:   role != models.RoleAdmin,
		IsActive:     true,
	}
	var payload *UserPayload
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		var err error
		payload, err = createProfile(ctx, tx, user, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	pending := !user.IsApproved
	if pending {
		payload.Pending = true
	} else if payload.Token, err = s.tokens.Issue(user.ID); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	msg, err := notify.Welcome(user.Email, user.Name, string(user.Role), pending, s.cfg.FrontendURL)
	dispatch(s.notifier, s.log, msg, err)
	return payload, nil
}

func createProfile(ctx context.Context, tx *store.Store, user *models.User, in RegisterInput) (*UserPayload, error) {
	switch user.Role {
	case models.RoleClient:
		if in.Address == "" || in.City == "" || in.Pincode == "" {
			return nil, errors.NewNotValid(nil, "Please add address, city, and pincode for client")
		}
		p := &models.ClientProfile{UserID: user.ID, Address: in.Address, City: in.City, Pincode: in.Pincode}
		if err := tx.CreateClientProfile(ctx, p); err != nil {
			return nil, err
		}
		return payloadFor(user, p), nil
	case models.RoleProvider:
		if in.CompanyName == "" || in.LicenseNo == "" {
			return nil, errors.NewNotValid(nil, "Please add company_name and license_no for provider")
		}
		p := &models.ProviderProfile{UserID: user.ID, CompanyName: in.CompanyName, LicenseNo: in.LicenseNo}
		if err := tx.CreateProviderProfile(ctx, p); err != nil {
			return nil, err
		}
		return payloadFor(user, p), nil
	default:
		if in.RegisterID == "" {
			return nil, errors.NewNotValid(nil, "Please add register_id for admin")
		}
		p := &models.AdminProfile{UserID: user.ID, RegisterID: in.RegisterID}
		if err := tx.CreateAdminProfile(ctx, p); err != nil {
			return nil, err
		}
		return payloadFor(user, p), nil
	}
}

// payloadFor merges user with whichever profile is given.
func payloadFor(user *models.User, profile any) *UserPayload {
	p := &UserPayload{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
		IsActive:   user.IsActive,
	}
	switch prof := profile.(type) {
	case *models.ClientProfile:
		p.ProfileID, p.Address, p.City, p.Pincode = prof.ID, prof.Address, prof.City, prof.Pincode
	case *models.ProviderProfile:
		p.ProfileID, p.CompanyName, p.LicenseNo = prof.ID, prof.CompanyName, prof.LicenseNo
	case *models.AdminProfile:
		p.ProfileID, p.RegisterID = prof.ID, prof.RegisterID
	}
	return p
}

// profileOf loads the role profile of user, or nil when it has none.
func (s *AuthService) profileOf(ctx context.Context, user *models.User) (any, error) {
	var (
		profile any
		err     error
	)
	switch user.Role {
	case models.RoleClient:
		profile, err = s.store.ClientProfileByUser(ctx, user.ID)
	case models.RoleProvider:
		profile, err = s.store.ProviderProfileByUser(ctx, user.ID)
	case models.RoleAdmin, models.RoleSuperadmin:
		profile, err = s.store.AdminProfileByUser(ctx, user.ID)
	}
	if errors.Is(err, errors.NotFound) {
		return nil, nil
	}
	return profile, err
}

func (s *AuthService) payload(ctx context.Context, user *models.User) (*UserPayload, error) {
	profile, err := s.profileOf(ctx, user)
	if err != nil {
		return nil, err
	}
	return payloadFor(user, profile), nil
}

// Login checks credentials and returns the merged payload with a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (payload *UserPayload, err error) {
	defer func() { metrics.RecordLogin(err) }()

	user, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return nil, errors.NewUnauthorized(nil, "Invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.NewUnauthorized(nil, "Invalid credentials")
	}
	if user.Role == models.RoleAdmin && !user.IsApproved {
		return nil, errors.NewForbidden(nil, "Your admin account is pending approval")
	}
	if !user.IsActive {
		return nil, errors.NewForbidden(nil, "Your account has been deactivated")
	}

	if payload, err = s.payload(ctx, user); err != nil {
		return nil, err
	}
	if payload.Token, err = s.tokens.Issue(user.ID); err != nil {
		return nil, err
	}
	return payload, nil
}

// Me returns the profile-merged payload of userID.
func (s *AuthService) Me(ctx context.Context, userID uint) (*UserPayload, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.payload(ctx, user)
}

// UpdateProfile edits base and role fields, returning a fresh token.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*UserPayload, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileOf(ctx, user)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		fields := map[string]any{}
		if v := strings.TrimSpace(in.Name); v != "" {
			fields["name"], user.Name = v, v
		}
		if v := strings.TrimSpace(in.Phone); v != "" {
			fields["phone"], user.Phone = v, v
		}
		if len(fields) > 0 {
			if err := tx.UpdateUser(ctx, user.ID, fields); err != nil {
				return err
			}
		}
		if profile == nil {
			return nil
		}
		switch p := profile.(type) {
		case *models.ClientProfile:
			setIf(&p.Address, in.Address)
			setIf(&p.City, in.City)
			setIf(&p.Pincode, in.Pincode)
		case *models.ProviderProfile:
			setIf(&p.CompanyName, in.CompanyName)
			setIf(&p.LicenseNo, in.LicenseNo)
		case *models.AdminProfile:
			setIf(&p.RegisterID, in.RegisterID)
		}
		return tx.SaveProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	payload := payloadFor(user, profile)
	if payload.Token, err = s.tokens.Issue(user.ID); err != nil {
		return nil, err
	}
	return payload, nil
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (s *AuthService) verifyPassword(ctx context.Context, userID uint, password string) (*models.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.NewUnauthorized(nil, "Current password is incorrect")
	}
	return user, nil
}

// ChangePassword replaces the password after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if current == "" || next == "" {
		return errors.NewNotValid(nil, "Please provide current and new password")
	}
	if len(next) < minPasswordLen {
		return errors.NewNotValid(nil, "Password must be at least 6 characters")
	}
	user, err := s.verifyPassword(ctx, userID, current)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cfg.BcryptCost)
	if err != nil {
		return errors.Annotate(err, "hash password")
	}
	return s.store.UpdateUser(ctx, user.ID, map[string]any{"password_hash": string(hash)})
}

// ChangeEmail moves the account to newEmail after re-checking the password.
func (s *AuthService) ChangeEmail(ctx context.Context, userID uint, password, newEmail string) (*UserPayload, error) {
	newEmail = normalizeEmail(newEmail)
	if password == "" || newEmail == "" {
		return nil, errors.NewNotValid(nil, "Please provide password and new email")
	}
	if !strings.Contains(newEmail, "@") {
		return nil, errors.NewNotValid(nil, "Please provide a valid email address")
	}
	user, err := s.verifyPassword(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	taken, err := s.store.EmailTaken(ctx, newEmail, user.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.NewAlreadyExists(nil, "Email is already in use")
	}
	if err := s.store.UpdateUser(ctx, user.ID, map[string]any{"email": newEmail}); err != nil {
		return nil, err
	}
	user.Email = newEmail
	return s.payload(ctx, user)
}

// Logout revokes tokenID until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	return s.denylist.Revoke(ctx, tokenID, expiresAt)
}

// EnsureSuperadmin makes sure an approved superadmin with email exists. An
// existing account is promoted and keeps its password.
func (s *AuthService) EnsureSuperadmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	user, err := s.store.UserByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == models.RoleSuperadmin && user.IsApproved && user.IsActive {
			return nil
		}
		s.log.WithField("user_id", user.ID).Info("promoting bootstrap superadmin")
		return s.store.UpdateUser(ctx, user.ID, map[string]any{
			"role":        models.RoleSuperadmin,
			"is_approved": true,
			"is_active":   true,
		})
	case !errors.Is(err, errors.NotFound):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return errors.Annotate(err, "hash password")
	}
	user = &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleSuperadmin,
		IsApproved:   true,
		IsActive:     true,
	}
	return s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		s.log.WithField("user_id", user.ID).Info("created bootstrap superadmin")
		return tx.CreateAdminProfile(ctx, &models.AdminProfile{UserID: user.ID})
	})
}
