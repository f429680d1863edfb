package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-rentals/auth"
	"github.com/diewo77/go-rentals/internal/apperrors"
	appdb "github.com/diewo77/go-rentals/internal/db"
	"github.com/diewo77/go-rentals/internal/models"
	"github.com/diewo77/go-rentals/internal/notify"
	"github.com/diewo77/go-rentals/validation"
)

const (
	msgInvalidLogin    = "Invalid username or password."
	msgPendingApproval = "Your account is pending admin approval."
	msgUsernameTaken   = "Username already exists."
	msgNoPendingOwners = "No pending owners found."
)

// RegisterInput is the sign-up form. CompanyName is only used for owners.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" validate:"max=32"`
	CompanyName string `json:"company_name" validate:"max=160"`
	Password    string `json:"password" validate:"required,min=4,max=72"`
	Password2   string `json:"password2" validate:"required"`
}

// UserFilter narrows the admin user list.
type UserFilter struct {
	Role     models.Role
	Approved *bool
}

// ApproveResult reports a bulk owner approval.
type ApproveResult struct {
	Approved []models.User
	Warnings []string
}

// AccountService handles sign-up, login and the admin account actions.
type AccountService struct {
	db       *gorm.DB
	notifier notify.Notifier
	cache    Invalidator
	log      logrus.FieldLogger
}

func NewAccountService(db *gorm.DB, notifier notify.Notifier, cache Invalidator, log logrus.FieldLogger) *AccountService {
	return &AccountService{db: db, notifier: notifier, cache: cache, log: log}
}

// Register creates a renter account. The caller logs the user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, models.RoleUser)
}

// RegisterOwner creates a rental company account awaiting admin approval.
func (s *AccountService) RegisterOwner(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.create(ctx, in, models.RoleOwner)
}

func (s *AccountService) create(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	trim(&in.Username, &in.Email, &in.Phone, &in.CompanyName)
	v := validation.Struct(in)
	if !v.Empty() {
		return nil, apperrors.Validation("Please correct the registration form", v)
	}
	validation.Match("password2", in.Password, in.Password2, v)
	if !v.Empty() {
		return nil, apperrors.Validation("Passwords do not match.", v)
	}

	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&n).Error; err != nil {
		return nil, appdb.Classify(err)
	}
	if n > 0 {
		return nil, apperrors.Validation(msgUsernameTaken, map[string]string{"username": "taken"})
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Validation("Password is too long", map[string]string{"password": "out_of_range"})
	}
	u := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if role == models.RoleOwner {
		u.CompanyName = in.CompanyName
	}
	if err := db.Create(u).Error; err != nil {
		if appdb.IsUniqueViolation(err) {
			return nil, apperrors.Validation(msgUsernameTaken, map[string]string{"username": "taken"})
		}
		return nil, appdb.Classify(err)
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": role}).Info("account registered")
	return u, nil
}

// Login checks credentials. Inactive accounts look like bad credentials;
// owners must also be approved.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindUnauthenticated, msgInvalidLogin)
		}
		return nil, appdb.Classify(err)
	}
	if !u.IsActive || !auth.CheckPassword(u.Password, password) {
		return nil, apperrors.New(apperrors.KindUnauthenticated, msgInvalidLogin)
	}
	if u.IsOwner() && !u.IsApproved {
		return nil, apperrors.Forbidden(msgPendingApproval)
	}
	return &u, nil
}

// Get loads an active user by id.
func (s *AccountService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, appdb.Classify(err)
	}
	return &u, nil
}

// ListUsers is the admin user listing.
func (s *AccountService) ListUsers(ctx context.Context, actor *models.User, f UserFilter) ([]models.User, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Administrator access required")
	}
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Approved != nil {
		q = q.Where("is_approved = ?", *f.Approved)
	}
	var users []models.User
	err := q.Order("id ASC").Find(&users).Error
	return users, appdb.Classify(err)
}

// ApproveOwners approves the pending owners among ids and tells them by email.
// When none of the ids is a pending owner the result only carries a warning.
func (s *AccountService) ApproveOwners(ctx context.Context, actor *models.User, ids []uint) (*ApproveResult, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Administrator access required")
	}
	res := &ApproveResult{}
	if len(ids) == 0 {
		res.Warnings = append(res.Warnings, msgNoPendingOwners)
		return res, nil
	}

	db := s.db.WithContext(ctx)
	var owners []models.User
	if err := db.Where("id IN ? AND role = ? AND is_approved = ?", ids, models.RoleOwner, false).
		Order("id ASC").Find(&owners).Error; err != nil {
		return nil, appdb.Classify(err)
	}
	if len(owners) == 0 {
		res.Warnings = append(res.Warnings, msgNoPendingOwners)
		return res, nil
	}

	approved := make([]uint, 0, len(owners))
	for _, o := range owners {
		approved = append(approved, o.ID)
	}
	if err := db.Model(&models.User{}).Where("id IN ?", approved).
		Updates(map[string]any{"is_approved": true, "is_active": true}).Error; err != nil {
		return nil, appdb.Classify(err)
	}
	if s.cache != nil {
		s.cache.Invalidate(approved...)
	}

	for i := range owners {
		o := &owners[i]
		o.IsApproved, o.IsActive = true, true
		if w := deliver(ctx, s.notifier, s.log, notify.TemplateOwnerApproved, o, nil); w != "" {
			res.Warnings = append(res.Warnings, "Email not sent to "+o.Email)
		}
	}
	res.Approved = owners
	s.log.WithFields(logrus.Fields{"count": len(owners), "admin_id": actor.ID}).Info("owners approved")
	return res, nil
}
