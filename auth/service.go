package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"gorm.io/gorm"
)

const (
	defaultAttemptLimit = 50
	maxAttemptLimit     = 100
)

// RequestMeta identifies the client behind a call for auditing.
type RequestMeta struct {
	ActorID   uint
	IPAddress string
	UserAgent string
	RequestID string
}

type LoginInput struct {
	Username string
	Password string
	RequestMeta
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	RoleID   uint
	RequestMeta
}

type UpdateUserInput struct {
	Username string
	Email    string
	RoleID   uint
	RequestMeta
}

// LoginAttemptFilter narrows the audit listing. Limit is clamped to 1..100.
type LoginAttemptFilter struct {
	UserID *uint
	Limit  int
}

// ServiceOptions wires a Service. Only DB is required.
type ServiceOptions struct {
	DB       *gorm.DB
	Hasher   *util.PasswordHasher
	Auditor  LoginAuditor
	Security *util.SecurityLogger
	Metrics  *Metrics
}

// Service implements authentication, registration and account management
// over the credential store.
type Service struct {
	db       *gorm.DB
	hasher   *util.PasswordHasher
	auditor  LoginAuditor
	security *util.SecurityLogger
	metrics  *Metrics
}

func NewService(opts ServiceOptions) *Service {
	hasher := opts.Hasher
	if hasher == nil {
		hasher = util.NewPasswordHasher(0)
	}
	auditor := opts.Auditor
	if auditor == nil {
		auditor = NewGormAuditor(opts.DB, nil)
	}
	return &Service{
		db:       opts.DB,
		hasher:   hasher,
		auditor:  auditor,
		security: opts.Security,
		metrics:  opts.Metrics,
	}
}

// Authenticate returns the matching user, or nil when the credentials are
// wrong. Errors are reserved for store failures. Every attempt against an
// existing username writes exactly one login attempt before returning.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (*model.User, error) {
	params := util.LoginParams{
		Username:  in.Username,
		IP:        in.IPAddress,
		UserAgent: in.UserAgent,
		RequestID: in.RequestID,
	}

	var user model.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("LOWER(username) = LOWER(?)", in.Username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No user to attach an attempt to.
		s.metrics.observeLogin(resultUnknownUser)
		params.Reason = "unknown user"
		s.security.LogLoginFailure(ctx, params)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	params.UserID = user.ID
	event := LoginEvent{
		User:      &user,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		RequestID: in.RequestID,
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		event.FailureReason = FailureInvalidPassword
		if _, err := s.auditor.Record(ctx, event); err != nil {
			return nil, fmt.Errorf("record login attempt: %w", err)
		}
		s.metrics.observeLogin(resultInvalidPassword)
		params.Reason = FailureInvalidPassword
		s.security.LogLoginFailure(ctx, params)
		return nil, nil
	}

	event.Successful = true
	if _, err := s.auditor.Record(ctx, event); err != nil {
		return nil, fmt.Errorf("record login attempt: %w", err)
	}
	s.metrics.observeLogin(resultSuccess)
	params.Username = user.Username
	s.security.LogLoginSuccess(ctx, params)

	return &user, nil
}

// Register creates a user and its registration note in one transaction.
// It returns ErrRoleNotFound for an unknown role and (nil, nil) when the
// username or email is already in use.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	role, err := s.findRole(ctx, in.RoleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			s.metrics.observeRegistration(resultRoleNotFound)
		}
		return nil, err
	}

	taken, err := s.identityTaken(ctx, in.Username, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.observeRegistration(resultDuplicate)
		return nil, nil
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       role.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		note := fmt.Sprintf("new user registered: %s", user.Username)
		return tx.Create(&model.Activity{Note: &note, UserID: user.ID}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.metrics.observeRegistration(resultDuplicate)
			return nil, ErrIdentityTaken
		}
		s.metrics.observeRegistration(resultError)
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Role = *role
	s.metrics.observeRegistration(resultCreated)

	s.security.Log(ctx, util.SecurityEvent{
		EventType: util.EventUserRegistered,
		UserID:    user.ID,
		Username:  user.Username,
		IP:        in.IPAddress,
		UserAgent: in.UserAgent,
		RequestID: in.RequestID,
		Message:   fmt.Sprintf("Zarejestrowano użytkownika %s", user.Username),
		Details:   map[string]interface{}{"role": role.Name, "actor_id": in.ActorID},
	})

	return &user, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Preload("Role").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// UpdateUser changes username, email and role of an existing user.
func (s *Service) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.findRole(ctx, in.RoleID)
	if err != nil {
		return nil, err
	}

	taken, err := s.identityTaken(ctx, in.Username, in.Email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrIdentityTaken
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"username": in.Username,
		"email":    in.Email,
		"role_id":  role.ID,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrIdentityTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	user.Username = in.Username
	user.Email = in.Email
	user.RoleID = role.ID
	user.Role = *role

	s.security.Log(ctx, util.SecurityEvent{
		EventType: util.EventUserUpdated,
		UserID:    user.ID,
		Username:  user.Username,
		IP:        in.IPAddress,
		UserAgent: in.UserAgent,
		RequestID: in.RequestID,
		Message:   fmt.Sprintf("User %d updated", user.ID),
		Details:   map[string]interface{}{"role": role.Name, "actor_id": in.ActorID},
	})

	return user, nil
}

// ChangePassword replaces the password of user id after checking current.
func (s *Service) ChangePassword(ctx context.Context, id uint, current, next string, meta RequestMeta) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return ErrInvalidPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.security.Log(ctx, util.SecurityEvent{
		EventType: util.EventPasswordChanged,
		UserID:    user.ID,
		Username:  user.Username,
		IP:        meta.IPAddress,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
		Message:   "Password changed",
	})
	return nil
}

// ListLoginAttempts returns audit records newest first.
func (s *Service) ListLoginAttempts(ctx context.Context, filter LoginAttemptFilter) ([]model.LoginAttempt, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAttemptLimit
	}
	if limit > maxAttemptLimit {
		limit = maxAttemptLimit
	}

	query := s.db.WithContext(ctx).Model(&model.LoginAttempt{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var attempts []model.LoginAttempt
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("list login attempts: %w", err)
	}
	return attempts, nil
}

// ListRoles returns every role with the number of active users holding it.
func (s *Service) ListRoles(ctx context.Context) ([]model.RoleWithUserCount, error) {
	var roles []model.RoleWithUserCount
	err := s.db.WithContext(ctx).Model(&model.Role{}).
		Select("roles.id, roles.name, roles.description, COUNT(users.id) AS users_count").
		Joins("LEFT JOIN users ON users.role_id = roles.id AND users.deleted_at IS NULL").
		Group("roles.id, roles.name, roles.description").
		Order("roles.name").
		Scan(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *Service) findRole(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	err := s.db.WithContext(ctx).First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	return &role, nil
}

// identityTaken reports whether another user already uses username or email.
func (s *Service) identityTaken(ctx context.Context, username, email string, exceptID uint) (bool, error) {
	query := s.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", username, email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check existing user: %w", err)
	}
	return count > 0, nil
}
