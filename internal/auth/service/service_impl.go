package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/tillpoint/internal/auth/domain"
	"github.com/smallbiznis/tillpoint/internal/clock"
	"github.com/smallbiznis/tillpoint/internal/config"
	"github.com/smallbiznis/tillpoint/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   config.Config
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("auth.service"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.Config,
		repo:  p.Repo,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.Session{}, domain.User{}, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}
	if user == nil {
		return domain.Session{}, domain.User{}, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.Session{}, domain.User{}, domain.ErrAccountLocked
	}

	now := s.clock.Now()
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= s.cfg.MaxFailedLogins {
			user.IsActive = false
			s.log.Warn("account locked after repeated failures",
				zap.String("username", user.Username),
				zap.Int("attempts", user.FailedLoginAttempts),
			)
		}
		user.UpdatedAt = now
		if err := s.repo.UpdateLoginState(ctx, s.db, user); err != nil {
			return domain.Session{}, domain.User{}, err
		}
		if !user.IsActive {
			return domain.Session{}, domain.User{}, domain.ErrAccountLocked
		}
		return domain.Session{}, domain.User{}, domain.ErrInvalidCredentials
	}

	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.repo.UpdateLoginState(ctx, s.db, user); err != nil {
		return domain.Session{}, domain.User{}, err
	}

	session := domain.Session{
		ID:        s.genID.Generate(),
		Token:     ulid.Make().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, s.db, &session); err != nil {
		return domain.Session{}, domain.User{}, err
	}

	return session, *user, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrInvalidSession
	}
	return s.repo.RevokeSession(ctx, s.db, token)
}

func (s *Service) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	if req.CurrentPassword == "" {
		return domain.ErrInvalidCredentials
	}
	if len(req.NewPassword) < 8 {
		return domain.ErrInvalidPassword
	}

	user, err := s.repo.FindUserByID(ctx, s.db, req.UserID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive {
		return domain.ErrInvalidSession
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(passwordHash)
	user.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdatePassword(ctx, s.db, user); err != nil {
		return err
	}

	s.log.Info("password changed", zap.String("username", user.Username))
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, domain.ErrInvalidSession
	}

	session, err := s.repo.FindSessionByToken(ctx, s.db, token)
	if err != nil {
		return domain.User{}, err
	}
	if session == nil || session.RevokedAt != nil {
		return domain.User{}, domain.ErrInvalidSession
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return domain.User{}, domain.ErrSessionExpired
	}

	user, err := s.repo.FindUserByID(ctx, s.db, session.UserID)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil || !user.IsActive {
		return domain.User{}, domain.ErrInvalidSession
	}
	return *user, nil
}

func (s *Service) VerifyPIN(ctx context.Context, pin string) (domain.User, error) {
	if strings.TrimSpace(pin) == "" {
		return domain.User{}, domain.ErrInvalidPIN
	}

	users, err := s.repo.ListActiveUsersWithPIN(ctx, s.db)
	if err != nil {
		return domain.User{}, err
	}
	for i := range users {
		if users[i].PinHash == nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(*users[i].PinHash), []byte(pin)) == nil {
			return users[i], nil
		}
	}
	return domain.User{}, domain.ErrInvalidPIN
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return domain.User{}, domain.ErrInvalidUsername
	}
	if len(req.Password) < 8 {
		return domain.User{}, domain.ErrInvalidPassword
	}
	switch req.Role {
	case domain.RoleCashier, domain.RoleManager, domain.RoleAdministrator:
	default:
		return domain.User{}, domain.ErrInvalidRole
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	var pinHash *string
	if req.PIN != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, err
		}
		hashed := string(h)
		pinHash = &hashed
	}

	now := s.clock.Now()
	user := domain.User{
		ID:           s.genID.Generate(),
		Username:     username,
		PasswordHash: string(passwordHash),
		PinHash:      pinHash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUsernameExists
		}
		return domain.User{}, err
	}
	return user, nil
}
