package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/docutrack/internal/common"
	"github.com/dmitrijs2005/docutrack/internal/dbx"
	"github.com/dmitrijs2005/docutrack/internal/logging"
	"github.com/dmitrijs2005/docutrack/internal/server/auth"
	"github.com/dmitrijs2005/docutrack/internal/server/config"
	"github.com/dmitrijs2005/docutrack/internal/server/models"
	"github.com/dmitrijs2005/docutrack/internal/server/ratelimit"
	"github.com/dmitrijs2005/docutrack/internal/server/repositories/repomanager"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	hasher        *auth.Hasher
	limiter       ratelimit.Limiter
	logger        logging.Logger
	jwtSecret     []byte
	tokenTTL      time.Duration
	loginAttempts int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, limiter ratelimit.Limiter, logger logging.Logger) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		hasher:        auth.NewHasher(0),
		limiter:       limiter,
		logger:        logger,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenTTL:      cfg.TokenTTL,
		loginAttempts: cfg.LoginAttempts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func validateAccount(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return fmt.Errorf("%w: nombre, email y contraseña son requeridos", common.ErrorValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email inválido", common.ErrorValidation)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: la contraseña no puede exceder %d bytes", common.ErrorValidation, maxPasswordBytes)
	}
	return nil
}

// Register creates a USER account and signs a token for it.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if err := validateAccount(name, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: el email ya está registrado", common.ErrorAlreadyExists)
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.issue(ctx, user)
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller. Attempts are throttled per email.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email y contraseña son requeridos", common.ErrorValidation)
	}

	if s.limiter != nil && s.loginAttempts > 0 {
		ok, retry, err := s.limiter.Allow(ctx, "login:"+email, s.loginAttempts)
		if err != nil {
			// Limiter failures fail open.
			s.logger.Warn(ctx, "login limiter unavailable", "error", err)
		} else if !ok {
			return nil, fmt.Errorf("%w: demasiados intentos, reintente en %s", common.ErrorTooManyRequests, retry.Round(time.Second))
		}
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: credenciales inválidas", common.ErrorUnauthorized)
		}
		return nil, s.internal(ctx, "get user", err)
	}

	ok, err := s.hasher.Check(user.PasswordHash, password)
	if err != nil {
		return nil, s.internal(ctx, "check password", err, "user_id", user.ID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: credenciales inválidas", common.ErrorUnauthorized)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, "login:"+email); err != nil {
			s.logger.Warn(ctx, "login limiter reset failed", "error", err)
		}
	}

	return s.issue(ctx, user)
}

// Me returns the stored account of the caller.
func (s *UserService) Me(ctx context.Context, caller auth.Identity) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: usuario no encontrado", common.ErrorNotFound)
		}
		return nil, s.internal(ctx, "get user", err, "user_id", caller.ID)
	}
	return user, nil
}

// EnsureAdmin creates an ADMIN account, or promotes the existing account
// with the same email. created reports which of the two happened.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (user *models.User, created bool, err error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if err := validateAccount(name, email, password); err != nil {
		return nil, false, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if err := repo.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return err
			}
			existing.Role = models.RoleAdmin
			user = existing
			return nil
		case errors.Is(err, common.ErrorNotFound):
			user, err = repo.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin})
			created = err == nil
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (s *UserService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(auth.Identity{ID: user.ID, Email: user.Email, Role: string(user.Role)}, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, s.internal(ctx, "sign token", err, "user_id", user.ID)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *UserService) internal(ctx context.Context, op string, err error, args ...any) error {
	s.logger.Error(ctx, op+" failed", append(args, "error", err)...)
	return common.ErrorInternal
}
