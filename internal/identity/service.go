package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	dbtypes "github.com/etfuel/etfuel-backend/pkg/db/types"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/security"
)

// RoleClaim is the custom claim key carrying the resolved role.
const RoleClaim = "role"

// dummyHash keeps credential checks constant-time when the email is unknown.
// Generated from a random password at cost 12.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

type accountRepository interface {
	Create(ctx context.Context, dto CreateAccountDTO) (*models.Account, error)
	CreateTx(ctx context.Context, tx *gorm.DB, dto CreateAccountDTO) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByUID(ctx context.Context, uid uuid.UUID) (*models.Account, error)
	UpdateClaims(ctx context.Context, uid uuid.UUID, claims dbtypes.ClaimSet) error
	UpdatePasswordHash(ctx context.Context, uid uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, uid uuid.UUID, updates map[string]any) error
}

// CreateAccountInput captures the fields needed to provision an account.
type CreateAccountInput struct {
	Email       string
	Password    string
	DisplayName string
}

// ProfileUpdateInput captures mutable account profile fields.
type ProfileUpdateInput struct {
	DisplayName *string
	Email       *string
}

// Service is the managed-account surface the rest of the platform talks to.
// It owns credential storage, custom claims, and exchange-token minting.
type Service interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*AccountDTO, error)
	CreateAccountTx(ctx context.Context, tx *gorm.DB, input CreateAccountInput) (*AccountDTO, error)
	GetByUID(ctx context.Context, uid uuid.UUID) (*AccountDTO, error)
	GetByEmail(ctx context.Context, email string) (*AccountDTO, error)
	VerifyCredentials(ctx context.Context, email, password string) (*AccountDTO, error)
	SetCustomClaims(ctx context.Context, uid uuid.UUID, claims map[string]string) error
	UpdatePassword(ctx context.Context, uid uuid.UUID, newPassword string) error
	UpdateProfile(ctx context.Context, uid uuid.UUID, input ProfileUpdateInput) error
	CreateCustomToken(ctx context.Context, uid uuid.UUID, claims map[string]string) (string, error)
}

type service struct {
	repo        accountRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	Repo     accountRepository
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Now      func() time.Time
}

// NewService builds the account service after validating its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		jwtCfg:      params.JWT,
		passwordCfg: params.Password,
		now:         now,
	}, nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (*AccountDTO, error) {
	dto, err := s.buildCreateDTO(input)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.Create(ctx, *dto)
	if err != nil {
		return nil, wrapCreateError(err)
	}
	return FromModel(account), nil
}

func (s *service) CreateAccountTx(ctx context.Context, tx *gorm.DB, input CreateAccountInput) (*AccountDTO, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	dto, err := s.buildCreateDTO(input)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.CreateTx(ctx, tx, *dto)
	if err != nil {
		return nil, wrapCreateError(err)
	}
	return FromModel(account), nil
}

func (s *service) buildCreateDTO(input CreateAccountInput) (*CreateAccountDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if len(input.Password) < 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}
	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return &CreateAccountDTO{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
	}, nil
}

func wrapCreateError(err error) error {
	if db.IsUniqueViolation(err, "idx_accounts_email") {
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	return pkgerrors.Wrap(pkgerrors.CodeProvider, err, "create account")
}

func (s *service) GetByUID(ctx context.Context, uid uuid.UUID) (*AccountDTO, error) {
	account, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "load account")
	}
	return FromModel(account), nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*AccountDTO, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "load account")
	}
	return FromModel(account), nil
}

// VerifyCredentials checks the email/password pair. Unknown emails and wrong
// passwords return the same error, and both paths cost one hash comparison.
func (s *service) VerifyCredentials(ctx context.Context, email, password string) (*AccountDTO, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, _ = security.VerifyPassword(password, dummyHash)
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "load account")
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		if errors.Is(err, security.ErrNoHashConfigured) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}
	if account.Disabled {
		return nil, invalidCredentials()
	}
	return FromModel(account), nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}

func (s *service) SetCustomClaims(ctx context.Context, uid uuid.UUID, claims map[string]string) error {
	set := dbtypes.ClaimSet{}
	for k, v := range claims {
		set[k] = v
	}
	if err := s.repo.UpdateClaims(ctx, uid, set); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProvider, err, "set custom claims")
	}
	return nil
}

func (s *service) UpdatePassword(ctx context.Context, uid uuid.UUID, newPassword string) error {
	if len(newPassword) < 6 {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}
	hash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePasswordHash(ctx, uid, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProvider, err, "update password")
	}
	return nil
}

func (s *service) UpdateProfile(ctx context.Context, uid uuid.UUID, input ProfileUpdateInput) error {
	updates := map[string]any{}
	if input.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*input.DisplayName)
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
		}
		updates["email"] = email
	}
	if err := s.repo.UpdateProfile(ctx, uid, updates); err != nil {
		if db.IsUniqueViolation(err, "idx_accounts_email") {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeProvider, err, "update account profile")
	}
	return nil
}

// CreateCustomToken mints the short-lived exchange token for an account. The
// caller supplies the claims to embed; when no role claim is supplied the
// account's stored claims decide, falling back to the baseline role.
func (s *service) CreateCustomToken(ctx context.Context, uid uuid.UUID, claims map[string]string) (string, error) {
	account, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeProvider, err, "load account")
	}

	roleValue := claims[RoleClaim]
	if roleValue == "" {
		roleValue = account.CustomClaims[RoleClaim]
	}
	role := enums.RoleOrBaseline(roleValue)
	token, err := auth.MintCustomToken(s.jwtCfg, s.now(), account.UID, role)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "mint exchange token")
	}
	return token, nil
}
