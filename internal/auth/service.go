package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/internal/identity"
	"github.com/etfuel/etfuel-backend/internal/users"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/logger"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/security"
)

type identityProvider interface {
	GetByEmail(ctx context.Context, email string) (*identity.AccountDTO, error)
	GetByUID(ctx context.Context, uid uuid.UUID) (*identity.AccountDTO, error)
	CreateAccountTx(ctx context.Context, tx *gorm.DB, input identity.CreateAccountInput) (*identity.AccountDTO, error)
	SetCustomClaims(ctx context.Context, uid uuid.UUID, claims map[string]string) error
	CreateCustomToken(ctx context.Context, uid uuid.UUID, claims map[string]string) (string, error)
	UpdatePassword(ctx context.Context, uid uuid.UUID, newPassword string) error
	UpdateProfile(ctx context.Context, uid uuid.UUID, input identity.ProfileUpdateInput) error
}

type profileRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error)
	FindByUID(ctx context.Context, uid uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, uid uuid.UUID, at time.Time) error
	UpdateProfile(ctx context.Context, uid uuid.UUID, updates map[string]any) error
	UpdatePasswordHash(ctx context.Context, uid uuid.UUID, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type redeemStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ExchangeTokenKey(tokenID string) string
	ResetTokenKey(tokenID string) string
}

type auditEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.AuditEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LoginResult carries the denormalized user view plus the exchange token.
type LoginResult struct {
	User        *users.UserDTO
	CustomToken string
}

// RegisterInput captures the registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// SessionResult is the outcome of redeeming an exchange token or refreshing.
type SessionResult struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    int64
}

// ResetResult carries the always-generic message plus the link for dev output.
type ResetResult struct {
	Message   string
	ResetLink string
}

// UpdateProfileInput captures the allowed profile mutations.
type UpdateProfileInput struct {
	Name   *string
	Role   *enums.Role
	Status *enums.UserStatus
}

// Service drives the credential-verify / role-resolve / session-bootstrap flow.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*LoginResult, error)
	ExchangeSession(ctx context.Context, customToken string) (*SessionResult, error)
	RefreshSession(ctx context.Context, idToken, refreshToken string) (*SessionResult, error)
	Logout(ctx context.Context, accessID string) error
	RequestPasswordReset(ctx context.Context, email string) (*ResetResult, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	GetUser(ctx context.Context, uid uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, uid uuid.UUID, input UpdateProfileInput) (*users.UserDTO, error)
}

type service struct {
	provider    identityProvider
	profiles    profileRepository
	sessions    sessionManager
	redeem      redeemStore
	audit       auditEmitter
	tx          txRunner
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	baseURL     string
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	Provider identityProvider
	Profiles profileRepository
	Sessions sessionManager
	Redeem   redeemStore
	Audit    auditEmitter
	Tx       txRunner
	JWT      config.JWTConfig
	Password config.PasswordConfig
	BaseURL  string
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService builds the auth service after validating its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Provider == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if params.Redeem == nil {
		return nil, fmt.Errorf("redeem store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		provider:    params.Provider,
		profiles:    params.Profiles,
		sessions:    params.Sessions,
		redeem:      params.Redeem,
		audit:       params.Audit,
		tx:          params.Tx,
		jwtCfg:      params.JWT,
		passwordCfg: params.Password,
		baseURL:     strings.TrimRight(params.BaseURL, "/"),
		logg:        params.Logger,
		now:         now,
	}, nil
}

// Login runs the full pipeline: account lookup, profile load, secret match,
// role resolution with best-effort claim write, timestamp update, and
// exchange-token mint.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	account, err := s.provider.GetByEmail(ctx, email)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Burn a hash comparison so unknown emails cost the same as
			// wrong passwords.
			_, _ = security.VerifyPassword(password, dummyHash)
			return nil, invalidCredentials()
		}
		return nil, err
	}

	profile, err := s.profiles.FindByUID(ctx, account.UID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "load profile")
	}

	ok, err := security.VerifyPassword(password, profile.PasswordHash)
	if err != nil && !errors.Is(err, security.ErrNoHashConfigured) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "verify password")
	}
	if err != nil || !ok {
		return nil, invalidCredentials()
	}

	role := profile.Role
	if !role.IsValid() {
		role = enums.RoleBaseline
	}

	// Best-effort claim write: a stale role claim beats a blocked login.
	if claimErr := s.provider.SetCustomClaims(ctx, account.UID, map[string]string{identity.RoleClaim: role.String()}); claimErr != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithUID(ctx, account.UID.String()), "custom claim write failed, continuing login", claimErr)
		}
	}

	loginAt := s.now()
	if err := s.profiles.UpdateLastLogin(ctx, account.UID, loginAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "update last login")
	}
	profile.LastLoginAt = &loginAt
	profile.UpdatedAt = loginAt

	token, err := s.provider.CreateCustomToken(ctx, account.UID, map[string]string{identity.RoleClaim: role.String()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "mint exchange token")
	}

	s.emitAudit(ctx, enums.AuditEventUserLoggedIn, enums.AuditAggregateAccount, account.UID,
		&outbox.ActorRef{UID: account.UID, Role: role.String()},
		map[string]string{"email": profile.Email})

	return &LoginResult{User: users.FromModel(profile), CustomToken: token}, nil
}

// Register provisions the account and profile together, assigns the baseline
// role claim, and hands back a ready-to-exchange token.
func (s *service) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if _, err := s.provider.GetByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	appHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var profile *models.User
	var account *identity.AccountDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		account, txErr = s.provider.CreateAccountTx(ctx, tx, identity.CreateAccountInput{
			Email:       email,
			Password:    input.Password,
			DisplayName: input.Name,
		})
		if txErr != nil {
			return txErr
		}
		profile, txErr = s.profiles.CreateTx(ctx, tx, users.CreateUserDTO{
			UID:          account.UID,
			Email:        email,
			Name:         strings.TrimSpace(input.Name),
			PasswordHash: appHash,
			Role:         enums.RoleBaseline,
		})
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeProvider, txErr, "create profile")
		}
		if s.audit != nil {
			return s.audit.Emit(ctx, tx, outbox.AuditEvent{
				EventType:     enums.AuditEventUserRegistered,
				AggregateType: enums.AuditAggregateAccount,
				AggregateID:   account.UID,
				Actor:         &outbox.ActorRef{UID: account.UID, Role: enums.RoleBaseline.String()},
				Data:          map[string]string{"email": email},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if claimErr := s.provider.SetCustomClaims(ctx, account.UID, map[string]string{identity.RoleClaim: enums.RoleBaseline.String()}); claimErr != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithUID(ctx, account.UID.String()), "custom claim write failed, continuing registration", claimErr)
		}
	}

	token, err := s.provider.CreateCustomToken(ctx, account.UID, map[string]string{identity.RoleClaim: enums.RoleBaseline.String()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "mint exchange token")
	}

	return &LoginResult{User: users.FromModel(profile), CustomToken: token}, nil
}

// ExchangeSession redeems an exchange token exactly once and bootstraps the
// session: an ID token carrying the freshest role claim plus a refresh token.
func (s *service) ExchangeSession(ctx context.Context, customToken string) (*SessionResult, error) {
	claims, err := pkgauth.ParseCustomToken(s.jwtCfg, customToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid exchange token")
	}

	first, err := s.redeem.SetNX(ctx, s.redeem.ExchangeTokenKey(claims.ID), "1", s.jwtCfg.CustomTokenTTL())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record token redemption")
	}
	if !first {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "exchange token already redeemed")
	}

	account, err := s.provider.GetByUID(ctx, claims.UID)
	if err != nil {
		return nil, err
	}

	roleValue := account.CustomClaims[identity.RoleClaim]
	if roleValue == "" {
		roleValue = claims.Role.String()
	}

	return s.bootstrapSession(ctx, account, enums.RoleOrBaseline(roleValue))
}

// RefreshSession rotates the refresh token and re-reads account claims so a
// role written after login becomes visible on the new ID token.
func (s *service) RefreshSession(ctx context.Context, idToken, refreshToken string) (*SessionResult, error) {
	claims, err := pkgauth.ParseIDTokenAllowExpired(s.jwtCfg, idToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	account, err := s.provider.GetByUID(ctx, claims.UID)
	if err != nil {
		return nil, err
	}

	role := enums.RoleOrBaseline(account.CustomClaims[identity.RoleClaim])
	token, err := pkgauth.MintIDToken(s.jwtCfg, s.now(), pkgauth.IDTokenPayload{
		UID:   account.UID,
		Email: account.Email,
		Role:  role,
		JTI:   newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "mint session token")
	}

	return &SessionResult{
		IDToken:      token,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(s.jwtCfg.IDTokenTTL().Seconds()),
	}, nil
}

func (s *service) bootstrapSession(ctx context.Context, account *identity.AccountDTO, role enums.Role) (*SessionResult, error) {
	accessID := uuid.NewString()
	token, err := pkgauth.MintIDToken(s.jwtCfg, s.now(), pkgauth.IDTokenPayload{
		UID:   account.UID,
		Email: account.Email,
		Role:  role,
		JTI:   accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "mint session token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh session")
	}

	return &SessionResult{
		IDToken:      token,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtCfg.IDTokenTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh session tied to the presented token's jti. A
// missing token is not an error; the client may have no session at all.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// RequestPasswordReset always reports success. When the account exists it
// mints a reset token, records its jti, and emits an audit event.
func (s *service) RequestPasswordReset(ctx context.Context, email string) (*ResetResult, error) {
	const message = "If an account exists for that email, a reset link has been sent."

	account, err := s.provider.GetByEmail(ctx, email)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return &ResetResult{Message: message}, nil
		}
		return nil, err
	}

	token, err := pkgauth.MintResetToken(s.jwtCfg, s.now(), account.UID, account.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAuthFailed, err, "mint reset token")
	}
	resetClaims, err := pkgauth.ParseResetToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse minted reset token")
	}
	if err := s.redeem.Set(ctx, s.redeem.ResetTokenKey(resetClaims.ID), account.UID.String(), s.jwtCfg.ResetTokenTTL()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record reset token")
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	if s.logg != nil {
		s.logg.Info(s.logg.WithUID(ctx, account.UID.String()), "password reset link generated")
	}

	s.emitAudit(ctx, enums.AuditEventPasswordResetRequested, enums.AuditAggregateAccount, account.UID, nil,
		map[string]string{"email": account.Email})

	return &ResetResult{Message: message, ResetLink: link}, nil
}

// ConfirmPasswordReset redeems a reset token once and rewrites both stored
// hashes: the provider copy and the profile's app-held copy.
func (s *service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := pkgauth.ParseResetToken(s.jwtCfg, token)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
	}

	key := s.redeem.ResetTokenKey(claims.ID)
	stored, err := s.redeem.Get(ctx, key)
	if err != nil || stored != claims.UID.String() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired reset token")
	}
	if err := s.redeem.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reset token")
	}

	if err := s.provider.UpdatePassword(ctx, claims.UID, newPassword); err != nil {
		return err
	}
	appHash, err := security.HashPassword(newPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.profiles.UpdatePasswordHash(ctx, claims.UID, appHash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProvider, err, "update profile password")
	}
	return nil
}

// GetUser loads the profile view for the given subject.
func (s *service) GetUser(ctx context.Context, uid uuid.UUID) (*users.UserDTO, error) {
	profile, err := s.profiles.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "load profile")
	}
	return users.FromModel(profile), nil
}

// UpdateProfile applies name/role/status changes to the profile, mirrors the
// display name onto the account, and rewrites the role claim when it changes.
func (s *service) UpdateProfile(ctx context.Context, uid uuid.UUID, input UpdateProfileInput) (*users.UserDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		updates["role"] = *input.Role
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		updates["status"] = *input.Status
	}

	if len(updates) > 0 {
		if err := s.profiles.UpdateProfile(ctx, uid, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "update profile")
		}
	}

	if input.Name != nil {
		if err := s.provider.UpdateProfile(ctx, uid, identity.ProfileUpdateInput{DisplayName: input.Name}); err != nil {
			return nil, err
		}
	}
	if input.Role != nil {
		if claimErr := s.provider.SetCustomClaims(ctx, uid, map[string]string{identity.RoleClaim: input.Role.String()}); claimErr != nil {
			if s.logg != nil {
				s.logg.Error(s.logg.WithUID(ctx, uid.String()), "custom claim write failed, profile updated anyway", claimErr)
			}
		}
	}

	profile, err := s.profiles.FindByUID(ctx, uid)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, "reload profile")
	}

	s.emitAudit(ctx, enums.AuditEventProfileUpdated, enums.AuditAggregateAccount, uid,
		&outbox.ActorRef{UID: uid, Role: profile.Role.String()}, updates)

	return users.FromModel(profile), nil
}

// emitAudit queues an audit event in its own short transaction; audit is
// observability, not control flow, so failures are logged and swallowed.
func (s *service) emitAudit(ctx context.Context, eventType enums.AuditEventType, aggregateType enums.AuditAggregateType, aggregateID uuid.UUID, actor *outbox.ActorRef, data any) {
	if s.audit == nil {
		return
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.audit.Emit(ctx, tx, outbox.AuditEvent{
			EventType:     eventType,
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			Actor:         actor,
			Data:          data,
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Error(ctx, "audit event emit failed", err)
	}
}

// dummyHash keeps the unknown-email path as slow as a real comparison.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
