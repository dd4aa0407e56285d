package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/internal/identity"
	"github.com/etfuel/etfuel-backend/internal/users"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/ids"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/security"
)

type memberRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, member *models.Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type accountProvisioner interface {
	CreateAccountTx(ctx context.Context, tx *gorm.DB, input identity.CreateAccountInput) (*identity.AccountDTO, error)
	SetCustomClaims(ctx context.Context, uid uuid.UUID, claims map[string]string) error
}

type profileCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error)
}

type auditEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.AuditEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AccountRegistration carries the optional login account created alongside a
// member. Member accounts sign in with the admin application role, so the
// password is held to the staff strength policy.
type AccountRegistration struct {
	Email    string
	Password string
}

// CreateMemberInput mirrors the back-office add-member form.
type CreateMemberInput struct {
	Name       string
	Email      string
	Phone      string
	Role       string
	Department string
	Account    *AccountRegistration
}

// UpdateMemberInput captures the allowed member mutations.
type UpdateMemberInput struct {
	Name       *string
	Phone      *string
	Role       *string
	Department *string
}

// Service exposes member operations for admin callers.
type Service interface {
	List(ctx context.Context, actor pkgauth.Principal) ([]MemberDTO, error)
	GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*MemberDTO, error)
	Create(ctx context.Context, actor pkgauth.Principal, input CreateMemberInput) (*MemberDTO, error)
	Update(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, input UpdateMemberInput) (*MemberDTO, error)
	Delete(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) error
}

type service struct {
	repo        memberRepository
	provider    accountProvisioner
	profiles    profileCreator
	audit       auditEmitter
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewService builds a members service with the provided dependencies.
func NewService(repo memberRepository, provider accountProvisioner, profiles profileCreator, audit auditEmitter, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if provider == nil {
		return nil, fmt.Errorf("identity provider required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{
		repo:        repo,
		provider:    provider,
		profiles:    profiles,
		audit:       audit,
		tx:          tx,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) List(ctx context.Context, actor pkgauth.Principal) ([]MemberDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "member access requires an admin role")
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return FromModels(rows), nil
}

func (s *service) GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*MemberDTO, error) {
	member, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(member), nil
}

func (s *service) Create(ctx context.Context, actor pkgauth.Principal, input CreateMemberInput) (*MemberDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "member creation requires an admin role")
	}

	member, err := buildMember(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.Account != nil {
			uid, provErr := s.provisionMemberAccount(ctx, tx, member, *input.Account)
			if provErr != nil {
				return provErr
			}
			member.AccountUID = &uid
		}
		if createErr := s.repo.CreateTx(ctx, tx, member); createErr != nil {
			if db.IsUniqueViolation(createErr, "idx_members_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "member email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create member")
		}
		return s.emitTx(ctx, tx, enums.AuditEventMemberCreated, member, actor)
	})
	if err != nil {
		return nil, err
	}

	// Claim write after commit; a failure leaves a provider-side default the
	// member's next refresh will heal.
	if member.AccountUID != nil {
		_ = s.provider.SetCustomClaims(ctx, *member.AccountUID, map[string]string{identity.RoleClaim: enums.RoleAdmin.String()})
	}

	return FromModel(member), nil
}

func (s *service) Update(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, input UpdateMemberInput) (*MemberDTO, error) {
	member, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := applyMemberUpdates(member, input); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
	}

	s.emit(ctx, enums.AuditEventMemberUpdated, member, actor)
	return FromModel(member), nil
}

func (s *service) Delete(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) error {
	member, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, member.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete member")
	}

	s.emit(ctx, enums.AuditEventMemberDeleted, member, actor)
	return nil
}

func (s *service) load(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*models.Member, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "member access requires an admin role")
	}
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	return member, nil
}

func (s *service) provisionMemberAccount(ctx context.Context, tx *gorm.DB, member *models.Member, reg AccountRegistration) (uuid.UUID, error) {
	if err := security.CheckPasswordStrength(reg.Password); err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	account, err := s.provider.CreateAccountTx(ctx, tx, identity.CreateAccountInput{
		Email:       reg.Email,
		Password:    reg.Password,
		DisplayName: member.Name,
	})
	if err != nil {
		return uuid.Nil, err
	}

	appHash, err := security.HashPassword(reg.Password, s.passwordCfg)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if _, err := s.profiles.CreateTx(ctx, tx, users.CreateUserDTO{
		UID:          account.UID,
		Email:        account.Email,
		Name:         member.Name,
		PasswordHash: appHash,
		Role:         enums.RoleAdmin,
		Permissions:  []string{member.Role.String(), member.Department.String()},
	}); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member profile")
	}
	return account.UID, nil
}

func (s *service) emitTx(ctx context.Context, tx *gorm.DB, eventType enums.AuditEventType, member *models.Member, actor pkgauth.Principal) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Emit(ctx, tx, outbox.AuditEvent{
		EventType:     eventType,
		AggregateType: enums.AuditAggregateMember,
		AggregateID:   member.ID,
		Actor:         &outbox.ActorRef{UID: actor.UID, Role: actor.Role.String()},
		Data:          map[string]string{"memberId": member.MemberID, "name": member.Name},
	})
}

func (s *service) emit(ctx context.Context, eventType enums.AuditEventType, member *models.Member, actor pkgauth.Principal) {
	if s.audit == nil {
		return
	}
	_ = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.emitTx(ctx, tx, eventType, member, actor)
	})
}

func buildMember(input CreateMemberInput) (*models.Member, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member name is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member email is required")
	}

	role := enums.MemberRoleAdmin
	if input.Role != "" {
		parsed, err := enums.ParseMemberRole(input.Role)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid member role")
		}
		role = parsed
	}

	department := enums.DepartmentAdministration
	if input.Department != "" {
		parsed, err := enums.ParseDepartment(input.Department)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid department")
		}
		department = parsed
	}

	return &models.Member{
		ID:         uuid.New(),
		MemberID:   ids.NewMemberID(),
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(input.Phone),
		Role:       role,
		Department: department,
	}, nil
}

func applyMemberUpdates(member *models.Member, input UpdateMemberInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "member name is required")
		}
		member.Name = name
	}
	if input.Phone != nil {
		member.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		parsed, err := enums.ParseMemberRole(*input.Role)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid member role")
		}
		member.Role = parsed
	}
	if input.Department != nil {
		parsed, err := enums.ParseDepartment(*input.Department)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid department")
		}
		member.Department = parsed
	}
	return nil
}
