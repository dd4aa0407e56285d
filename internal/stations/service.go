package stations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/internal/identity"
	"github.com/etfuel/etfuel-backend/internal/users"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/ids"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/security"
)

type stationRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, station *models.Station) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Station, error)
	List(ctx context.Context, ownerUID *uuid.UUID) ([]models.Station, error)
	Update(ctx context.Context, station *models.Station) error
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
// station so its operator can sign in with the station role.
type AccountRegistration struct {
	Email    string
	Password string
}

// CreateStationInput mirrors the operator's add-station form.
type CreateStationInput struct {
	Name          string
	Code          string
	Type          string
	Address       string
	City          string
	State         string
	ZipCode       string
	Country       string
	ContactPerson string
	ContactPhone  string
	ContactEmail  string
	Capacity      int
	Status        string
	OpensAt       string
	ClosesAt      string
	Latitude      string
	Longitude     string
	Account       *AccountRegistration
}

// UpdateStationInput captures the allowed station mutations.
type UpdateStationInput struct {
	Name          *string
	Code          *string
	Type          *string
	Address       *string
	City          *string
	State         *string
	ZipCode       *string
	Country       *string
	ContactPerson *string
	ContactPhone  *string
	ContactEmail  *string
	Capacity      *int
	Status        *string
	OpensAt       *string
	ClosesAt      *string
	Latitude      *string
	Longitude     *string
}

// Service exposes station operations for union and admin callers.
type Service interface {
	List(ctx context.Context, actor pkgauth.Principal) ([]StationDTO, error)
	GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*StationDTO, error)
	Create(ctx context.Context, actor pkgauth.Principal, input CreateStationInput) (*StationDTO, error)
	Update(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, input UpdateStationInput) (*StationDTO, error)
	Delete(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) error
}

type service struct {
	repo        stationRepository
	provider    accountProvisioner
	profiles    profileCreator
	audit       auditEmitter
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewService builds a stations service with the provided dependencies.
func NewService(repo stationRepository, provider accountProvisioner, profiles profileCreator, audit auditEmitter, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("station repository required")
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

func (s *service) List(ctx context.Context, actor pkgauth.Principal) ([]StationDTO, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "station access requires a union role")
	}
	var owner *uuid.UUID
	if !actor.IsAdmin() {
		owner = &actor.UID
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stations")
	}
	return FromModels(rows), nil
}

func (s *service) GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*StationDTO, error) {
	station, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(station), nil
}

func (s *service) Create(ctx context.Context, actor pkgauth.Principal, input CreateStationInput) (*StationDTO, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "station creation requires a union role")
	}

	station, err := buildStation(actor.UID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.Account != nil {
			uid, provErr := s.provisionStationAccount(ctx, tx, station.Name, *input.Account)
			if provErr != nil {
				return provErr
			}
			station.AccountUID = &uid
		}
		if createErr := s.repo.CreateTx(ctx, tx, station); createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create station")
		}
		return s.emitTx(ctx, tx, enums.AuditEventStationCreated, station, actor)
	})
	if err != nil {
		return nil, err
	}

	// Claim write after commit; a failure leaves a provider-side default the
	// operator's next refresh will heal.
	if station.AccountUID != nil {
		_ = s.provider.SetCustomClaims(ctx, *station.AccountUID, map[string]string{identity.RoleClaim: enums.RoleStation.String()})
	}

	return FromModel(station), nil
}

func (s *service) Update(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, input UpdateStationInput) (*StationDTO, error) {
	station, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := applyStationUpdates(station, input); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, station); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update station")
	}

	s.emit(ctx, enums.AuditEventStationUpdated, station, actor)
	return FromModel(station), nil
}

func (s *service) Delete(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) error {
	station, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, station.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete station")
	}

	s.emit(ctx, enums.AuditEventStationDeleted, station, actor)
	return nil
}

// loadOwned fetches a station and enforces that the caller owns it or is an
// admin.
func (s *service) loadOwned(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*models.Station, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "station access requires a union role")
	}
	station, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "station not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load station")
	}
	if !actor.IsAdmin() && station.OwnerUID != actor.UID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "station belongs to another union")
	}
	return station, nil
}

func (s *service) provisionStationAccount(ctx context.Context, tx *gorm.DB, stationName string, reg AccountRegistration) (uuid.UUID, error) {
	account, err := s.provider.CreateAccountTx(ctx, tx, identity.CreateAccountInput{
		Email:       reg.Email,
		Password:    reg.Password,
		DisplayName: stationName,
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
		Name:         stationName,
		PasswordHash: appHash,
		Role:         enums.RoleStation,
	}); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create station profile")
	}
	return account.UID, nil
}

func (s *service) emitTx(ctx context.Context, tx *gorm.DB, eventType enums.AuditEventType, station *models.Station, actor pkgauth.Principal) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Emit(ctx, tx, outbox.AuditEvent{
		EventType:     eventType,
		AggregateType: enums.AuditAggregateStation,
		AggregateID:   station.ID,
		Actor:         &outbox.ActorRef{UID: actor.UID, Role: actor.Role.String()},
		Data:          map[string]string{"stationId": station.StationID, "name": station.Name},
	})
}

func (s *service) emit(ctx context.Context, eventType enums.AuditEventType, station *models.Station, actor pkgauth.Principal) {
	if s.audit == nil {
		return
	}
	_ = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.emitTx(ctx, tx, eventType, station, actor)
	})
}

func buildStation(ownerUID uuid.UUID, input CreateStationInput) (*models.Station, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "station name is required")
	}

	stationType := enums.StationTypeCharging
	if input.Type != "" {
		parsed, err := enums.ParseStationType(input.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid station type")
		}
		stationType = parsed
	}

	status := enums.StationStatusActive
	if input.Status != "" {
		parsed, err := enums.ParseStationStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid station status")
		}
		status = parsed
	}

	capacity := input.Capacity
	if capacity <= 0 {
		capacity = 10
	}

	latitude, err := parseCoordinate(input.Latitude, 90)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid latitude")
	}
	longitude, err := parseCoordinate(input.Longitude, 180)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid longitude")
	}

	opensAt := input.OpensAt
	if opensAt == "" {
		opensAt = "08:00"
	}
	closesAt := input.ClosesAt
	if closesAt == "" {
		closesAt = "20:00"
	}

	return &models.Station{
		ID:            uuid.New(),
		StationID:     ids.NewStationID(),
		Name:          name,
		Code:          strings.TrimSpace(input.Code),
		Type:          stationType,
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		ZipCode:       strings.TrimSpace(input.ZipCode),
		Country:       strings.TrimSpace(input.Country),
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		ContactPhone:  strings.TrimSpace(input.ContactPhone),
		ContactEmail:  strings.TrimSpace(input.ContactEmail),
		Capacity:      capacity,
		Status:        status,
		OpensAt:       opensAt,
		ClosesAt:      closesAt,
		Latitude:      latitude,
		Longitude:     longitude,
		OwnerUID:      ownerUID,
	}, nil
}

func applyStationUpdates(station *models.Station, input UpdateStationInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "station name cannot be empty")
		}
		station.Name = name
	}
	if input.Code != nil {
		station.Code = strings.TrimSpace(*input.Code)
	}
	if input.Type != nil {
		parsed, err := enums.ParseStationType(*input.Type)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid station type")
		}
		station.Type = parsed
	}
	if input.Address != nil {
		station.Address = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		station.City = strings.TrimSpace(*input.City)
	}
	if input.State != nil {
		station.State = strings.TrimSpace(*input.State)
	}
	if input.ZipCode != nil {
		station.ZipCode = strings.TrimSpace(*input.ZipCode)
	}
	if input.Country != nil {
		station.Country = strings.TrimSpace(*input.Country)
	}
	if input.ContactPerson != nil {
		station.ContactPerson = strings.TrimSpace(*input.ContactPerson)
	}
	if input.ContactPhone != nil {
		station.ContactPhone = strings.TrimSpace(*input.ContactPhone)
	}
	if input.ContactEmail != nil {
		station.ContactEmail = strings.TrimSpace(*input.ContactEmail)
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
		}
		station.Capacity = *input.Capacity
	}
	if input.Status != nil {
		parsed, err := enums.ParseStationStatus(*input.Status)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid station status")
		}
		station.Status = parsed
	}
	if input.OpensAt != nil {
		station.OpensAt = *input.OpensAt
	}
	if input.ClosesAt != nil {
		station.ClosesAt = *input.ClosesAt
	}
	if input.Latitude != nil {
		latitude, err := parseCoordinate(*input.Latitude, 90)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid latitude")
		}
		station.Latitude = latitude
	}
	if input.Longitude != nil {
		longitude, err := parseCoordinate(*input.Longitude, 180)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid longitude")
		}
		station.Longitude = longitude
	}
	return nil
}

// parseCoordinate accepts the form's free-text coordinate, empty meaning
// unset, and bounds-checks the magnitude.
func parseCoordinate(raw string, bound int64) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, err
	}
	if value.Abs().GreaterThan(decimal.NewFromInt(bound)) {
		return nil, fmt.Errorf("coordinate out of range")
	}
	return &value, nil
}
