package vehicles

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
	"github.com/etfuel/etfuel-backend/pkg/db"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/ids"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/security"
)

type vehicleRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, vehicle *models.Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	List(ctx context.Context, ownerUID *uuid.UUID) ([]models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type driverCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, driver *models.Driver) error
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

// DriverInput is the inline driver section of the add-vehicle form.
type DriverInput struct {
	Name          string
	LicenseNumber string
	LicenseExpiry *time.Time
	Phone         string
	Email         string
}

// AccountRegistration carries the optional login account created for the
// inline driver so they can sign in with the driver role.
type AccountRegistration struct {
	Email    string
	Password string
}

// CreateVehicleInput mirrors the operator's add-vehicle form.
type CreateVehicleInput struct {
	PlateNumber  string
	Make         string
	Model        string
	Year         int
	Type         string
	FuelType     string
	TankCapacity int
	Status       string
	Driver       *DriverInput
	Account      *AccountRegistration
}

// UpdateVehicleInput captures the allowed vehicle mutations.
type UpdateVehicleInput struct {
	PlateNumber  *string
	Make         *string
	Model        *string
	Year         *int
	Type         *string
	FuelType     *string
	TankCapacity *int
	Status       *string
	DriverUID    *uuid.UUID
}

// Service exposes vehicle operations for union and admin callers.
type Service interface {
	List(ctx context.Context, actor pkgauth.Principal) ([]VehicleDTO, error)
	GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*VehicleDTO, error)
	Create(ctx context.Context, actor pkgauth.Principal, input CreateVehicleInput) (*VehicleDTO, error)
	Update(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, input UpdateVehicleInput) (*VehicleDTO, error)
	Delete(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) error
}

type service struct {
	repo        vehicleRepository
	drivers     driverCreator
	provider    accountProvisioner
	profiles    profileCreator
	audit       auditEmitter
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewService builds a vehicles service with the provided dependencies.
func NewService(repo vehicleRepository, drivers driverCreator, provider accountProvisioner, profiles profileCreator, audit auditEmitter, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	if drivers == nil {
		return nil, fmt.Errorf("driver repository required")
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
		drivers:     drivers,
		provider:    provider,
		profiles:    profiles,
		audit:       audit,
		tx:          tx,
		passwordCfg: passwordCfg,
	}, nil
}

func (s *service) List(ctx context.Context, actor pkgauth.Principal) ([]VehicleDTO, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle access requires a union role")
	}
	var owner *uuid.UUID
	if !actor.IsAdmin() {
		owner = &actor.UID
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return FromModels(rows), nil
}

func (s *service) GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*VehicleDTO, error) {
	vehicle, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(vehicle), nil
}

// Create registers a vehicle, its inline driver when supplied, and the
// driver's login account when requested, all in one transaction.
func (s *service) Create(ctx context.Context, actor pkgauth.Principal, input CreateVehicleInput) (*VehicleDTO, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle creation requires a union role")
	}

	vehicle, err := buildVehicle(actor.UID, input)
	if err != nil {
		return nil, err
	}
	if input.Account != nil && input.Driver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver details are required to register a driver account")
	}

	var accountUID *uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.Driver != nil {
			driver, drvErr := s.createDriver(ctx, tx, actor, *input.Driver, input.Account)
			if drvErr != nil {
				return drvErr
			}
			vehicle.DriverUID = &driver.ID
			accountUID = driver.AccountUID
		}
		if createErr := s.repo.CreateTx(ctx, tx, vehicle); createErr != nil {
			if db.IsUniqueViolation(createErr, "idx_vehicles_plate_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "plate number already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create vehicle")
		}
		return s.emitTx(ctx, tx, enums.AuditEventVehicleCreated, vehicle, actor)
	})
	if err != nil {
		return nil, err
	}

	if accountUID != nil {
		_ = s.provider.SetCustomClaims(ctx, *accountUID, map[string]string{identity.RoleClaim: enums.RoleDriver.String()})
	}

	return FromModel(vehicle), nil
}

func (s *service) Update(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, input UpdateVehicleInput) (*VehicleDTO, error) {
	vehicle, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := applyVehicleUpdates(vehicle, input); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		if db.IsUniqueViolation(err, "idx_vehicles_plate_number") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "plate number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vehicle")
	}

	s.emit(ctx, enums.AuditEventVehicleUpdated, vehicle, actor)
	return FromModel(vehicle), nil
}

func (s *service) Delete(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) error {
	vehicle, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, vehicle.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete vehicle")
	}

	s.emit(ctx, enums.AuditEventVehicleDeleted, vehicle, actor)
	return nil
}

func (s *service) loadOwned(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*models.Vehicle, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle access requires a union role")
	}
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}
	if !actor.IsAdmin() && vehicle.OwnerUID != actor.UID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle belongs to another union")
	}
	return vehicle, nil
}

func (s *service) createDriver(ctx context.Context, tx *gorm.DB, actor pkgauth.Principal, input DriverInput, reg *AccountRegistration) (*models.Driver, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name is required")
	}
	license := strings.TrimSpace(input.LicenseNumber)
	if license == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver license number is required")
	}

	driver := &models.Driver{
		ID:            uuid.New(),
		Name:          name,
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         strings.TrimSpace(input.Phone),
		LicenseNumber: license,
		LicenseExpiry: input.LicenseExpiry,
		Status:        enums.UserStatusActive,
		OwnerUID:      actor.UID,
	}

	if reg != nil {
		account, err := s.provider.CreateAccountTx(ctx, tx, identity.CreateAccountInput{
			Email:       reg.Email,
			Password:    reg.Password,
			DisplayName: name,
		})
		if err != nil {
			return nil, err
		}
		appHash, err := security.HashPassword(reg.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		if _, err := s.profiles.CreateTx(ctx, tx, users.CreateUserDTO{
			UID:          account.UID,
			Email:        account.Email,
			Name:         name,
			PasswordHash: appHash,
			Role:         enums.RoleDriver,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create driver profile")
		}
		driver.AccountUID = &account.UID
	}

	if err := s.drivers.CreateTx(ctx, tx, driver); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create driver")
	}

	if s.audit != nil {
		if err := s.audit.Emit(ctx, tx, outbox.AuditEvent{
			EventType:     enums.AuditEventDriverCreated,
			AggregateType: enums.AuditAggregateDriver,
			AggregateID:   driver.ID,
			Actor:         &outbox.ActorRef{UID: actor.UID, Role: actor.Role.String()},
			Data:          map[string]string{"name": driver.Name, "licenseNumber": driver.LicenseNumber},
		}); err != nil {
			return nil, err
		}
	}
	return driver, nil
}

func (s *service) emitTx(ctx context.Context, tx *gorm.DB, eventType enums.AuditEventType, vehicle *models.Vehicle, actor pkgauth.Principal) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Emit(ctx, tx, outbox.AuditEvent{
		EventType:     eventType,
		AggregateType: enums.AuditAggregateVehicle,
		AggregateID:   vehicle.ID,
		Actor:         &outbox.ActorRef{UID: actor.UID, Role: actor.Role.String()},
		Data:          map[string]string{"vehicleId": vehicle.VehicleID, "licensePlate": vehicle.PlateNumber},
	})
}

func (s *service) emit(ctx context.Context, eventType enums.AuditEventType, vehicle *models.Vehicle, actor pkgauth.Principal) {
	if s.audit == nil {
		return
	}
	_ = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.emitTx(ctx, tx, eventType, vehicle, actor)
	})
}

func buildVehicle(ownerUID uuid.UUID, input CreateVehicleInput) (*models.Vehicle, error) {
	plate := strings.ToUpper(strings.TrimSpace(input.PlateNumber))
	if plate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license plate is required")
	}

	vehicleType := enums.VehicleTypeTruck
	if input.Type != "" {
		parsed, err := enums.ParseVehicleType(input.Type)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
		}
		vehicleType = parsed
	}

	fuelType := enums.FuelTypeDiesel
	if input.FuelType != "" {
		parsed, err := enums.ParseFuelType(input.FuelType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fuel type")
		}
		fuelType = parsed
	}

	status := enums.VehicleStatusActive
	if input.Status != "" {
		parsed, err := enums.ParseVehicleStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle status")
		}
		status = parsed
	}

	if input.Year != 0 && (input.Year < 1950 || input.Year > time.Now().Year()+1) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle year")
	}
	if input.TankCapacity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tank capacity cannot be negative")
	}

	return &models.Vehicle{
		ID:           uuid.New(),
		VehicleID:    ids.NewVehicleID(),
		PlateNumber:  plate,
		Make:         strings.TrimSpace(input.Make),
		Model:        strings.TrimSpace(input.Model),
		Year:         input.Year,
		Type:         vehicleType,
		FuelType:     fuelType,
		TankCapacity: input.TankCapacity,
		Status:       status,
		OwnerUID:     ownerUID,
	}, nil
}

func applyVehicleUpdates(vehicle *models.Vehicle, input UpdateVehicleInput) error {
	if input.PlateNumber != nil {
		plate := strings.ToUpper(strings.TrimSpace(*input.PlateNumber))
		if plate == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "license plate cannot be empty")
		}
		vehicle.PlateNumber = plate
	}
	if input.Make != nil {
		vehicle.Make = strings.TrimSpace(*input.Make)
	}
	if input.Model != nil {
		vehicle.Model = strings.TrimSpace(*input.Model)
	}
	if input.Year != nil {
		if *input.Year != 0 && (*input.Year < 1950 || *input.Year > time.Now().Year()+1) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle year")
		}
		vehicle.Year = *input.Year
	}
	if input.Type != nil {
		parsed, err := enums.ParseVehicleType(*input.Type)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle type")
		}
		vehicle.Type = parsed
	}
	if input.FuelType != nil {
		parsed, err := enums.ParseFuelType(*input.FuelType)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid fuel type")
		}
		vehicle.FuelType = parsed
	}
	if input.TankCapacity != nil {
		if *input.TankCapacity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "tank capacity cannot be negative")
		}
		vehicle.TankCapacity = *input.TankCapacity
	}
	if input.Status != nil {
		parsed, err := enums.ParseVehicleStatus(*input.Status)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle status")
		}
		vehicle.Status = parsed
	}
	if input.DriverUID != nil {
		if *input.DriverUID == uuid.Nil {
			vehicle.DriverUID = nil
		} else {
			uid := *input.DriverUID
			vehicle.DriverUID = &uid
		}
	}
	return nil
}
