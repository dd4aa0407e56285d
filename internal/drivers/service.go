package drivers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
)

type driverRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Driver, error)
	List(ctx context.Context, ownerUID *uuid.UUID) ([]models.Driver, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.UserStatus) error
}

// Service exposes the driver roster. Drivers are created through the vehicle
// registration flow; this surface is read plus status changes.
type Service interface {
	List(ctx context.Context, actor pkgauth.Principal) ([]DriverDTO, error)
	GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*DriverDTO, error)
	SetStatus(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, status enums.UserStatus) (*DriverDTO, error)
}

type service struct {
	repo driverRepository
}

// NewService builds a drivers service.
func NewService(repo driverRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("driver repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, actor pkgauth.Principal) ([]DriverDTO, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver roster requires a union role")
	}
	var owner *uuid.UUID
	if !actor.IsAdmin() {
		owner = &actor.UID
	}
	rows, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list drivers")
	}
	return FromModels(rows), nil
}

func (s *service) GetByID(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*DriverDTO, error) {
	driver, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(driver), nil
}

func (s *service) SetStatus(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, status enums.UserStatus) (*DriverDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid driver status")
	}
	driver, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, driver.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update driver status")
	}
	driver.Status = status
	return FromModel(driver), nil
}

func (s *service) loadOwned(ctx context.Context, actor pkgauth.Principal, id uuid.UUID) (*models.Driver, error) {
	if !actor.HasRole(enums.RoleUnion, enums.RoleAdmin) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver roster requires a union role")
	}
	driver, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
	}
	if !actor.IsAdmin() && driver.OwnerUID != actor.UID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver belongs to another union")
	}
	return driver, nil
}
