package vehicles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/internal/drivers"
	"github.com/etfuel/etfuel-backend/internal/identity"
	"github.com/etfuel/etfuel-backend/internal/users"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
)

func setupVehiclesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS vehicles (
  id TEXT PRIMARY KEY,
  vehicle_id TEXT NOT NULL UNIQUE,
  plate_number TEXT NOT NULL UNIQUE,
  make TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  type TEXT NOT NULL DEFAULT 'truck',
  fuel_type TEXT NOT NULL DEFAULT 'diesel',
  tank_capacity INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  driver_uid TEXT,
  owner_uid TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS drivers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  phone TEXT NOT NULL DEFAULT '',
  license_number TEXT NOT NULL,
  license_expiry DATETIME,
  status TEXT NOT NULL DEFAULT 'active',
  owner_uid TEXT NOT NULL,
  account_uid TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type stubProvisioner struct {
	accounts map[string]uuid.UUID
	claims   map[uuid.UUID]map[string]string
}

func newStubProvisioner() *stubProvisioner {
	return &stubProvisioner{
		accounts: make(map[string]uuid.UUID),
		claims:   make(map[uuid.UUID]map[string]string),
	}
}

func (p *stubProvisioner) CreateAccountTx(ctx context.Context, tx *gorm.DB, input identity.CreateAccountInput) (*identity.AccountDTO, error) {
	uid := uuid.New()
	p.accounts[input.Email] = uid
	return &identity.AccountDTO{UID: uid, Email: input.Email, DisplayName: input.DisplayName}, nil
}

func (p *stubProvisioner) SetCustomClaims(ctx context.Context, uid uuid.UUID, claims map[string]string) error {
	p.claims[uid] = claims
	return nil
}

type stubProfileCreator struct {
	created []users.CreateUserDTO
}

func (c *stubProfileCreator) CreateTx(ctx context.Context, tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error) {
	c.created = append(c.created, dto)
	return dto.ToModel(), nil
}

type stubAudit struct {
	events []outbox.AuditEvent
}

func (a *stubAudit) Emit(ctx context.Context, tx *gorm.DB, event outbox.AuditEvent) error {
	a.events = append(a.events, event)
	return nil
}

type gormTx struct {
	db *gorm.DB
}

func (g gormTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	svc      Service
	db       *gorm.DB
	provider *stubProvisioner
	profiles *stubProfileCreator
	audit    *stubAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupVehiclesTestDB(t)
	provider := newStubProvisioner()
	profiles := &stubProfileCreator{}
	audit := &stubAudit{}
	svc, err := NewService(NewRepository(db), drivers.NewRepository(db), provider, profiles, audit, gormTx{db: db}, config.PasswordConfig{BcryptCost: 4})
	require.NoError(t, err)
	return &fixture{svc: svc, db: db, provider: provider, profiles: profiles, audit: audit}
}

func unionActor() pkgauth.Principal {
	return pkgauth.Principal{UID: uuid.New(), Role: enums.RoleUnion}
}

func TestCreateWithInlineDriverAndAccount(t *testing.T) {
	f := newFixture(t)
	actor := unionActor()
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, actor, CreateVehicleInput{
		PlateNumber: "34 etf 101",
		Make:        "Ford",
		Model:       "F-Max",
		Year:        2022,
		Type:        "truck",
		FuelType:    "diesel",
		Driver: &DriverInput{
			Name:          "Ayse Demir",
			LicenseNumber: "DL-8842",
			Phone:         "+90 555 000 0000",
			Email:         "Ayse@etfuel.dev",
		},
		Account: &AccountRegistration{Email: "ayse@etfuel.dev", Password: "sekret1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "34 ETF 101", dto.PlateNumber)
	assert.Equal(t, "VH_", dto.VehicleID[:3])
	require.NotNil(t, dto.DriverUID)

	var driver models.Driver
	require.NoError(t, f.db.First(&driver, "id = ?", *dto.DriverUID).Error)
	assert.Equal(t, "Ayse Demir", driver.Name)
	assert.Equal(t, "ayse@etfuel.dev", driver.Email)
	require.NotNil(t, driver.AccountUID)

	require.Len(t, f.profiles.created, 1)
	assert.Equal(t, enums.RoleDriver, f.profiles.created[0].Role)
	assert.Equal(t, "driver", f.provider.claims[*driver.AccountUID]["role"])

	types := []enums.AuditEventType{}
	for _, event := range f.audit.events {
		types = append(types, event.EventType)
	}
	assert.Contains(t, types, enums.AuditEventDriverCreated)
	assert.Contains(t, types, enums.AuditEventVehicleCreated)
}

func TestCreateDuplicatePlateConflicts(t *testing.T) {
	f := newFixture(t)
	actor := unionActor()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, actor, CreateVehicleInput{PlateNumber: "34ETF200"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, actor, CreateVehicleInput{PlateNumber: "34etf200"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestCreateAccountRequiresDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, unionActor(), CreateVehicleInput{
		PlateNumber: "34ETF300",
		Account:     &AccountRegistration{Email: "ghost@etfuel.dev", Password: "sekret1"},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestUpdateAndOwnership(t *testing.T) {
	f := newFixture(t)
	owner := unionActor()
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, owner, CreateVehicleInput{PlateNumber: "34ETF400"})
	require.NoError(t, err)

	status := "maintenance"
	_, err = f.svc.Update(ctx, unionActor(), dto.ID, UpdateVehicleInput{Status: &status})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	updated, err := f.svc.Update(ctx, owner, dto.ID, UpdateVehicleInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStatusMaintenance, updated.Status)

	bad := "scrapped"
	_, err = f.svc.Update(ctx, owner, dto.ID, UpdateVehicleInput{Status: &bad})
	require.Error(t, err)
}

func TestDeleteRemovesVehicle(t *testing.T) {
	f := newFixture(t)
	owner := unionActor()
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, owner, CreateVehicleInput{PlateNumber: "34ETF500"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, owner, dto.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Vehicle{}).Count(&count).Error)
	assert.Zero(t, count)

	last := f.audit.events[len(f.audit.events)-1]
	assert.Equal(t, enums.AuditEventVehicleDeleted, last.EventType)
}
