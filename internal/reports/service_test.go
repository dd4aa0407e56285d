package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/internal/stations"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/pagination"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS stations (
  id TEXT PRIMARY KEY,
  station_id TEXT NOT NULL,
  name TEXT NOT NULL,
  code TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL DEFAULT 'charging',
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  zip_code TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  contact_person TEXT NOT NULL DEFAULT '',
  contact_phone TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  capacity INTEGER NOT NULL DEFAULT 10,
  status TEXT NOT NULL DEFAULT 'active',
  opens_at TEXT NOT NULL DEFAULT '08:00',
  closes_at TEXT NOT NULL DEFAULT '20:00',
  latitude NUMERIC,
  longitude NUMERIC,
  owner_uid TEXT NOT NULL,
  account_uid TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  station_uid TEXT NOT NULL,
  report_date DATETIME NOT NULL,
  fuel_volume NUMERIC NOT NULL DEFAULT 0,
  revenue NUMERIC NOT NULL DEFAULT 0,
  vehicle_count INTEGER NOT NULL DEFAULT 0,
  notes TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  filed_by_uid TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
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
	svc   Service
	db    *gorm.DB
	audit *stubAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupReportsTestDB(t)
	audit := &stubAudit{}
	svc, err := NewService(NewRepository(db), stations.NewRepository(db), audit, gormTx{db: db})
	require.NoError(t, err)
	return &fixture{svc: svc, db: db, audit: audit}
}

func seedStation(t *testing.T, db *gorm.DB, owner uuid.UUID, accountUID *uuid.UUID) *models.Station {
	t.Helper()
	station := &models.Station{
		ID:         uuid.New(),
		StationID:  "ST_1001",
		Name:       "North Depot",
		Type:       enums.StationTypeCharging,
		Capacity:   10,
		Status:     enums.StationStatusActive,
		OpensAt:    "08:00",
		ClosesAt:   "20:00",
		OwnerUID:   owner,
		AccountUID: accountUID,
	}
	require.NoError(t, db.Create(station).Error)
	return station
}

func TestStationOperatorFilesOwnReportOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	operatorUID := uuid.New()
	station := seedStation(t, f.db, owner, &operatorUID)
	otherStation := seedStation(t, f.db, uuid.New(), nil)

	operator := pkgauth.Principal{UID: operatorUID, Role: enums.RoleStation}

	dto, err := f.svc.File(ctx, operator, FileReportInput{
		StationUID:   station.ID,
		FuelVolume:   "1250.500",
		Revenue:      "48200.75",
		VehicleCount: 86,
		Notes:        "night shift included",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusPending, dto.Status)
	assert.Equal(t, "1250.5", dto.FuelVolume.String())
	assert.Equal(t, operatorUID, dto.FiledByUID)
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, enums.AuditEventReportFiled, f.audit.events[0].EventType)

	_, err = f.svc.File(ctx, operator, FileReportInput{StationUID: otherStation.ID, FuelVolume: "10"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestFileRejectsBadAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	station := seedStation(t, f.db, owner, nil)
	union := pkgauth.Principal{UID: owner, Role: enums.RoleUnion}

	_, err := f.svc.File(ctx, union, FileReportInput{StationUID: station.ID, FuelVolume: "lots"})
	require.Error(t, err)

	_, err = f.svc.File(ctx, union, FileReportInput{StationUID: station.ID, Revenue: "-5"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestListScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	station := seedStation(t, f.db, owner, nil)
	foreign := seedStation(t, f.db, uuid.New(), nil)

	union := pkgauth.Principal{UID: owner, Role: enums.RoleUnion}
	admin := pkgauth.Principal{UID: uuid.New(), Role: enums.RoleAdmin}

	for _, target := range []*models.Station{station, foreign} {
		_, err := f.svc.File(ctx, admin, FileReportInput{
			StationUID: target.ID,
			FuelVolume: "100",
			ReportDate: time.Now(),
		})
		require.NoError(t, err)
	}

	mine, err := f.svc.List(ctx, union, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, mine.Reports, 1)
	assert.Equal(t, station.ID, mine.Reports[0].StationUID)
	assert.Empty(t, mine.NextCursor)

	all, err := f.svc.List(ctx, admin, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Reports, 2)

	driver := pkgauth.Principal{UID: uuid.New(), Role: enums.RoleDriver}
	_, err = f.svc.List(ctx, driver, pagination.Params{})
	require.Error(t, err)
}

func TestListPaginatesWithCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	station := seedStation(t, f.db, owner, nil)
	admin := pkgauth.Principal{UID: uuid.New(), Role: enums.RoleAdmin}

	for i := 0; i < 3; i++ {
		_, err := f.svc.File(ctx, admin, FileReportInput{StationUID: station.ID, FuelVolume: "50"})
		require.NoError(t, err)
	}

	first, err := f.svc.List(ctx, admin, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Reports, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := f.svc.List(ctx, admin, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Reports, 1)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, dto := range append(first.Reports, second.Reports...) {
		assert.False(t, seen[dto.ID], "report repeated across pages")
		seen[dto.ID] = true
	}

	_, err = f.svc.List(ctx, admin, pagination.Params{Cursor: "%%%"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestSetStatusRequiresOwningUnion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := uuid.New()
	station := seedStation(t, f.db, owner, nil)
	union := pkgauth.Principal{UID: owner, Role: enums.RoleUnion}

	dto, err := f.svc.File(ctx, union, FileReportInput{StationUID: station.ID, FuelVolume: "90"})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, pkgauth.Principal{UID: uuid.New(), Role: enums.RoleUnion}, dto.ID, "completed")
	require.Error(t, err)

	updated, err := f.svc.SetStatus(ctx, union, dto.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, enums.ReportStatusCompleted, updated.Status)

	var stored models.Report
	require.NoError(t, f.db.First(&stored, "id = ?", dto.ID).Error)
	assert.Equal(t, enums.ReportStatusCompleted, stored.Status)

	_, err = f.svc.SetStatus(ctx, union, dto.ID, "archived")
	require.Error(t, err)
}
