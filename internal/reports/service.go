package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/pagination"
)

type reportRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, report *models.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByStation(ctx context.Context, stationUID uuid.UUID) ([]models.Report, error)
	ListForOwner(ctx context.Context, ownerUID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Report, error)
	ListAll(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type stationLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Station, error)
}

type auditEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.AuditEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// FileReportInput mirrors the station operator's daily report form. Volume
// and revenue arrive as free-text amounts.
type FileReportInput struct {
	StationUID   uuid.UUID
	ReportDate   time.Time
	FuelVolume   string
	Revenue      string
	VehicleCount int
	Notes        string
}

// Service exposes the reporting surface: stations file, unions review.
type Service interface {
	List(ctx context.Context, actor pkgauth.Principal, params pagination.Params) (*ReportPage, error)
	ListByStation(ctx context.Context, actor pkgauth.Principal, stationUID uuid.UUID) ([]ReportDTO, error)
	File(ctx context.Context, actor pkgauth.Principal, input FileReportInput) (*ReportDTO, error)
	SetStatus(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, status string) (*ReportDTO, error)
}

type service struct {
	repo     reportRepository
	stations stationLookup
	audit    auditEmitter
	tx       txRunner
	now      func() time.Time
}

// NewService builds a reports service with the provided dependencies.
func NewService(repo reportRepository, stations stationLookup, audit auditEmitter, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("report repository required")
	}
	if stations == nil {
		return nil, fmt.Errorf("station lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, stations: stations, audit: audit, tx: tx, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, actor pkgauth.Principal, params pagination.Params) (*ReportPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	fetch := pagination.LimitWithBuffer(params.Limit)

	var rows []models.Report
	switch {
	case actor.IsAdmin():
		rows, err = s.repo.ListAll(ctx, cursor, fetch)
	case actor.HasRole(enums.RoleUnion):
		rows, err = s.repo.ListForOwner(ctx, actor.UID, cursor, fetch)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "report access requires a union role")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reports")
	}

	page := &ReportPage{}
	if limit := pagination.NormalizeLimit(params.Limit); len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Reports = FromModels(rows)
	return page, nil
}

func (s *service) ListByStation(ctx context.Context, actor pkgauth.Principal, stationUID uuid.UUID) ([]ReportDTO, error) {
	station, err := s.loadStation(ctx, stationUID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStationAccess(actor, station); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStation(ctx, station.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list station reports")
	}
	return FromModels(rows), nil
}

// File records a daily report for a station. Station operators may only file
// for their own station.
func (s *service) File(ctx context.Context, actor pkgauth.Principal, input FileReportInput) (*ReportDTO, error) {
	station, err := s.loadStation(ctx, input.StationUID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStationAccess(actor, station); err != nil {
		return nil, err
	}

	volume, err := parseAmount(input.FuelVolume)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fuel volume")
	}
	revenue, err := parseAmount(input.Revenue)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid revenue")
	}
	if input.VehicleCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle count cannot be negative")
	}

	reportDate := input.ReportDate
	if reportDate.IsZero() {
		reportDate = s.now().UTC().Truncate(24 * time.Hour)
	}

	report := &models.Report{
		ID:           uuid.New(),
		StationUID:   station.ID,
		ReportDate:   reportDate,
		FuelVolume:   volume,
		Revenue:      revenue,
		VehicleCount: input.VehicleCount,
		Notes:        strings.TrimSpace(input.Notes),
		Status:       enums.ReportStatusPending,
		FiledByUID:   actor.UID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if createErr := s.repo.CreateTx(ctx, tx, report); createErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "file report")
		}
		return s.emitTx(ctx, tx, enums.AuditEventReportFiled, report, actor)
	})
	if err != nil {
		return nil, err
	}
	return FromModel(report), nil
}

// SetStatus moves a report through pending/review/completed. Union owners and
// admins only.
func (s *service) SetStatus(ctx context.Context, actor pkgauth.Principal, id uuid.UUID, status string) (*ReportDTO, error) {
	parsed, err := enums.ParseReportStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid report status")
	}

	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load report")
	}

	station, err := s.loadStation(ctx, report.StationUID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.HasRole(enums.RoleUnion) && station.OwnerUID == actor.UID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "report review requires the owning union")
	}

	if err := s.repo.UpdateStatus(ctx, report.ID, parsed.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update report status")
	}
	report.Status = parsed

	_ = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.emitTx(ctx, tx, enums.AuditEventReportUpdated, report, actor)
	})
	return FromModel(report), nil
}

func (s *service) loadStation(ctx context.Context, id uuid.UUID) (*models.Station, error) {
	station, err := s.stations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "station not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load station")
	}
	return station, nil
}

// authorizeStationAccess admits admins, the owning union, and the station's
// own linked login account.
func (s *service) authorizeStationAccess(actor pkgauth.Principal, station *models.Station) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.HasRole(enums.RoleUnion) && station.OwnerUID == actor.UID {
		return nil
	}
	if actor.HasRole(enums.RoleStation) && station.AccountUID != nil && *station.AccountUID == actor.UID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "no access to this station")
}

func (s *service) emitTx(ctx context.Context, tx *gorm.DB, eventType enums.AuditEventType, report *models.Report, actor pkgauth.Principal) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Emit(ctx, tx, outbox.AuditEvent{
		EventType:     eventType,
		AggregateType: enums.AuditAggregateReport,
		AggregateID:   report.ID,
		Actor:         &outbox.ActorRef{UID: actor.UID, Role: actor.Role.String()},
		Data: map[string]string{
			"stationUid": report.StationUID.String(),
			"reportDate": report.ReportDate.Format("2006-01-02"),
			"status":     report.Status.String(),
		},
	})
}

func parseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, err
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return value, nil
}
