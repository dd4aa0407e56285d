package members

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/etfuel/etfuel-backend/internal/identity"
	"github.com/etfuel/etfuel-backend/internal/users"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db/models"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	pkgerrors "github.com/etfuel/etfuel-backend/pkg/errors"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
)

func setupMembersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  member_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'admin',
  department TEXT NOT NULL DEFAULT 'administration',
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
	db := setupMembersTestDB(t)
	provider := newStubProvisioner()
	profiles := &stubProfileCreator{}
	audit := &stubAudit{}
	svc, err := NewService(NewRepository(db), provider, profiles, audit, gormTx{db: db}, config.PasswordConfig{BcryptCost: 4})
	require.NoError(t, err)
	return &fixture{svc: svc, db: db, provider: provider, profiles: profiles, audit: audit}
}

func adminActor() pkgauth.Principal {
	return pkgauth.Principal{UID: uuid.New(), Role: enums.RoleAdmin}
}

func TestCreateWithLinkedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dto, err := f.svc.Create(ctx, adminActor(), CreateMemberInput{
		Name:       "Elif Kaya",
		Email:      "Elif@etfuel.dev",
		Phone:      "+90 555 111 2233",
		Role:       "auditor",
		Department: "finance",
		Account:    &AccountRegistration{Email: "elif@etfuel.dev", Password: "Str0ng!pass"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ADM_", dto.MemberID[:4])
	assert.Equal(t, "elif@etfuel.dev", dto.Email)
	assert.Equal(t, enums.MemberRoleAuditor, dto.Role)
	assert.Equal(t, enums.DepartmentFinance, dto.Department)
	require.NotNil(t, dto.AccountUID)

	var member models.Member
	require.NoError(t, f.db.First(&member, "id = ?", dto.ID).Error)
	assert.Equal(t, "Elif Kaya", member.Name)

	require.Len(t, f.profiles.created, 1)
	assert.Equal(t, enums.RoleAdmin, f.profiles.created[0].Role)
	assert.Contains(t, f.profiles.created[0].Permissions, "auditor")
	assert.Contains(t, f.profiles.created[0].Permissions, "finance")
	assert.Equal(t, "admin", f.provider.claims[*dto.AccountUID]["role"])

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, enums.AuditEventMemberCreated, f.audit.events[0].EventType)
	assert.Equal(t, enums.AuditAggregateMember, f.audit.events[0].AggregateType)
}

func TestCreateRejectsWeakPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, adminActor(), CreateMemberInput{
		Name:    "Weak Pass",
		Email:   "weak@etfuel.dev",
		Account: &AccountRegistration{Email: "weak@etfuel.dev", Password: "password"},
	})
	require.Error(t, err)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	var count int64
	require.NoError(t, f.db.Model(&models.Member{}).Count(&count).Error)
	assert.Zero(t, count, "failed provisioning must not leave a member row")
	assert.Empty(t, f.profiles.created)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, adminActor(), CreateMemberInput{Name: "First", Email: "dup@etfuel.dev"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, adminActor(), CreateMemberInput{Name: "Second", Email: "DUP@etfuel.dev"})
	require.Error(t, err)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestCreateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, role := range []enums.Role{enums.RoleUnion, enums.RoleStation, enums.RoleDriver} {
		_, err := f.svc.Create(ctx, pkgauth.Principal{UID: uuid.New(), Role: role}, CreateMemberInput{
			Name:  "Unauthorized",
			Email: "nope@etfuel.dev",
		})
		require.Error(t, err)

		var appErr *pkgerrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
	}
}

func TestUpdateRoleAndDepartment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := adminActor()

	created, err := f.svc.Create(ctx, actor, CreateMemberInput{Name: "Mehmet", Email: "mehmet@etfuel.dev"})
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleAdmin, created.Role)
	assert.Equal(t, enums.DepartmentAdministration, created.Department)

	role := "manager"
	department := "operations"
	updated, err := f.svc.Update(ctx, actor, created.ID, UpdateMemberInput{Role: &role, Department: &department})
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleManager, updated.Role)
	assert.Equal(t, enums.DepartmentOperations, updated.Department)

	bad := "root"
	_, err = f.svc.Update(ctx, actor, created.ID, UpdateMemberInput{Role: &bad})
	require.Error(t, err)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestDeleteAndListMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := adminActor()

	first, err := f.svc.Create(ctx, actor, CreateMemberInput{Name: "First", Email: "first@etfuel.dev"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, actor, CreateMemberInput{Name: "Second", Email: "second@etfuel.dev"})
	require.NoError(t, err)

	listed, err := f.svc.List(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, f.svc.Delete(ctx, actor, first.ID))

	listed, err = f.svc.List(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = f.svc.GetByID(ctx, actor, first.ID)
	require.Error(t, err)

	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
