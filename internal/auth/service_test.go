package auth

import (
	"context"
	"errors"
	"testing"
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
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "etfuel",
		IDTokenTTLMinutes:      60,
		CustomTokenTTLMinutes:  5,
		ResetTokenTTLMinutes:   30,
		RefreshTokenTTLMinutes: 120,
	}
}

type stubProvider struct {
	jwtCfg     config.JWTConfig
	byEmail    map[string]*identity.AccountDTO
	byUID      map[uuid.UUID]*identity.AccountDTO
	claimsErr  error
	claimWrite int
	passwords  map[uuid.UUID]string
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		jwtCfg:    testJWTConfig(),
		byEmail:   make(map[string]*identity.AccountDTO),
		byUID:     make(map[uuid.UUID]*identity.AccountDTO),
		passwords: make(map[uuid.UUID]string),
	}
}

func (p *stubProvider) addAccount(email string) *identity.AccountDTO {
	account := &identity.AccountDTO{
		UID:          uuid.New(),
		Email:        email,
		CustomClaims: map[string]string{},
	}
	p.byEmail[email] = account
	p.byUID[account.UID] = account
	return account
}

func (p *stubProvider) GetByEmail(ctx context.Context, email string) (*identity.AccountDTO, error) {
	if account, ok := p.byEmail[email]; ok {
		return account, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
}

func (p *stubProvider) GetByUID(ctx context.Context, uid uuid.UUID) (*identity.AccountDTO, error) {
	if account, ok := p.byUID[uid]; ok {
		return account, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
}

func (p *stubProvider) CreateAccountTx(ctx context.Context, tx *gorm.DB, input identity.CreateAccountInput) (*identity.AccountDTO, error) {
	if _, exists := p.byEmail[input.Email]; exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}
	account := p.addAccount(input.Email)
	account.DisplayName = input.DisplayName
	p.passwords[account.UID] = input.Password
	return account, nil
}

func (p *stubProvider) SetCustomClaims(ctx context.Context, uid uuid.UUID, claims map[string]string) error {
	if p.claimsErr != nil {
		return p.claimsErr
	}
	p.claimWrite++
	account, ok := p.byUID[uid]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	account.CustomClaims = map[string]string{}
	for k, v := range claims {
		account.CustomClaims[k] = v
	}
	return nil
}

func (p *stubProvider) CreateCustomToken(ctx context.Context, uid uuid.UUID, claims map[string]string) (string, error) {
	account, ok := p.byUID[uid]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	roleValue := claims[identity.RoleClaim]
	if roleValue == "" {
		roleValue = account.CustomClaims[identity.RoleClaim]
	}
	return pkgauth.MintCustomToken(p.jwtCfg, time.Now(), uid, enums.RoleOrBaseline(roleValue))
}

func (p *stubProvider) UpdatePassword(ctx context.Context, uid uuid.UUID, newPassword string) error {
	p.passwords[uid] = newPassword
	return nil
}

func (p *stubProvider) UpdateProfile(ctx context.Context, uid uuid.UUID, input identity.ProfileUpdateInput) error {
	account, ok := p.byUID[uid]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	if input.DisplayName != nil {
		account.DisplayName = *input.DisplayName
	}
	return nil
}

type stubProfiles struct {
	byUID        map[uuid.UUID]*models.User
	lastLoginErr error
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{byUID: make(map[uuid.UUID]*models.User)}
}

func (p *stubProfiles) add(uid uuid.UUID, email, passwordHash string, role enums.Role) *models.User {
	user := &models.User{
		UID:          uid,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       enums.UserStatusActive,
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now().Add(-time.Hour),
	}
	p.byUID[uid] = user
	return user
}

func (p *stubProfiles) CreateTx(ctx context.Context, tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	p.byUID[dto.UID] = user
	return user, nil
}

func (p *stubProfiles) FindByUID(ctx context.Context, uid uuid.UUID) (*models.User, error) {
	if user, ok := p.byUID[uid]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (p *stubProfiles) UpdateLastLogin(ctx context.Context, uid uuid.UUID, at time.Time) error {
	if p.lastLoginErr != nil {
		return p.lastLoginErr
	}
	user, ok := p.byUID[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLoginAt = &at
	user.UpdatedAt = at
	return nil
}

func (p *stubProfiles) UpdateProfile(ctx context.Context, uid uuid.UUID, updates map[string]any) error {
	user, ok := p.byUID[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		user.Name = name
	}
	if role, ok := updates["role"].(enums.Role); ok {
		user.Role = role
	}
	if status, ok := updates["status"].(enums.UserStatus); ok {
		user.Status = status
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (p *stubProfiles) UpdatePasswordHash(ctx context.Context, uid uuid.UUID, hash string) error {
	user, ok := p.byUID[uid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = hash
	return nil
}

type stubSessions struct {
	tokens map[string]string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: make(map[string]string)}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", errors.New("invalid refresh token")
	}
	delete(s.tokens, oldAccessID)
	newID := uuid.NewString()
	token := "refresh-" + newID
	s.tokens[newID] = token
	return newID, token, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

type stubRedeem struct {
	data map[string]string
}

func newStubRedeem() *stubRedeem {
	return &stubRedeem{data: make(map[string]string)}
}

func (r *stubRedeem) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := r.data[key]; exists {
		return false, nil
	}
	r.data[key] = "1"
	return true, nil
}

func (r *stubRedeem) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	r.data[key] = value.(string)
	return nil
}

func (r *stubRedeem) Get(ctx context.Context, key string) (string, error) {
	v, ok := r.data[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (r *stubRedeem) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(r.data, key)
	}
	return nil
}

func (r *stubRedeem) ExchangeTokenKey(tokenID string) string { return "exchange:" + tokenID }
func (r *stubRedeem) ResetTokenKey(tokenID string) string    { return "reset:" + tokenID }

type stubAudit struct {
	events []outbox.AuditEvent
}

func (a *stubAudit) Emit(ctx context.Context, tx *gorm.DB, event outbox.AuditEvent) error {
	a.events = append(a.events, event)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fixture struct {
	svc      Service
	provider *stubProvider
	profiles *stubProfiles
	sessions *stubSessions
	redeem   *stubRedeem
	audit    *stubAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := newStubProvider()
	profiles := newStubProfiles()
	sessions := newStubSessions()
	redeem := newStubRedeem()
	audit := &stubAudit{}

	svc, err := NewService(ServiceParams{
		Provider: provider,
		Profiles: profiles,
		Sessions: sessions,
		Redeem:   redeem,
		Audit:    audit,
		Tx:       stubTx{},
		JWT:      testJWTConfig(),
		Password: config.PasswordConfig{BcryptCost: 4},
		BaseURL:  "https://app.etfuel.dev",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, provider: provider, profiles: profiles, sessions: sessions, redeem: redeem, audit: audit}
}

func (f *fixture) seedUser(t *testing.T, email, password string, role enums.Role) *identity.AccountDTO {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{BcryptCost: 4})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	account := f.provider.addAccount(email)
	f.profiles.add(account.UID, email, hash, role)
	return account
}

func TestLoginWrongPasswordMatchesUnknownEmail(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "known@etfuel.dev", "sekret1", enums.RoleUnion)
	ctx := context.Background()

	_, wrongErr := f.svc.Login(ctx, "known@etfuel.dev", "nope")
	_, unknownErr := f.svc.Login(ctx, "ghost@etfuel.dev", "nope")

	if wrongErr == nil || unknownErr == nil {
		t.Fatal("expected both logins to fail")
	}
	if wrongErr.Error() != unknownErr.Error() {
		t.Fatalf("expected identical messages, got %q vs %q", wrongErr, unknownErr)
	}

	if typed := pkgerrors.As(wrongErr); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", wrongErr)
	}
}

func TestLoginUpdatesTimestampsEvenWhenClaimWriteFails(t *testing.T) {
	f := newFixture(t)
	account := f.seedUser(t, "ops@etfuel.dev", "sekret1", enums.RoleStation)
	f.provider.claimsErr = errors.New("claims backend down")
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "ops@etfuel.dev", "sekret1")
	if err != nil {
		t.Fatalf("login should survive claim write failure: %v", err)
	}
	if result.User.LastLoginAt == nil {
		t.Fatal("expected lastLogin to be set")
	}

	stored := f.profiles.byUID[account.UID]
	if stored.LastLoginAt == nil {
		t.Fatal("expected persisted lastLogin")
	}
	if !stored.UpdatedAt.Equal(*stored.LastLoginAt) {
		t.Fatalf("expected updatedAt == lastLogin, got %v vs %v", stored.UpdatedAt, stored.LastLoginAt)
	}
}

func TestLoginTokenRoleEqualsProfileRole(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "station@etfuel.dev", "sekret1", enums.RoleStation)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "station@etfuel.dev", "sekret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgauth.ParseCustomToken(testJWTConfig(), result.CustomToken)
	if err != nil {
		t.Fatalf("parse custom token: %v", err)
	}
	if claims.Role != enums.RoleStation {
		t.Fatalf("expected station role, got %s", claims.Role)
	}
}

func TestLoginTokenRoleBaselineWhenProfileRoleAbsent(t *testing.T) {
	f := newFixture(t)
	account := f.seedUser(t, "bare@etfuel.dev", "sekret1", enums.RoleUnion)
	f.profiles.byUID[account.UID].Role = ""
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "bare@etfuel.dev", "sekret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgauth.ParseCustomToken(testJWTConfig(), result.CustomToken)
	if err != nil {
		t.Fatalf("parse custom token: %v", err)
	}
	if claims.Role != enums.RoleBaseline {
		t.Fatalf("expected baseline role, got %s", claims.Role)
	}
}

func TestRegisterDuplicateEmailLeavesNoProfile(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "taken@etfuel.dev", "sekret1", enums.RoleUnion)
	ctx := context.Background()

	before := len(f.profiles.byUID)
	_, err := f.svc.Register(ctx, RegisterInput{Email: "taken@etfuel.dev", Password: "other1", Name: "Dup"})
	if err == nil {
		t.Fatal("expected conflict")
	}

	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
	if len(f.profiles.byUID) != before {
		t.Fatal("conflict must not create a profile record")
	}
}

func TestRegisterAssignsBaselineRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "Secret123!", Name: "Alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Role != enums.RoleUnion {
		t.Fatalf("expected union role, got %s", result.User.Role)
	}
	if result.CustomToken == "" {
		t.Fatal("expected exchange token")
	}
	if len(f.audit.events) == 0 || f.audit.events[0].EventType != enums.AuditEventUserRegistered {
		t.Fatal("expected user_registered audit event")
	}
}

func TestExchangeSessionRedeemsOnce(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "once@etfuel.dev", "sekret1", enums.RoleUnion)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "once@etfuel.dev", "sekret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	session, err := f.svc.ExchangeSession(ctx, login.CustomToken)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if session.IDToken == "" || session.RefreshToken == "" {
		t.Fatal("expected full session pair")
	}

	if _, err := f.svc.ExchangeSession(ctx, login.CustomToken); err == nil {
		t.Fatal("expected replayed exchange token to be rejected")
	}
}

func TestRefreshPicksUpClaimsWrittenAfterLogin(t *testing.T) {
	f := newFixture(t)
	account := f.seedUser(t, "promote@etfuel.dev", "sekret1", enums.RoleUnion)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "promote@etfuel.dev", "sekret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	session, err := f.svc.ExchangeSession(ctx, login.CustomToken)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	// Promote after the session was minted; only refresh should see it.
	if err := f.provider.SetCustomClaims(ctx, account.UID, map[string]string{identity.RoleClaim: "admin"}); err != nil {
		t.Fatalf("set claims: %v", err)
	}

	oldClaims, err := pkgauth.ParseIDToken(testJWTConfig(), session.IDToken)
	if err != nil {
		t.Fatalf("parse id token: %v", err)
	}
	if oldClaims.Role != enums.RoleUnion {
		t.Fatalf("pre-refresh token should carry the old role, got %s", oldClaims.Role)
	}

	refreshed, err := f.svc.RefreshSession(ctx, session.IDToken, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	newClaims, err := pkgauth.ParseIDToken(testJWTConfig(), refreshed.IDToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if newClaims.Role != enums.RoleAdmin {
		t.Fatalf("expected refreshed token to carry admin, got %s", newClaims.Role)
	}
}

func TestUpdateProfileIdempotent(t *testing.T) {
	f := newFixture(t)
	account := f.seedUser(t, "edit@etfuel.dev", "sekret1", enums.RoleUnion)
	ctx := context.Background()

	name := "Edited Name"
	role := enums.RoleStation
	input := UpdateProfileInput{Name: &name, Role: &role}

	first, err := f.svc.UpdateProfile(ctx, account.UID, input)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	second, err := f.svc.UpdateProfile(ctx, account.UID, input)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	if first.Name != second.Name || first.Role != second.Role || first.Status != second.Status {
		t.Fatalf("expected idempotent result, got %+v vs %+v", first, second)
	}
	if f.provider.byUID[account.UID].CustomClaims[identity.RoleClaim] != "station" {
		t.Fatal("expected role claim mirrored to account")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "forgot@etfuel.dev", "old-pass", enums.RoleUnion)
	ctx := context.Background()

	// Unknown emails get the same message and no link.
	ghost, err := f.svc.RequestPasswordReset(ctx, "ghost@etfuel.dev")
	if err != nil {
		t.Fatalf("reset unknown: %v", err)
	}
	if ghost.ResetLink != "" {
		t.Fatal("unknown email should not produce a link")
	}

	result, err := f.svc.RequestPasswordReset(ctx, "forgot@etfuel.dev")
	if err != nil {
		t.Fatalf("reset request: %v", err)
	}
	if result.Message != ghost.Message {
		t.Fatal("reset messages must not reveal account existence")
	}
	if result.ResetLink == "" {
		t.Fatal("expected reset link for existing account")
	}

	token := result.ResetLink[len("https://app.etfuel.dev/reset-password?token="):]
	if err := f.svc.ConfirmPasswordReset(ctx, token, "new-pass1"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}

	// Token is single use.
	if err := f.svc.ConfirmPasswordReset(ctx, token, "again1"); err == nil {
		t.Fatal("expected replayed reset token to be rejected")
	}

	if _, err := f.svc.Login(ctx, "forgot@etfuel.dev", "old-pass"); err == nil {
		t.Fatal("old password should no longer work")
	}
	if _, err := f.svc.Login(ctx, "forgot@etfuel.dev", "new-pass1"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "bye@etfuel.dev", "sekret1", enums.RoleUnion)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "bye@etfuel.dev", "sekret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	session, err := f.svc.ExchangeSession(ctx, login.CustomToken)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	claims, err := pkgauth.ParseIDToken(testJWTConfig(), session.IDToken)
	if err != nil {
		t.Fatalf("parse id token: %v", err)
	}
	if err := f.svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := f.svc.RefreshSession(ctx, session.IDToken, session.RefreshToken); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}
}
