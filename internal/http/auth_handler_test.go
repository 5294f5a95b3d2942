package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"parkent-market/internal/domain"
	"parkent-market/internal/repository"
	"parkent-market/internal/service"
)

type mockCodeRepo struct {
	mu    sync.Mutex
	codes map[string]domain.AuthCode
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{codes: make(map[string]domain.AuthCode)}
}

func (m *mockCodeRepo) Create(_ context.Context, code domain.AuthCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.ID] = code
	return nil
}

func (m *mockCodeRepo) FindNewestValid(_ context.Context, code string, now time.Time) (domain.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []domain.AuthCode
	for _, c := range m.codes {
		if c.Code == code && c.Redeemable(now) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return domain.AuthCode{}, pgx.ErrNoRows
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches[0], nil
}

func (m *mockCodeRepo) Consume(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	m.codes[id] = c
	return true, nil
}

func (m *mockCodeRepo) DeleteExpired(_ context.Context, telegramID int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.codes {
		if c.TelegramID == telegramID && !c.ExpiresAt.After(now) {
			delete(m.codes, id)
		}
	}
	return nil
}

type mockAccountRepo struct {
	mu       sync.Mutex
	byID     map[string]domain.Account
	byEmail  map[string]string
	profiles map[string]domain.Profile
	roles    map[string]domain.Role
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		byID:     make(map[string]domain.Account),
		byEmail:  make(map[string]string),
		profiles: make(map[string]domain.Profile),
		roles:    make(map[string]domain.Role),
	}
}

func (m *mockAccountRepo) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return m.byID[id], nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byID[id]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return account, nil
}

func (m *mockAccountRepo) CreateWithProfileAndRole(_ context.Context, account domain.Account, profile domain.Profile, role domain.RoleAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[account.ID] = account
	m.byEmail[account.Email] = account.ID
	m.profiles[account.ID] = profile
	m.roles[account.ID] = role.Role
	return nil
}

type mockProfileRepo struct {
	accounts *mockAccountRepo
}

func (m *mockProfileRepo) GetByAccountID(_ context.Context, accountID string) (domain.Profile, error) {
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	profile, ok := m.accounts.profiles[accountID]
	if !ok {
		return domain.Profile{}, pgx.ErrNoRows
	}
	return profile, nil
}

func (m *mockProfileRepo) ListAll(_ context.Context) ([]domain.Profile, error) {
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	out := make([]domain.Profile, 0, len(m.accounts.profiles))
	for _, p := range m.accounts.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProfileRepo) CountAll(_ context.Context) (int64, error) {
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	return int64(len(m.accounts.profiles)), nil
}

func (m *mockProfileRepo) CountPremium(_ context.Context) (int64, error) { return 0, nil }
func (m *mockProfileRepo) CountBlocked(_ context.Context) (int64, error) { return 0, nil }

type mockRoleRepo struct {
	accounts *mockAccountRepo
}

func (m *mockRoleRepo) GetRole(_ context.Context, accountID string) (domain.Role, error) {
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	role, ok := m.accounts.roles[accountID]
	if !ok {
		return domain.RoleUser, nil
	}
	return role, nil
}

type mockListingRepo struct {
	mu    sync.Mutex
	stats repository.ListingStats
	due   int64

	approved map[string]int
	rejected map[string]string
}

func newMockListingRepo() *mockListingRepo {
	return &mockListingRepo{
		approved: make(map[string]int),
		rejected: make(map[string]string),
	}
}

func (m *mockListingRepo) Stats(_ context.Context) (repository.ListingStats, error) {
	return m.stats, nil
}

func (m *mockListingRepo) ListAllWithOwner(_ context.Context) ([]domain.ListingWithOwner, error) {
	return nil, nil
}

func (m *mockListingRepo) Approve(_ context.Context, id string, days int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved[id] = days
	return nil
}

func (m *mockListingRepo) Reject(_ context.Context, id, reason string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[id] = reason
	return nil
}

func (m *mockListingRepo) ExpireDue(_ context.Context, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.due
	m.due = 0
	return n, nil
}

type mockPartnerRepo struct{}

func (mockPartnerRepo) ListAll(_ context.Context) ([]domain.Partner, error) { return nil, nil }
func (mockPartnerRepo) Create(_ context.Context, _ domain.Partner) error { return nil }
func (mockPartnerRepo) Delete(_ context.Context, _ string) error { return nil }
func (mockPartnerRepo) Update(_ context.Context, p domain.Partner) (domain.Partner, error) {
	return p, nil
}

type mockBannerRepo struct{}

func (mockBannerRepo) ListAll(_ context.Context) ([]domain.Banner, error) { return nil, nil }

type mockCategoryRepo struct{}

func (mockCategoryRepo) ListAll(_ context.Context) ([]domain.Category, error) { return nil, nil }

type testEnv struct {
	router   *gin.Engine
	codes    *mockCodeRepo
	accounts *mockAccountRepo
	listings *mockListingRepo
	jwtSvc   *service.JWTService
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	codes := newMockCodeRepo()
	accounts := newMockAccountRepo()
	profiles := &mockProfileRepo{accounts: accounts}
	roles := &mockRoleRepo{accounts: accounts}
	listings := newMockListingRepo()

	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	linkSvc := service.NewLoginLinkService(service.NewMemoryArtifactStore(), jwtSvc)
	provisionSvc := service.NewProvisionService(logger, accounts, profiles, linkSvc)
	redeemSvc := service.NewRedeemService(logger, codes, provisionSvc)
	sweeperSvc := service.NewSweeperService(logger, listings)
	adminSvc := service.NewAdminService(logger, listings, profiles, roles, mockPartnerRepo{}, mockBannerRepo{}, mockCategoryRepo{})

	authH := NewAuthHandler(logger, redeemSvc, jwtSvc)
	adminH := NewAdminHandler(logger, adminSvc)
	maintenanceH := NewMaintenanceHandler(logger, sweeperSvc)

	router := NewRouter(logger, []string{"http://localhost:3000"}, authH, adminH, maintenanceH, jwtSvc, roles)
	return &testEnv{
		router:   router,
		codes:    codes,
		accounts: accounts,
		listings: listings,
		jwtSvc:   jwtSvc,
	}
}

func (e *testEnv) seedCode(code string, telegramID int64) {
	now := time.Now().UTC()
	_ = e.codes.Create(context.Background(), domain.AuthCode{
		ID:         uuid.NewString(),
		TelegramID: telegramID,
		Code:       code,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.AuthCodeTTL),
	})
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestRedeemCode_FullFlow(t *testing.T) {
	env := newTestEnv()
	env.seedCode("654321", 12345)

	// Un código que nunca se emitió no pasa.
	rec := performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "000000"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown code, got %d", rec.Code)
	}

	rec = performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "654321"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("expected success true, got %v", body["success"])
	}
	if body["is_new_account"] != true {
		t.Fatalf("expected is_new_account true, got %v", body["is_new_account"])
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("expected non-empty access_token")
	}
	if body["account_id"] == "" {
		t.Fatalf("expected account_id")
	}

	// El mismo código no se canjea dos veces.
	rec = performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "654321"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on reuse, got %d", rec.Code)
	}
}

func TestRedeemCode_ReturningIdentityKeepsAccount(t *testing.T) {
	env := newTestEnv()

	env.seedCode("111111", 777)
	rec := performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "111111"})
	if rec.Code != http.StatusOK {
		t.Fatalf("first redeem: expected 200, got %d", rec.Code)
	}
	first := decodeBody(t, rec)

	env.seedCode("222222", 777)
	rec = performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "222222"})
	if rec.Code != http.StatusOK {
		t.Fatalf("second redeem: expected 200, got %d", rec.Code)
	}
	second := decodeBody(t, rec)

	if first["account_id"] != second["account_id"] {
		t.Fatalf("expected same account, got %v and %v", first["account_id"], second["account_id"])
	}
	if second["is_new_account"] != false {
		t.Fatalf("expected is_new_account false on return, got %v", second["is_new_account"])
	}
}

func TestRedeemCode_InvalidFormat(t *testing.T) {
	env := newTestEnv()

	for _, code := range []string{"12345", "1234567", "12a456", ""} {
		rec := performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": code})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code %q: expected 400, got %d", code, rec.Code)
		}
	}
}

func TestRefreshToken_RotatesPair(t *testing.T) {
	env := newTestEnv()
	env.seedCode("654321", 12345)

	rec := performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "654321"})
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: expected 200, got %d", rec.Code)
	}
	refresh, _ := decodeBody(t, rec)["refresh_token"].(string)
	if refresh == "" {
		t.Fatalf("expected refresh_token")
	}

	rec = performRequest(env.router, http.MethodPost, "/api/auth/refresh", gin.H{"refresh_token": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", rec.Code)
	}

	// El refresh viejo queda revocado tras la rotación.
	rec = performRequest(env.router, http.MethodPost, "/api/auth/refresh", gin.H{"refresh_token": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reused refresh, got %d", rec.Code)
	}
}

func TestLogout_RevokesRefresh(t *testing.T) {
	env := newTestEnv()
	env.seedCode("654321", 12345)

	rec := performRequest(env.router, http.MethodPost, "/api/telegram/auth", gin.H{"code": "654321"})
	refresh, _ := decodeBody(t, rec)["refresh_token"].(string)

	rec = performRequest(env.router, http.MethodPost, "/api/auth/logout", gin.H{"refresh_token": refresh})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	rec = performRequest(env.router, http.MethodPost, "/api/auth/refresh", gin.H{"refresh_token": refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}
