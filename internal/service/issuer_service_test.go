package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"parkent-market/internal/domain"
	"parkent-market/internal/telegram"
)

type mockCodeRepo struct {
	mu         sync.Mutex
	codes      map[string]domain.AuthCode
	createErr  error
	deleteErr  error
	consumeErr error
	pruned     []int64
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{codes: make(map[string]domain.AuthCode)}
}

func (m *mockCodeRepo) Create(_ context.Context, code domain.AuthCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.codes[code.ID] = code
	return nil
}

func (m *mockCodeRepo) FindNewestValid(_ context.Context, code string, now time.Time) (domain.AuthCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []domain.AuthCode
	for _, c := range m.codes {
		if c.Code == code && !c.Used && c.ExpiresAt.After(now) {
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
	if m.consumeErr != nil {
		return false, m.consumeErr
	}
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
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.pruned = append(m.pruned, telegramID)
	for id, c := range m.codes {
		if c.TelegramID == telegramID && !c.ExpiresAt.After(now) {
			delete(m.codes, id)
		}
	}
	return nil
}

func (m *mockCodeRepo) liveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

type mockChannelSender struct {
	lastChatID   int64
	lastCode     string
	lastName     string
	failureCalls int
	sendErr      error
	failErr      error
}

func (m *mockChannelSender) SendCode(_ context.Context, chatID int64, code string, displayName string, _ time.Time) error {
	m.lastChatID = chatID
	m.lastCode = code
	m.lastName = displayName
	return m.sendErr
}

func (m *mockChannelSender) SendFailure(_ context.Context, chatID int64) error {
	m.failureCalls++
	m.lastChatID = chatID
	return m.failErr
}

type mockIssueLimiter struct {
	allow bool
	keys  []string
}

func (m *mockIssueLimiter) Allow(key string) bool {
	m.keys = append(m.keys, key)
	return m.allow
}

func testTrigger() telegram.Trigger {
	return telegram.Trigger{
		TelegramID: 12345,
		ChatID:     67890,
		Username:   "tester",
		FirstName:  "Test",
	}
}

func TestIssuerServiceIssue_Success(t *testing.T) {
	repo := newMockCodeRepo()
	sender := &mockChannelSender{}
	svc := NewIssuerService(zap.NewNop(), repo, sender, nil)

	start := time.Now().UTC()
	code, err := svc.Issue(context.Background(), testTrigger())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !isValidCodeFormat(code.Code) {
		t.Fatalf("expected 6-digit code, got %q", code.Code)
	}
	if code.Used {
		t.Fatalf("expected new code unused")
	}
	if code.ExpiresAt.Before(start.Add(4*time.Minute+30*time.Second)) ||
		code.ExpiresAt.After(start.Add(5*time.Minute+30*time.Second)) {
		t.Fatalf("expected expiry around 5 minutes, got %v", code.ExpiresAt)
	}
	if sender.lastCode != code.Code {
		t.Fatalf("expected code %q delivered, got %q", code.Code, sender.lastCode)
	}
	if sender.lastName != "@tester" {
		t.Fatalf("expected username display name, got %q", sender.lastName)
	}
	if repo.liveCount() != 1 {
		t.Fatalf("expected one persisted code, got %d", repo.liveCount())
	}
}

func TestIssuerServiceIssue_PrunesOnlyStaleCodes(t *testing.T) {
	repo := newMockCodeRepo()
	sender := &mockChannelSender{}
	svc := NewIssuerService(zap.NewNop(), repo, sender, nil)

	now := time.Now().UTC()
	stale := domain.AuthCode{
		ID:         "stale",
		TelegramID: 12345,
		Code:       "111111",
		CreatedAt:  now.Add(-10 * time.Minute),
		ExpiresAt:  now.Add(-5 * time.Minute),
	}
	live := domain.AuthCode{
		ID:         "live",
		TelegramID: 12345,
		Code:       "222222",
		CreatedAt:  now.Add(-1 * time.Minute),
		ExpiresAt:  now.Add(4 * time.Minute),
	}
	_ = repo.Create(context.Background(), stale)
	_ = repo.Create(context.Background(), live)

	if _, err := svc.Issue(context.Background(), testTrigger()); err != nil {
		t.Fatalf("expected issue success, got %v", err)
	}

	if _, ok := repo.codes["stale"]; ok {
		t.Fatalf("expected stale code pruned")
	}
	if _, ok := repo.codes["live"]; !ok {
		t.Fatalf("expected live code untouched")
	}
	if repo.liveCount() != 2 {
		t.Fatalf("expected live plus new code, got %d", repo.liveCount())
	}
}

func TestIssuerServiceIssue_PruneFailureIsNonFatal(t *testing.T) {
	repo := newMockCodeRepo()
	repo.deleteErr = errors.New("store down")
	sender := &mockChannelSender{}
	svc := NewIssuerService(zap.NewNop(), repo, sender, nil)

	if _, err := svc.Issue(context.Background(), testTrigger()); err != nil {
		t.Fatalf("expected cleanup failure to be swallowed, got %v", err)
	}
	if sender.lastCode == "" {
		t.Fatalf("expected code delivered despite cleanup failure")
	}
}

func TestIssuerServiceIssue_PersistFailureSendsNotice(t *testing.T) {
	repo := newMockCodeRepo()
	repo.createErr = errors.New("insert failed")
	sender := &mockChannelSender{}
	svc := NewIssuerService(zap.NewNop(), repo, sender, nil)

	_, err := svc.Issue(context.Background(), testTrigger())
	if err == nil {
		t.Fatalf("expected persist failure to abort issue")
	}
	if sender.failureCalls != 1 {
		t.Fatalf("expected one failure notice, got %d", sender.failureCalls)
	}
	if sender.lastCode != "" {
		t.Fatalf("expected no code delivery after persist failure")
	}
}

func TestIssuerServiceIssue_DeliveryFailureKeepsCode(t *testing.T) {
	repo := newMockCodeRepo()
	sender := &mockChannelSender{sendErr: errors.New("telegram down")}
	svc := NewIssuerService(zap.NewNop(), repo, sender, nil)

	code, err := svc.Issue(context.Background(), testTrigger())
	if err != nil {
		t.Fatalf("expected delivery failure to be swallowed, got %v", err)
	}
	stored, ok := repo.codes[code.ID]
	if !ok {
		t.Fatalf("expected code to stay persisted after delivery failure")
	}
	if stored.Used {
		t.Fatalf("expected undelivered code to remain redeemable")
	}
}

func TestIssuerServiceIssue_RateLimited(t *testing.T) {
	repo := newMockCodeRepo()
	sender := &mockChannelSender{}
	limiter := &mockIssueLimiter{allow: false}
	svc := NewIssuerService(zap.NewNop(), repo, sender, limiter)

	_, err := svc.Issue(context.Background(), testTrigger())
	if !errors.Is(err, ErrIssueRateLimited) {
		t.Fatalf("expected ErrIssueRateLimited, got %v", err)
	}
	if repo.liveCount() != 0 {
		t.Fatalf("expected no code persisted when rate limited")
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "12345" {
		t.Fatalf("expected limiter keyed by telegram id, got %+v", limiter.keys)
	}
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate code failed: %v", err)
		}
		if !isValidCodeFormat(code) {
			t.Fatalf("expected 6-digit numeric code, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("expected code >= 100000, got %q", code)
		}
	}
}
