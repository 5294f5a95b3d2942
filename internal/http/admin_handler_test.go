package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"parkent-market/internal/domain"
	"parkent-market/internal/repository"
)

func (e *testEnv) seedAccount(role domain.Role) (domain.Account, string) {
	now := time.Now().UTC()
	account := domain.Account{
		ID:         uuid.NewString(),
		Email:      domain.SyntheticEmail(900),
		TelegramID: 900,
		CreatedAt:  now,
	}
	profile := domain.Profile{
		ID:         uuid.NewString(),
		AccountID:  account.ID,
		TelegramID: account.TelegramID,
		CreatedAt:  now,
	}
	_ = e.accounts.CreateWithProfileAndRole(context.Background(), account, profile, domain.RoleAssignment{
		AccountID: account.ID,
		Role:      role,
	})
	pair, err := e.jwtSvc.GeneratePair(account)
	if err != nil {
		panic(err)
	}
	return account, pair.AccessToken
}

func performAdminRequest(r http.Handler, token string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/admin", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminEndpoint_RequiresToken(t *testing.T) {
	env := newTestEnv()

	rec := performAdminRequest(env.router, "", gin.H{"action": "get_stats"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminEndpoint_RejectsInvalidToken(t *testing.T) {
	env := newTestEnv()

	rec := performAdminRequest(env.router, "not-a-jwt", gin.H{"action": "get_stats"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAdminEndpoint_RejectsNonAdmin(t *testing.T) {
	env := newTestEnv()
	_, token := env.seedAccount(domain.RoleUser)

	rec := performAdminRequest(env.router, token, gin.H{"action": "get_stats"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminEndpoint_GetStats(t *testing.T) {
	env := newTestEnv()
	_, token := env.seedAccount(domain.RoleAdmin)
	env.listings.stats = repository.ListingStats{Total: 7, Pending: 2, Active: 4}

	rec := performAdminRequest(env.router, token, gin.H{"action": "get_stats"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["total_listings"] != float64(7) {
		t.Fatalf("expected total_listings 7, got %v", body["total_listings"])
	}
	if body["pending_listings"] != float64(2) {
		t.Fatalf("expected pending_listings 2, got %v", body["pending_listings"])
	}
	if body["total_users"] != float64(1) {
		t.Fatalf("expected total_users 1, got %v", body["total_users"])
	}
}

func TestAdminEndpoint_UnknownAction(t *testing.T) {
	env := newTestEnv()
	_, token := env.seedAccount(domain.RoleAdmin)

	rec := performAdminRequest(env.router, token, gin.H{"action": "drop_database"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminEndpoint_MissingAction(t *testing.T) {
	env := newTestEnv()
	_, token := env.seedAccount(domain.RoleAdmin)

	rec := performAdminRequest(env.router, token, gin.H{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminEndpoint_ApproveListing(t *testing.T) {
	env := newTestEnv()
	_, token := env.seedAccount(domain.RoleAdmin)

	rec := performAdminRequest(env.router, token, gin.H{"action": "approve_listing", "listing_id": "l1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if days := env.listings.approved["l1"]; days != 5 {
		t.Fatalf("expected default 5 days, got %d", days)
	}

	rec = performAdminRequest(env.router, token, gin.H{"action": "approve_listing", "listing_id": "l2", "days": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if days := env.listings.approved["l2"]; days != 10 {
		t.Fatalf("expected 10 days, got %d", days)
	}
}

func TestAdminEndpoint_RejectListing(t *testing.T) {
	env := newTestEnv()
	_, token := env.seedAccount(domain.RoleAdmin)

	rec := performAdminRequest(env.router, token, gin.H{"action": "reject_listing", "listing_id": "l1", "reason": "spam"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reason := env.listings.rejected["l1"]; reason != "spam" {
		t.Fatalf("expected reason spam, got %q", reason)
	}
}
