package launch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ltigate/cmd/identity"
	"ltigate/cmd/internal/consumer"
)

const testAdminToken = "admin-token-for-tests"

func newAdminFixture(t *testing.T) (*AdminHandler, *consumer.MemoryStore) {
	t.Helper()
	store := consumer.NewMemoryStore()
	return NewAdminHandler(slog.Default(), testAdminToken, store, identity.NewMemoryStore(), NewMetrics(nil)), store
}

func postConsumers(t *testing.T, h *AdminHandler, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "http://example.com/admin/consumers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handleCreateConsumer(rec, req)
	return rec
}

func TestAdminCreateConsumer_GeneratesCredentials(t *testing.T) {
	t.Parallel()

	h, store := newAdminFixture(t)
	rec := postConsumers(t, h, testAdminToken, `{}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp consumerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := consumer.ValidateCredential(resp.Key); err != nil {
		t.Fatalf("generated key invalid: %v", err)
	}
	if err := consumer.ValidateCredential(resp.Secret); err != nil {
		t.Fatalf("generated secret invalid: %v", err)
	}

	if ok, _ := store.ExistsByKey(context.Background(), resp.Key); !ok {
		t.Fatalf("consumer not persisted")
	}
}

func TestAdminCreateConsumer_ExplicitCredentials(t *testing.T) {
	t.Parallel()

	h, _ := newAdminFixture(t)
	rec := postConsumers(t, h, testAdminToken,
		`{"key":"consumerkeyABCDEF1234","secret":"consumersecretABCDEF12"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Same key again: conflict.
	rec = postConsumers(t, h, testAdminToken,
		`{"key":"consumerkeyABCDEF1234","secret":"othersecretABCDEF1234"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate key: status = %d", rec.Code)
	}
}

func TestAdminCreateConsumer_RejectsBadCredentials(t *testing.T) {
	t.Parallel()

	h, _ := newAdminFixture(t)

	// Unsafe character.
	rec := postConsumers(t, h, testAdminToken,
		`{"key":"consumer key ABCDEF12","secret":"consumersecretABCDEF12"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsafe key: status = %d", rec.Code)
	}

	// Too short.
	rec = postConsumers(t, h, testAdminToken,
		`{"key":"short","secret":"consumersecretABCDEF12"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short key: status = %d", rec.Code)
	}
}

func TestAdminCreateConsumer_Unauthorized(t *testing.T) {
	t.Parallel()

	h, _ := newAdminFixture(t)

	if rec := postConsumers(t, h, "", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}
	if rec := postConsumers(t, h, "wrong-token", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rec.Code)
	}

	// A handler configured without a token refuses everything.
	disabled := NewAdminHandler(slog.Default(), "", consumer.NewMemoryStore(), identity.NewMemoryStore(), NewMetrics(nil))
	if rec := postConsumers(t, disabled, testAdminToken, `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("disabled surface: status = %d", rec.Code)
	}
}

func newOwnerFixture(t *testing.T) (*AdminHandler, *identity.MemoryStore) {
	t.Helper()
	users := identity.NewMemoryStore()
	h := NewAdminHandler(slog.Default(), testAdminToken, consumer.NewMemoryStore(), users, NewMetrics(nil))
	return h, users
}

func postOwners(t *testing.T, h *AdminHandler, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "http://example.com/admin/owners", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handleCreateOwner(rec, req)
	return rec
}

func TestAdminCreateOwner(t *testing.T) {
	t.Parallel()

	h, users := newOwnerFixture(t)
	rec := postOwners(t, h, testAdminToken,
		`{"username":"instructor","email":"instructor@example.com","password":"correct horse battery"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ownerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID == "" || resp.Username != "instructor" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	u, err := users.GetUserByUsername(context.Background(), "instructor")
	if err != nil {
		t.Fatalf("owner not persisted: %v", err)
	}
	if u.PasswordHash == nil {
		t.Fatalf("owner must be password-capable")
	}
	if ok, err := identity.VerifyPassword("correct horse battery", *u.PasswordHash); err != nil || !ok {
		t.Fatalf("stored hash does not verify (ok=%v err=%v)", ok, err)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not echo password material: %s", rec.Body.String())
	}
}

func TestAdminCreateOwner_Duplicate(t *testing.T) {
	t.Parallel()

	h, _ := newOwnerFixture(t)
	body := `{"username":"instructor","email":"instructor@example.com","password":"correct horse battery"}`
	if rec := postOwners(t, h, testAdminToken, body); rec.Code != http.StatusCreated {
		t.Fatalf("first owner: status = %d", rec.Code)
	}
	if rec := postOwners(t, h, testAdminToken, body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate owner: status = %d", rec.Code)
	}
}

func TestAdminCreateOwner_InvalidInput(t *testing.T) {
	t.Parallel()

	h, _ := newOwnerFixture(t)

	// Short password.
	rec := postOwners(t, h, testAdminToken,
		`{"username":"instructor","email":"instructor@example.com","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: status = %d", rec.Code)
	}

	// Missing username.
	rec = postOwners(t, h, testAdminToken,
		`{"email":"instructor@example.com","password":"correct horse battery"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing username: status = %d", rec.Code)
	}
}

func TestAdminCreateOwner_Unauthorized(t *testing.T) {
	t.Parallel()

	h, _ := newOwnerFixture(t)
	body := `{"username":"instructor","email":"instructor@example.com","password":"correct horse battery"}`
	if rec := postOwners(t, h, "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}
	if rec := postOwners(t, h, "wrong-token", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", rec.Code)
	}
}

func TestAdminCreateConsumer_BadJSON(t *testing.T) {
	t.Parallel()

	h, _ := newAdminFixture(t)
	if rec := postConsumers(t, h, testAdminToken, `{"key": }`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d", rec.Code)
	}
	if rec := postConsumers(t, h, testAdminToken, `{"unknown_field": true}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status = %d", rec.Code)
	}
}
