package credgate

import (
	"context"
	"errors"
	"testing"
)

func TestLoginSuccess(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)

	pair, p, err := engine.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RenewalToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.AccessToken == pair.RenewalToken {
		t.Fatal("access and renewal tokens must differ")
	}
	if p.ID != "user-1" {
		t.Fatalf("principal id = %q, want user-1", p.ID)
	}
	if p.LastAuthenticated.IsZero() {
		t.Fatal("expected last-authenticated to be set on success")
	}

	stored, err := store.PrincipalByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stored.LastAuthenticated.IsZero() {
		t.Fatal("expected last-authenticated to be persisted")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)

	_, err := engine.Authenticate(context.Background(), "admin", "admin124")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	stored, err := store.PrincipalByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !stored.LastAuthenticated.IsZero() {
		t.Fatal("failed attempt must not touch last-authenticated")
	}
}

func TestAuthenticateFailureModesCollapse(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)
	seedPrincipal(t, store, "user-2", "parked", "parked-pass-1", false)

	// Unknown username, wrong password, and inactive account must be the
	// same error value so callers cannot probe account existence.
	_, errUnknown := engine.Authenticate(context.Background(), "nobody", "admin123")
	_, errWrong := engine.Authenticate(context.Background(), "admin", "not-the-pass")
	_, errInactive := engine.Authenticate(context.Background(), "parked", "parked-pass-1")

	for name, err := range map[string]error{
		"unknown":  errUnknown,
		"wrong":    errWrong,
		"inactive": errInactive,
	} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
		if err.Error() != ErrInvalidCredentials.Error() {
			t.Fatalf("%s: message diverges: %q", name, err.Error())
		}
	}
}

func TestAuthenticateCorruptHash(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	store.putPrincipal(Principal{
		ID:           "user-1",
		Username:     "broken",
		Email:        "broken@example.com",
		PasswordHash: "garbage-not-bcrypt",
		Role:         RoleStandard,
		Active:       true,
	})

	_, err := engine.Authenticate(context.Background(), "broken", "whatever-pass")
	if !errors.Is(err, ErrCorruptCredential) {
		t.Fatalf("expected ErrCorruptCredential, got %v", err)
	}
}

func TestAuthenticateSurvivesLastAuthWriteFailure(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)
	store.lastAuth = errors.New("write timeout")

	p, err := engine.Authenticate(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("bookkeeping failure must not fail authentication: %v", err)
	}
	if !p.LastAuthenticated.IsZero() {
		t.Fatal("timestamp must not be claimed when the write failed")
	}
}

func TestAuthenticateCountsMetrics(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)

	if _, err := engine.Authenticate(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	_, _ = engine.Authenticate(context.Background(), "admin", "wrong-pass-1")
	_, _ = engine.Authenticate(context.Background(), "ghost", "wrong-pass-1")

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricAuthenticateSuccess]; got != 1 {
		t.Fatalf("success counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricAuthenticateFailure]; got != 2 {
		t.Fatalf("failure counter = %d, want 2", got)
	}
}

func TestNilEngineIsSafe(t *testing.T) {
	var engine *Engine

	engine.Close()
	if n := engine.AuditDropped(); n != 0 {
		t.Fatalf("nil engine dropped = %d", n)
	}
	if _, err := engine.Authenticate(context.Background(), "a", "b"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Rotate(context.Background(), "tok"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.AuthenticateClient(context.Background(), "id", "secret"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}
