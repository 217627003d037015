package credgate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/credgate/credgate/ledger"
	"github.com/credgate/credgate/password"
)

// memoryStore is an in-memory CredentialStore for engine tests.
type memoryStore struct {
	mu       sync.RWMutex
	byID     map[string]*Principal
	byName   map[string]string
	byEmail  map[string]string
	clients  map[string]*MachineClient // keyed by client id
	lastAuth error                     // forced UpdateLastAuthenticated failure
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byID:    make(map[string]*Principal),
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
		clients: make(map[string]*MachineClient),
	}
}

func (s *memoryStore) putPrincipal(p Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.byID[p.ID] = &cp
	s.byName[p.Username] = p.ID
	s.byEmail[p.Email] = p.ID
}

func (s *memoryStore) putClient(c MachineClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := c
	s.clients[c.ClientID] = &cp
}

func (s *memoryStore) PrincipalByUsername(_ context.Context, username string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *memoryStore) PrincipalByEmail(_ context.Context, email string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *memoryStore) PrincipalByID(_ context.Context, id string) (*Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) UpdateLastAuthenticated(_ context.Context, principalID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastAuth != nil {
		return s.lastAuth
	}
	p, ok := s.byID[principalID]
	if !ok {
		return ErrNotFound
	}
	p.LastAuthenticated = at
	return nil
}

func (s *memoryStore) ClientByClientID(_ context.Context, clientID string) (*MachineClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memoryStore) UpdateClientLastUsed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.ID == id {
			c.LastUsed = at
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryStore) setActive(principalID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[principalID]; ok {
		p.Active = active
	}
}

func (s *memoryStore) removePrincipal(principalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[principalID]; ok {
		delete(s.byName, p.Username)
		delete(s.byEmail, p.Email)
		delete(s.byID, principalID)
	}
}

func engineTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningKey = []byte("engine-test-signing-key-32-bytes!")
	cfg.Token.Issuer = "credgate-test"
	cfg.Password.Cost = 4 // bcrypt.MinCost keeps the suite fast
	return cfg
}

// newTestEngine builds an engine over a memoryStore and a miniredis-backed
// ledger. Extra builder tweaks go through mod.
func newTestEngine(t *testing.T, mod func(*Builder)) (*Engine, *memoryStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := newMemoryStore()

	b := New().
		WithConfig(engineTestConfig()).
		WithStore(store).
		WithLedger(ledger.NewRedis(rdb, "test"))
	if mod != nil {
		mod(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store
}

// seedPrincipal hashes pass at test cost and registers the principal.
func seedPrincipal(t *testing.T, store *memoryStore, id, username, pass string, active bool) Principal {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{Cost: 4, MinLength: 8})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	hash, err := hasher.Hash(pass)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	p := Principal{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         RoleStandard,
		Active:       active,
		CreatedAt:    time.Now(),
	}
	store.putPrincipal(p)
	return p
}

// drainAudit closes the engine's dispatcher and collects whatever reached
// the channel sink.
func drainAudit(t *testing.T, engine *Engine, sink *ChannelSink) []AuditEvent {
	t.Helper()
	engine.Close()

	var events []AuditEvent
	for {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		default:
			return events
		}
	}
}
