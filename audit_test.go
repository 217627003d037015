package credgate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// blockingSink parks in Emit until released, so tests can fill the
// dispatch buffer deterministically.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *blockingSink) Emit(_ context.Context, _ AuditEvent) {
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-s.release
}

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}

	// Nil dispatcher methods are no-ops.
	d.Emit(context.Background(), AuditEvent{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestAuditDispatchDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: "one"})
	d.Emit(context.Background(), AuditEvent{EventType: "two"})
	d.Close()

	var got []string
	for {
		select {
		case ev := <-sink.Events():
			got = append(got, ev.EventType)
			continue
		default:
		}
		break
	}
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("delivered events = %v", got)
	}

	// Emit after close is a silent no-op.
	d.Emit(context.Background(), AuditEvent{EventType: "three"})
}

func TestAuditDropIfFull(t *testing.T) {
	sink := newBlockingSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	d.Emit(context.Background(), AuditEvent{EventType: "first"})
	<-sink.started // worker is now parked inside the sink, buffer empty

	d.Emit(context.Background(), AuditEvent{EventType: "second"}) // fills the buffer
	d.Emit(context.Background(), AuditEvent{EventType: "third"})  // dropped

	if got := d.Dropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}

	close(sink.release)
	d.Close()
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventType:   AuditAuthenticateFailure,
		PrincipalID: "user-1",
		Error:       "wrong password",
	})
	sink.Emit(context.Background(), AuditEvent{EventType: AuditSessionsRevoked, Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var ev AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != AuditAuthenticateFailure || ev.PrincipalID != "user-1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Success {
		t.Fatal("failure event marked success")
	}
}

func TestLoginEmitsAuditTrail(t *testing.T) {
	sink := NewChannelSink(16)
	engine, store := newTestEngine(t, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	if _, _, err := engine.Login(ctx, "admin", "admin123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := engine.Authenticate(ctx, "admin", "wrong-password"); err == nil {
		t.Fatal("expected failed authentication")
	}

	events := drainAudit(t, engine, sink)

	types := make(map[string]AuditEvent)
	for _, ev := range events {
		types[ev.EventType] = ev
		if ev.Timestamp.IsZero() {
			t.Fatalf("event %s missing timestamp", ev.EventType)
		}
		if ev.IP != "203.0.113.9" {
			t.Fatalf("event %s carries ip %q", ev.EventType, ev.IP)
		}
	}

	success, ok := types[AuditAuthenticateSuccess]
	if !ok {
		t.Fatal("missing authenticate_success event")
	}
	if success.PrincipalID != "user-1" || !success.Success {
		t.Fatalf("unexpected success event: %+v", success)
	}

	issued, ok := types[AuditRenewalIssued]
	if !ok {
		t.Fatal("missing renewal_token_issued event")
	}
	if issued.TokenID == "" {
		t.Fatal("renewal event must carry the token id")
	}

	failure, ok := types[AuditAuthenticateFailure]
	if !ok {
		t.Fatal("missing authenticate_failure event")
	}
	if failure.Metadata["username"] != "admin" {
		t.Fatalf("failure metadata = %v", failure.Metadata)
	}
}
