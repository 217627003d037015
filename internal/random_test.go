package internal

import (
	"strings"
	"testing"
)

func TestNewTokenID(t *testing.T) {
	id := NewTokenID()
	if len(id) != 36 {
		t.Fatalf("token id length = %d, want 36", len(id))
	}
	if id == NewTokenID() {
		t.Fatal("token ids must not repeat")
	}
}

func TestNewClientID(t *testing.T) {
	id, err := NewClientID(32)
	if err != nil {
		t.Fatalf("new client id: %v", err)
	}
	if len(id) != 32 {
		t.Fatalf("length = %d, want 32", len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune(clientIDAlphabet, r) {
			t.Fatalf("client id contains %q outside its alphabet", r)
		}
	}
}

func TestNewClientSecret(t *testing.T) {
	secret, err := NewClientSecret(48)
	if err != nil {
		t.Fatalf("new client secret: %v", err)
	}
	if len(secret) != 48 {
		t.Fatalf("length = %d, want 48", len(secret))
	}
	for _, r := range secret {
		if !strings.ContainsRune(clientSecretAlphabet, r) {
			t.Fatalf("secret contains %q outside its alphabet", r)
		}
	}

	other, err := NewClientSecret(48)
	if err != nil {
		t.Fatalf("new client secret: %v", err)
	}
	if secret == other {
		t.Fatal("secrets must not repeat")
	}
}
