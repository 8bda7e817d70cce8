package session

import (
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	token, err := m.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.StoreID != 7 {
		t.Errorf("StoreID = %d, want 7", claims.StoreID)
	}
	if claims.Issuer != "pos-gateway" {
		t.Errorf("Issuer = %q, want pos-gateway", claims.Issuer)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewManager([]byte("secret-a"), time.Hour).Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewManager([]byte("secret-b"), time.Hour).Validate(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidate_Expired(t *testing.T) {
	m := NewManager([]byte("test-secret"), -time.Minute)

	token, err := m.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := m.Validate(token); err == nil {
		t.Fatal("expected validation to fail for an expired credential")
	}
}

func TestValidate_Garbage(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)
	for _, token := range []string{"", "abc", "aaa.bbb.ccc"} {
		if _, err := m.Validate(token); err == nil {
			t.Errorf("Validate(%q) succeeded, want error", token)
		}
	}
}

func TestDefaultTTL(t *testing.T) {
	m := NewManager([]byte("test-secret"), 0)
	if m.TTL() != 24*time.Hour {
		t.Errorf("TTL = %v, want 24h", m.TTL())
	}
}
