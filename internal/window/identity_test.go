package window

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPrimaryIsStable(t *testing.T) {
	if Primary() != Primary() {
		t.Fatal("expected Primary() to return the same value every call")
	}
	if !Primary().IsPrimary() {
		t.Fatal("expected Primary() to be primary")
	}
	var zero Identity
	if !zero.IsPrimary() {
		t.Fatal("expected zero identity to be primary")
	}
	if got := Primary().String(); got != strings.Repeat("0", 32) {
		t.Errorf("expected all-zero rendering, got %q", got)
	}
}

func TestNewIdentityIsUniqueAndNotPrimary(t *testing.T) {
	seen := make(map[Identity]bool)
	for i := 0; i < 1000; i++ {
		id := NewIdentity()
		if id.IsPrimary() {
			t.Fatalf("generated identity %s is primary", id)
		}
		if seen[id] {
			t.Fatalf("duplicate identity %s", id)
		}
		seen[id] = true
	}
}

func TestIdentityString(t *testing.T) {
	id := NewIdentity()
	s := id.String()
	if len(s) != 32 {
		t.Fatalf("expected 32 hex digits, got %q", s)
	}
	if strings.Contains(s, "-") {
		t.Errorf("expected no dashes, got %q", s)
	}
	if s != id.String() {
		t.Errorf("expected stable rendering")
	}
}

func TestParseIdentity(t *testing.T) {
	id := NewIdentity()

	parsed, err := ParseIdentity(id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("expected %s, got %s", id, parsed)
	}

	canonical := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	parsed, err = ParseIdentity(canonical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.String() != "6ba7b8109dad11d180b400c04fd430c8" {
		t.Errorf("unexpected rendering %q", parsed.String())
	}

	if _, err := ParseIdentity("not-an-id"); err == nil {
		t.Fatal("expected error for malformed identity")
	}
}

func TestIdentityJSON(t *testing.T) {
	id := NewIdentity()
	data, err := json.Marshal(map[string]Identity{"id": id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), id.String()) {
		t.Fatalf("expected %s in %s", id, data)
	}

	var out map[string]Identity
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["id"] != id {
		t.Errorf("expected %s, got %s", id, out["id"])
	}
}
