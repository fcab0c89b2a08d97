package typeid

import (
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	tests := []struct {
		gen    func() string
		prefix string
	}{
		{NewShapeID, PrefixShape},
		{NewGroupID, PrefixGroup},
		{NewGuideID, PrefixGuide},
		{NewDrawingID, PrefixDrawing},
		{NewSessionID, PrefixSession},
	}
	for _, tt := range tests {
		id := tt.gen()
		if !strings.HasPrefix(id, tt.prefix+"_") {
			t.Errorf("id %q missing prefix %q", id, tt.prefix)
		}
		if err := Validate(id, tt.prefix); err != nil {
			t.Errorf("Validate(%q): %v", id, err)
		}
		if got := Prefix(id); got != tt.prefix {
			t.Errorf("Prefix(%q) = %q, want %q", id, got, tt.prefix)
		}
	}
}

func TestValidateRejectsWrongPrefix(t *testing.T) {
	id := NewShapeID()
	if err := Validate(id, PrefixGroup); err == nil {
		t.Fatalf("expected error validating %q as %q", id, PrefixGroup)
	}
	if err := Validate("not-an-id", PrefixShape); err == nil {
		t.Fatal("expected error for malformed id")
	}
	if got := Prefix("not-an-id"); got != "" {
		t.Fatalf("Prefix of malformed id = %q, want empty", got)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewShapeID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
