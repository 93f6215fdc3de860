package translate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"keyscribe/internal/keycode"
)

const qwertzOverlay = `{
  "version": 1,
  "name": "qwertz-swap",
  "description": "Swap Y and Z the QWERTZ way",
  "keys": [
    {"key": "Y", "primary": "z", "secondary": "Z", "caps_sensitive": true},
    {"key": "Z", "primary": "y", "secondary": "Y", "caps_sensitive": true}
  ]
}`

// =============================================================================
// Tests for parsing and schema validation
// =============================================================================

func TestParseLayoutValid(t *testing.T) {
	l, err := ParseLayout([]byte(qwertzOverlay))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	if l.Name != "qwertz-swap" {
		t.Errorf("name = %q", l.Name)
	}
	if len(l.Keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(l.Keys))
	}
	if l.Keys[0].Key != "Y" || l.Keys[0].Primary != "z" {
		t.Errorf("unexpected first entry: %+v", l.Keys[0])
	}
}

func TestParseLayoutRejectsUnknownKey(t *testing.T) {
	doc := `{"version": 1, "name": "bad", "keys": [
		{"key": "Hyper", "primary": "x", "secondary": "X", "caps_sensitive": true}
	]}`
	if _, err := ParseLayout([]byte(doc)); err == nil {
		t.Error("unknown key name should be rejected")
	}
}

func TestParseLayoutRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"version": 1, "keys": [{"key": "A", "primary": "a", "secondary": "A", "caps_sensitive": true}]}`},
		{"wrong version", `{"version": 2, "name": "x", "keys": [{"key": "A", "primary": "a", "secondary": "A", "caps_sensitive": true}]}`},
		{"empty keys", `{"version": 1, "name": "x", "keys": []}`},
		{"multi-char glyph", `{"version": 1, "name": "x", "keys": [{"key": "A", "primary": "ab", "secondary": "A", "caps_sensitive": true}]}`},
		{"missing caps flag", `{"version": 1, "name": "x", "keys": [{"key": "A", "primary": "a", "secondary": "A"}]}`},
		{"stray field", `{"version": 1, "name": "x", "extra": true, "keys": [{"key": "A", "primary": "a", "secondary": "A", "caps_sensitive": true}]}`},
		{"not json", `version: 1`},
	}
	for _, tc := range cases {
		if _, err := ParseLayout([]byte(tc.doc)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

// =============================================================================
// Tests for applying overlays
// =============================================================================

func TestApplyLayoutOverridesPairs(t *testing.T) {
	l, err := ParseLayout([]byte(qwertzOverlay))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	km := DefaultKeymap()
	if err := km.ApplyLayout(l); err != nil {
		t.Fatalf("ApplyLayout failed: %v", err)
	}

	primary, secondary, _, ok := km.CharacterPair(keycode.Y)
	if !ok || primary != 'z' || secondary != 'Z' {
		t.Errorf("Y pair = %q/%q after overlay", primary, secondary)
	}

	// Untouched keys keep their defaults.
	primary, _, _, _ = km.CharacterPair(keycode.A)
	if primary != 'a' {
		t.Error("overlay must not disturb other keys")
	}
}

func TestApplyLayoutRejectsFixedLabelKeys(t *testing.T) {
	l := &Layout{Version: 1, Name: "bad", Keys: []LayoutKey{
		{Key: "Return", Primary: "x", Secondary: "X", CapsSensitive: true},
	}}
	if err := DefaultKeymap().ApplyLayout(l); err == nil {
		t.Error("fixed-label keys must be out of reach for overlays")
	}
}

func TestApplyLayoutRejectsModifierKeys(t *testing.T) {
	l := &Layout{Version: 1, Name: "bad", Keys: []LayoutKey{
		{Key: "LeftShift", Primary: "x", Secondary: "X", CapsSensitive: true},
	}}
	if err := DefaultKeymap().ApplyLayout(l); err == nil {
		t.Error("modifier keys must be out of reach for overlays")
	}
}

func TestApplyLayoutAtomic(t *testing.T) {
	l := &Layout{Version: 1, Name: "mixed", Keys: []LayoutKey{
		{Key: "A", Primary: "q", Secondary: "Q", CapsSensitive: true},
		{Key: "Return", Primary: "x", Secondary: "X", CapsSensitive: true},
	}}

	km := DefaultKeymap()
	if err := km.ApplyLayout(l); err == nil {
		t.Fatal("expected overlay rejection")
	}

	primary, _, _, _ := km.CharacterPair(keycode.A)
	if primary != 'a' {
		t.Error("rejected overlay must not apply any entry")
	}
}

func TestTranslateWithOverlay(t *testing.T) {
	l, err := ParseLayout([]byte(qwertzOverlay))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	km := DefaultKeymap()
	if err := km.ApplyLayout(l); err != nil {
		t.Fatalf("ApplyLayout failed: %v", err)
	}

	tr := NewTranslatorWith(km)
	if out, _ := tr.Translate(keycode.Y, ModifierState{}); out != "z" {
		t.Errorf("Y under overlay = %q, want z", out)
	}
	if out, _ := tr.Translate(keycode.Y, ModifierState{CapsLock: true}); out != "Z" {
		t.Errorf("caps Y under overlay = %q, want Z", out)
	}
}

// =============================================================================
// Tests for file loading and the embedded schema
// =============================================================================

func TestLoadLayoutFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.json")
	if err := os.WriteFile(path, []byte(qwertzOverlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	l, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout failed: %v", err)
	}
	if l.Name != "qwertz-swap" {
		t.Errorf("name = %q", l.Name)
	}
}

func TestLoadLayoutMissingFile(t *testing.T) {
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file should error")
	}
}

func TestLayoutSchemaEmbedded(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal(LayoutSchema(), &doc); err != nil {
		t.Fatalf("embedded schema is not valid JSON: %v", err)
	}
	if doc["title"] == "" {
		t.Error("schema should carry a title")
	}
}
