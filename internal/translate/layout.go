package translate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"keyscribe/internal/keycode"
)

//go:embed layout.schema.json
var layoutSchemaJSON []byte

// LayoutSchema returns the embedded layout overlay JSON schema.
func LayoutSchema() []byte {
	return layoutSchemaJSON
}

// Layout is a set of character-table overrides loaded from JSON. An
// overlay replaces the glyph pairs of two-glyph keys; fixed-label keys
// and modifiers are out of reach.
type Layout struct {
	Version     int         `json:"version"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Keys        []LayoutKey `json:"keys"`
}

// LayoutKey overrides a single key, addressed by its canonical name.
type LayoutKey struct {
	Key           string `json:"key"`
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	CapsSensitive bool   `json:"caps_sensitive"`
}

// LoadLayout reads and parses a layout overlay file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout validates raw JSON against the layout schema and decodes
// it. Key names are resolved here too, so a bad overlay fails at load
// time rather than mid-capture.
func ParseLayout(data []byte) (*Layout, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("layout.schema.json", bytes.NewReader(layoutSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add layout schema: %w", err)
	}
	schema, err := compiler.Compile("layout.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile layout schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("layout does not match schema: %w", err)
	}

	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	for _, k := range l.Keys {
		if _, ok := keycode.FromName(k.Key); !ok {
			return nil, fmt.Errorf("unknown key %q", k.Key)
		}
	}
	return &l, nil
}

// ApplyLayout overlays l onto the keymap. The whole overlay is checked
// before any entry is applied, so a rejected overlay leaves the table
// untouched.
func (km *Keymap) ApplyLayout(l *Layout) error {
	type change struct {
		code keycode.Code
		p    pair
	}
	changes := make([]change, 0, len(l.Keys))
	for _, k := range l.Keys {
		code, ok := keycode.FromName(k.Key)
		if !ok {
			return fmt.Errorf("layout %q: unknown key %q", l.Name, k.Key)
		}
		if err := km.assignable(code); err != nil {
			return fmt.Errorf("layout %q: %w", l.Name, err)
		}
		pr := []rune(k.Primary)
		sr := []rune(k.Secondary)
		if len(pr) != 1 || len(sr) != 1 {
			return fmt.Errorf("layout %q: key %q: glyphs must be single characters", l.Name, k.Key)
		}
		changes = append(changes, change{code, pair{pr[0], sr[0], k.CapsSensitive}})
	}
	for _, c := range changes {
		km.pairs[c.code] = c.p
	}
	return nil
}
