package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// RDAEntry is the reference daily target for one nutrient.
// A nil Value or empty Unit marks the entry as corrupt reference data.
type RDAEntry struct {
	Value        *float64 `json:"value,omitempty" yaml:"value"`
	Unit         Unit     `json:"unit,omitempty" yaml:"unit"`
	IsAdjusted   bool     `json:"isAdjusted,omitempty" yaml:"isAdjusted"`
	FemaleAdjust float64  `json:"femaleAdjust,omitempty" yaml:"femaleAdjust"`
	Description  string   `json:"description,omitempty" yaml:"description"`
}

// NewRDAEntry builds a valid entry
func NewRDAEntry(value float64, unit Unit) RDAEntry {
	return RDAEntry{Value: &value, Unit: unit}
}

// Amount returns the target value and whether the entry is usable
func (e RDAEntry) Amount() (float64, bool) {
	if e.Value == nil || e.Unit == "" {
		return 0, false
	}
	return *e.Value, true
}

// RDATable is an ordered set of RDA entries. Iteration follows insertion
// order, which for decoded tables is document order.
type RDATable struct {
	keys    []string
	entries map[string]RDAEntry
}

// NewRDATable creates an empty table
func NewRDATable() *RDATable {
	return &RDATable{entries: make(map[string]RDAEntry)}
}

// Set inserts or replaces an entry. Replacing keeps the existing position.
func (t *RDATable) Set(key string, entry RDAEntry) {
	if t.entries == nil {
		t.entries = make(map[string]RDAEntry)
	}
	if _, exists := t.entries[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.entries[key] = entry
}

// Get returns the entry for key
func (t *RDATable) Get(key string) (RDAEntry, bool) {
	if t == nil {
		return RDAEntry{}, false
	}
	e, ok := t.entries[key]
	return e, ok
}

// Keys returns the keys in table order
func (t *RDATable) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of entries
func (t *RDATable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Clone returns a deep copy
func (t *RDATable) Clone() *RDATable {
	out := NewRDATable()
	if t == nil {
		return out
	}
	for _, k := range t.keys {
		e := t.entries[k]
		if e.Value != nil {
			v := *e.Value
			e.Value = &v
		}
		out.Set(k, e)
	}
	return out
}

// UnmarshalYAML decodes a mapping node, keeping key order
func (t *RDATable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rda table: expected mapping, got yaml kind %d", node.Kind)
	}
	table := NewRDATable()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var entry RDAEntry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return fmt.Errorf("rda table %q: %w", key, err)
		}
		entry.Unit = normalizeEntryUnit(entry.Unit)
		table.Set(key, entry)
	}
	*t = *table
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (t RDATable) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range t.keys {
		var value yaml.Node
		if err := value.Encode(t.entries[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &value)
	}
	return node, nil
}

// UnmarshalJSON decodes an object, keeping key order
func (t *RDATable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("rda table: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("rda table: expected object")
	}

	table := NewRDATable()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("rda table: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("rda table: expected key, got %v", tok)
		}
		var entry RDAEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("rda table %q: %w", key, err)
		}
		entry.Unit = normalizeEntryUnit(entry.Unit)
		table.Set(key, entry)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("rda table: %w", err)
	}
	*t = *table
	return nil
}

// MarshalJSON implements json.Marshaler in table order
func (t RDATable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(t.entries[k])
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func normalizeEntryUnit(u Unit) Unit {
	if u == "" {
		return u
	}
	return NormalizeUnit(string(u))
}
