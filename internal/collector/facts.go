package collector

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fact is one named hardware or software attribute of a report.
type Fact struct {
	Name  string
	Value any
}

// Facts is an ordered set of report fields. Keys keep the order in which they
// were added when encoded to JSON; adding an existing key replaces its value
// in place.
type Facts struct {
	items []Fact
	index map[string]int
}

// NewFacts returns an empty fact set.
func NewFacts() *Facts {
	return &Facts{index: make(map[string]int)}
}

func (f *Facts) set(name string, value any) {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[name]; ok {
		f.items[i].Value = value
		return
	}
	f.index[name] = len(f.items)
	f.items = append(f.items, Fact{Name: name, Value: value})
}

// AddFlag records a boolean flag. Flags are encoded as 1 or 0.
func (f *Facts) AddFlag(name string, v bool) { f.set(name, v) }

// AddString records a string value.
func (f *Facts) AddString(name, v string) { f.set(name, v) }

// AddInt records an integer value.
func (f *Facts) AddInt(name string, v int) { f.set(name, v) }

// Get returns the value recorded for name.
func (f *Facts) Get(name string) (any, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.items[i].Value, true
}

// Has reports whether name was recorded.
func (f *Facts) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Len returns the number of recorded facts.
func (f *Facts) Len() int { return len(f.items) }

// All returns a copy of the facts in insertion order.
func (f *Facts) All() []Fact {
	out := make([]Fact, len(f.items))
	copy(out, f.items)
	return out
}

// Keys returns the fact names in insertion order.
func (f *Facts) Keys() []string {
	keys := make([]string, len(f.items))
	for i, it := range f.items {
		keys[i] = it.Name
	}
	return keys
}

// MarshalJSON encodes the facts as a single JSON object in insertion order.
func (f *Facts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range f.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(it.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')

		v := it.Value
		if b, ok := v.(bool); ok {
			v = 0
			if b {
				v = 1
			}
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", it.Name, err)
		}
		buf.Write(enc)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String returns the JSON document, or an empty object if encoding fails.
func (f *Facts) String() string {
	b, err := f.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
