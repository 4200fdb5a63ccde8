// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package character

import "slices"

// A Meta is a table of auxiliary values
// associated with cells
// (for example a cluster or tissue identity)
// or with characters
// (for example the proportion of missing data).
// A key can be present without any stored field,
// which marks a known entity without observations.
type Meta struct {
	rows map[string]map[string]string
}

// NewMeta creates a new empty metadata table.
func NewMeta() *Meta {
	return &Meta{
		rows: make(map[string]map[string]string),
	}
}

// AddKey adds a key to the table
// without any associated value.
func (m *Meta) AddKey(key string) {
	if key == "" {
		return
	}
	if _, ok := m.rows[key]; ok {
		return
	}
	m.rows[key] = nil
}

// Clone returns a deep copy of a metadata table.
func (m *Meta) Clone() *Meta {
	nm := NewMeta()
	for k, r := range m.rows {
		if r == nil {
			nm.rows[k] = nil
			continue
		}
		nr := make(map[string]string, len(r))
		for f, v := range r {
			nr[f] = v
		}
		nm.rows[k] = nr
	}
	return nm
}

// Drop removes a key
// and all its values
// from the table.
func (m *Meta) Drop(key string) {
	delete(m.rows, key)
}

// Fields returns the fields with stored values,
// sorted by name.
func (m *Meta) Fields() []string {
	fs := make(map[string]bool)
	for _, r := range m.rows {
		for f := range r {
			fs[f] = true
		}
	}

	fields := make([]string, 0, len(fs))
	for f := range fs {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// HasKey returns true if the key is in the table.
func (m *Meta) HasKey(key string) bool {
	_, ok := m.rows[key]
	return ok
}

// Keys returns the keys defined in the table,
// sorted by name.
func (m *Meta) Keys() []string {
	keys := make([]string, 0, len(m.rows))
	for k := range m.rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Row returns a copy of all the values
// stored for a key,
// or nil if the key has no stored values.
func (m *Meta) Row(key string) map[string]string {
	r := m.rows[key]
	if r == nil {
		return nil
	}
	nr := make(map[string]string, len(r))
	for f, v := range r {
		nr[f] = v
	}
	return nr
}

// Set stores a value for a key and field.
func (m *Meta) Set(key, field, value string) {
	if key == "" || field == "" {
		return
	}
	r := m.rows[key]
	if r == nil {
		r = make(map[string]string)
		m.rows[key] = r
	}
	r[field] = value
}

// Value returns the value stored for a key and field.
// The second return value is false
// if no value is stored.
func (m *Meta) Value(key, field string) (string, bool) {
	r, ok := m.rows[key]
	if !ok || r == nil {
		return "", false
	}
	v, ok := r[field]
	return v, ok
}
