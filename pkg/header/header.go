// Package header implements the ordered header collection used on both sides of the wire.
//
// HTTP permits repeated field names with independent significance, so the collection is
// an ordered sequence of name/value pairs rather than a key-unique map: insertion order
// is preserved for serialization and display, duplicates are kept as separate entries,
// and lookups are case-insensitive.
package header

import (
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/httpwire/httpc/pkg/errors"
)

// Field is a single name/value pair.
type Field struct {
	Name  string
	Value string
}

// Set is an ordered collection of header fields.
// The zero value is ready to use.
type Set struct {
	fields []Field
}

// New returns an empty header set.
func New() *Set {
	return &Set{}
}

// Add appends a field, keeping earlier entries with the same name.
// The value has optional leading/trailing whitespace trimmed per the wire grammar;
// no other normalization is applied. Malformed input fails with
// errors.KindInvalidHeaderName or errors.KindInvalidHeaderValue.
func (s *Set) Add(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return errors.NewInvalidHeaderName(name)
	}
	value = trimOWS(value)
	if !httpguts.ValidHeaderFieldValue(value) {
		return errors.NewInvalidHeaderValue(name, value)
	}
	s.fields = append(s.fields, Field{Name: name, Value: value})
	return nil
}

// Set replaces all fields with the given name by a single entry, appended at the end.
func (s *Set) Set(name, value string) error {
	s.Del(name)
	return s.Add(name, value)
}

// Get returns the first value for name, case-insensitively.
func (s *Set) Get(name string) (string, bool) {
	for i := range s.fields {
		if strings.EqualFold(s.fields[i].Name, name) {
			return s.fields[i].Value, true
		}
	}
	return "", false
}

// Values returns every value for name in insertion order.
func (s *Set) Values(name string) []string {
	var values []string
	for i := range s.fields {
		if strings.EqualFold(s.fields[i].Name, name) {
			values = append(values, s.fields[i].Value)
		}
	}
	return values
}

// Has reports whether at least one field with the given name exists.
func (s *Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Del removes every field with the given name and returns how many were removed.
func (s *Set) Del(name string) int {
	kept := s.fields[:0]
	removed := 0
	for _, f := range s.fields {
		if strings.EqualFold(f.Name, name) {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	s.fields = kept
	return removed
}

// Len returns the number of fields.
func (s *Set) Len() int {
	return len(s.fields)
}

// Fields returns the fields in insertion order. The slice is shared with the set;
// callers that mutate it should Clone first.
func (s *Set) Fields() []Field {
	return s.fields
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	if s == nil {
		return New()
	}
	c := &Set{fields: make([]Field, len(s.fields))}
	copy(c.fields, s.fields)
	return c
}

// trimOWS strips optional whitespace (SP / HTAB) from both ends of a field value.
func trimOWS(v string) string {
	return strings.Trim(v, " \t")
}
