package header

import (
	"testing"

	"github.com/httpwire/httpc/pkg/errors"
)

func TestAddPreservesOrderAndDuplicates(t *testing.T) {
	s := New()
	pairs := []Field{
		{"Set-Cookie", "a=1"},
		{"Content-Type", "text/plain"},
		{"Set-Cookie", "b=2"},
	}
	for _, p := range pairs {
		if err := s.Add(p.Name, p.Value); err != nil {
			t.Fatalf("Add(%q, %q) failed: %v", p.Name, p.Value, err)
		}
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 fields, got %d", s.Len())
	}
	for i, f := range s.Fields() {
		if f != pairs[i] {
			t.Errorf("field %d = %v, want %v", i, f, pairs[i])
		}
	}

	cookies := s.Values("set-cookie")
	if len(cookies) != 2 || cookies[0] != "a=1" || cookies[1] != "b=2" {
		t.Fatalf("Values(set-cookie) = %v, want [a=1 b=2]", cookies)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	s := New()
	if err := s.Add("Content-Length", "42"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	for _, name := range []string{"Content-Length", "content-length", "CONTENT-LENGTH", "cOnTeNt-LeNgTh"} {
		v, ok := s.Get(name)
		if !ok || v != "42" {
			t.Errorf("Get(%q) = %q, %v; want 42, true", name, v, ok)
		}
	}

	if v, ok := s.Get("Content-Type"); ok {
		t.Errorf("Get(Content-Type) unexpectedly found %q", v)
	}
}

func TestAddValidatesNames(t *testing.T) {
	bad := []string{"", "Content Length", "Content:Length", "Name\r\n", "Naïve", "Tab\tName"}
	for _, name := range bad {
		s := New()
		err := s.Add(name, "v")
		if !errors.IsKind(err, errors.KindInvalidHeaderName) {
			t.Errorf("Add(%q) = %v, want invalid_header_name", name, err)
		}
	}
}

func TestAddValidatesValues(t *testing.T) {
	s := New()
	err := s.Add("X-Test", "line one\r\nline two")
	if !errors.IsKind(err, errors.KindInvalidHeaderValue) {
		t.Fatalf("Add with CR LF in value = %v, want invalid_header_value", err)
	}

	// Empty values are legal.
	if err := s.Add("X-Empty", ""); err != nil {
		t.Fatalf("Add with empty value failed: %v", err)
	}
	if v, ok := s.Get("X-Empty"); !ok || v != "" {
		t.Fatalf("Get(X-Empty) = %q, %v; want empty string, true", v, ok)
	}
}

func TestAddTrimsValueWhitespace(t *testing.T) {
	s := New()
	if err := s.Add("X-Padded", " \t padded value \t"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if v, _ := s.Get("X-Padded"); v != "padded value" {
		t.Fatalf("Get(X-Padded) = %q, want %q", v, "padded value")
	}
}

func TestDelRemovesAllMatches(t *testing.T) {
	s := New()
	s.Add("Content-Length", "1")
	s.Add("Accept", "*/*")
	s.Add("content-length", "2")

	if n := s.Del("CONTENT-LENGTH"); n != 2 {
		t.Fatalf("Del removed %d fields, want 2", n)
	}
	if s.Has("Content-Length") {
		t.Fatal("Content-Length still present after Del")
	}
	if v, ok := s.Get("Accept"); !ok || v != "*/*" {
		t.Fatalf("Accept lost during Del: %q, %v", v, ok)
	}
	if n := s.Del("X-Missing"); n != 0 {
		t.Fatalf("Del of absent name removed %d fields", n)
	}
}

func TestSetReplaces(t *testing.T) {
	s := New()
	s.Add("User-Agent", "old/1")
	s.Add("user-agent", "old/2")
	if err := s.Set("User-Agent", "new/1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	values := s.Values("User-Agent")
	if len(values) != 1 || values[0] != "new/1" {
		t.Fatalf("Values after Set = %v, want [new/1]", values)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Add("A", "1")
	c := s.Clone()
	c.Add("B", "2")
	s.Del("A")

	if c.Len() != 2 {
		t.Fatalf("clone has %d fields, want 2", c.Len())
	}
	if v, ok := c.Get("A"); !ok || v != "1" {
		t.Fatalf("clone lost field A: %q, %v", v, ok)
	}
	if s.Len() != 0 {
		t.Fatalf("original has %d fields, want 0", s.Len())
	}
}
