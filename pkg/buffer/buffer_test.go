package buffer

import (
	"bytes"
	"strings"
	"testing"
)

func TestStaysInMemoryUnderLimit(t *testing.T) {
	b := New(64)
	defer b.Close()

	if _, err := b.Write([]byte("small body")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if b.IsSpilled() {
		t.Fatal("buffer spilled below its limit")
	}
	if got := string(b.Bytes()); got != "small body" {
		t.Fatalf("Bytes() = %q, want %q", got, "small body")
	}
	if b.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", b.Size())
	}
}

func TestSpillsAboveLimit(t *testing.T) {
	b := New(8)
	defer b.Close()

	first := []byte("12345")
	second := []byte("this pushes the buffer over its limit")
	b.Write(first)
	b.Write(second)

	if !b.IsSpilled() {
		t.Fatal("buffer did not spill past its limit")
	}
	if b.Path() == "" {
		t.Fatal("spilled buffer has no path")
	}
	if b.Bytes() != nil {
		t.Fatal("Bytes() should be nil after spilling")
	}

	want := string(first) + string(second)
	got, err := b.Contents()
	if err != nil {
		t.Fatalf("Contents failed: %v", err)
	}
	if string(got) != want {
		t.Fatalf("Contents() = %q, want %q", got, want)
	}
	if b.Size() != int64(len(want)) {
		t.Fatalf("Size() = %d, want %d", b.Size(), len(want))
	}
}

func TestWriteTo(t *testing.T) {
	payload := strings.Repeat("chunk ", 100)

	for _, limit := range []int64{4, 1 << 20} {
		b := New(limit)
		b.Write([]byte(payload))

		var out bytes.Buffer
		n, err := b.WriteTo(&out)
		if err != nil {
			t.Fatalf("limit %d: WriteTo failed: %v", limit, err)
		}
		if n != int64(len(payload)) || out.String() != payload {
			t.Fatalf("limit %d: WriteTo copied %d bytes, want %d", limit, n, len(payload))
		}
		b.Close()
	}
}

func TestCloseIsIdempotentAndRemovesSpill(t *testing.T) {
	b := New(1)
	b.Write([]byte("spills immediately"))
	path := b.Path()
	if path == "" {
		t.Fatal("expected a spill file")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if _, err := b.Write([]byte("x")); err == nil {
		t.Fatal("Write after Close should fail")
	}
}

func TestResetAllowsReuse(t *testing.T) {
	b := New(4)
	b.Write([]byte("overflowing data"))
	if err := b.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if b.Size() != 0 || b.IsSpilled() {
		t.Fatalf("Reset left size=%d spilled=%v", b.Size(), b.IsSpilled())
	}
	if _, err := b.Write([]byte("ok")); err != nil {
		t.Fatalf("write after Reset failed: %v", err)
	}
	if got := string(b.Bytes()); got != "ok" {
		t.Fatalf("Bytes() after Reset = %q, want %q", got, "ok")
	}
}

func TestFromBytes(t *testing.T) {
	b := FromBytes([]byte("prefilled"))
	defer b.Close()
	if got := string(b.Bytes()); got != "prefilled" {
		t.Fatalf("FromBytes -> %q, want %q", got, "prefilled")
	}
}
