// Package buffer stores response bodies in memory, spilling to a temp file above a limit.
//
// Read-until-close responses have no length bound, so the engine never assumes a body
// fits in memory. Each parse owns its buffer exclusively; no locking is needed.
package buffer

import (
	"bytes"
	"io"
	"os"

	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
)

// Buffer accumulates bytes in memory until the configured limit, then moves
// everything written so far to a temp file and appends there.
type Buffer struct {
	mem    bytes.Buffer
	spill  *os.File
	path   string
	size   int64
	limit  int64
	closed bool
}

// New returns a buffer that spills to disk once more than limit bytes are held.
// A non-positive limit selects the default.
func New(limit int64) *Buffer {
	if limit <= 0 {
		limit = constants.DefaultBodyMemLimit
	}
	return &Buffer{limit: limit}
}

// FromBytes returns a buffer pre-filled with data, for building responses by hand.
func FromBytes(data []byte) *Buffer {
	b := New(0)
	b.Write(data)
	return b
}

// Write appends p, spilling to a temp file when the memory limit is crossed.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, errors.NewTransportError("write to closed body buffer", nil)
	}
	b.size += int64(len(p))

	if b.spill == nil {
		if int64(b.mem.Len()+len(p)) <= b.limit {
			return b.mem.Write(p)
		}
		f, err := os.CreateTemp("", "httpc-body-*.tmp")
		if err != nil {
			return 0, errors.NewTransportError("creating body spill file", err)
		}
		b.spill = f
		b.path = f.Name()
		if b.mem.Len() > 0 {
			if _, err := f.Write(b.mem.Bytes()); err != nil {
				b.Close()
				return 0, errors.NewTransportError("writing body spill file", err)
			}
			b.mem.Reset()
		}
	}

	n, err := b.spill.Write(p)
	if err != nil {
		return n, errors.NewTransportError("writing body spill file", err)
	}
	return n, nil
}

// Size returns the total number of body bytes written.
func (b *Buffer) Size() int64 {
	return b.size
}

// IsSpilled reports whether the body moved to disk.
func (b *Buffer) IsSpilled() bool {
	return b.spill != nil
}

// Path returns the spill file path, or "" while the body is in memory.
func (b *Buffer) Path() string {
	return b.path
}

// Bytes returns the in-memory body. It returns nil once the body has spilled;
// use Contents or Reader for bodies of unknown size.
func (b *Buffer) Bytes() []byte {
	if b.spill != nil {
		return nil
	}
	return b.mem.Bytes()
}

// Contents reads the whole body back, wherever it lives.
func (b *Buffer) Contents() ([]byte, error) {
	r, err := b.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewTransportError("reading body buffer", err)
	}
	return data, nil
}

// Reader returns a fresh reader over the stored body.
func (b *Buffer) Reader() (io.ReadCloser, error) {
	if b.closed {
		return nil, errors.NewTransportError("read from closed body buffer", nil)
	}
	if b.spill != nil {
		if err := b.spill.Sync(); err != nil {
			return nil, errors.NewTransportError("syncing body spill file", err)
		}
		f, err := os.Open(b.path)
		if err != nil {
			return nil, errors.NewTransportError("reopening body spill file", err)
		}
		return f, nil
	}
	return io.NopCloser(bytes.NewReader(b.mem.Bytes())), nil
}

// WriteTo copies the whole body to w, e.g. an output file or stdout.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	r, err := b.Reader()
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return io.Copy(w, r)
}

// Close releases the spill file, if any. Idempotent.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.spill == nil {
		return nil
	}
	err := b.spill.Close()
	if rmErr := os.Remove(b.path); rmErr != nil && err == nil {
		err = rmErr
	}
	b.spill = nil
	b.path = ""
	if err != nil {
		return errors.NewTransportError("removing body spill file", err)
	}
	return nil
}

// Reset clears the buffer for reuse, discarding any spill file.
func (b *Buffer) Reset() error {
	if err := b.Close(); err != nil {
		return err
	}
	b.mem.Reset()
	b.size = 0
	b.closed = false
	return nil
}
