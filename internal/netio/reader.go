package netio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/helixml/streamctl/internal/errs"
)

// ByteSource is the minimal read side of internal/conn.Link that netio
// depends on (see ByteSink for why this stays a narrow local
// interface).
type ByteSource interface {
	Read(max int) ([]byte, error)
}

const readChunk = 64 * 1024

// Reader owns a growable buffer refilled from a ByteSource on demand.
// Ensure is the fundamental primitive: every primitive reader and the
// packet codec's resync scan are built on top of it (spec.md §4.2,
// §4.3).
type Reader struct {
	src  ByteSource
	buf  []byte
	pos  int // next unconsumed byte
	stop func() bool
}

// NewReader wraps src. stop, if non-nil, is polled by Ensure so a
// blocked refill loop can unwind with ErrStopped instead of spinning
// forever against a broken source.
func NewReader(src ByteSource, stop func() bool) *Reader {
	return &Reader{src: src, stop: stop}
}

// Len reports the number of unconsumed bytes currently buffered.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Ensure loops reading from the source until at least n unconsumed
// bytes are buffered.
func (r *Reader) Ensure(n int) error {
	for r.Len() < n {
		if r.stop != nil && r.stop() {
			return fmt.Errorf("netio: ensure(%d): %w", n, errs.ErrStopped)
		}
		chunk, err := r.src.Read(readChunk)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			continue
		}
		r.buf = append(r.buf, chunk...)
	}
	return nil
}

// Compact discards consumed bytes, called after each complete packet
// read (spec.md §4.2).
func (r *Reader) Compact() {
	if r.pos == 0 {
		return
	}
	remaining := copy(r.buf, r.buf[r.pos:])
	r.buf = r.buf[:remaining]
	r.pos = 0
}

// Peek returns the n unconsumed bytes starting at offset off without
// advancing the read position. Caller must have Ensure'd off+n first.
func (r *Reader) Peek(off, n int) []byte {
	return r.buf[r.pos+off : r.pos+off+n]
}

// Discard advances the read position by n, dropping n unconsumed
// bytes without returning them (used by resync to skip garbage).
func (r *Reader) Discard(n int) {
	r.pos += n
}

// ReadUint8 reads and consumes one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.Ensure(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// ReadUint32 reads and consumes 4 big-endian bytes.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.Ensure(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

// ReadBool reads and consumes one byte, true if non-zero.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

// ReadN reads and consumes exactly n raw bytes, copied out so later
// Compact calls cannot invalidate the slice.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if err := r.Ensure(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadBytes reads a big-endian u32 length prefix followed by that many
// bytes.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return r.ReadN(int(n))
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Sub Ensures the next n bytes are buffered and returns a read-only
// sub-reader over a copy of exactly those bytes, without consuming
// them from r. This backs the nested VideoData body parse (spec.md
// §4.3, §9 open question 1): the outer reader first consumes the u32
// length prefix with ReadUint32, then the caller calls Sub(n) to get a
// bounded view over the body before advancing r past it with
// Discard(n).
func (r *Reader) Sub(n int) (*Reader, error) {
	if err := r.Ensure(n); err != nil {
		return nil, err
	}
	body := make([]byte, n)
	copy(body, r.buf[r.pos:r.pos+n])
	return &Reader{src: exhausted{}, buf: body}, nil
}

// exhausted is a ByteSource that never yields more bytes; Sub-readers
// are bounded views and must never block trying to refill past what
// they were given.
type exhausted struct{}

var errEOS = errors.New("netio: sub-reader exhausted")

func (exhausted) Read(int) ([]byte, error) { return nil, errEOS }
