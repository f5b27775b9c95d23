package bitstream

import (
	"bytes"
	"encoding/binary"
	"math"

	"dc-asset-decoder/internal/decerr"
)

// Reader is a little-endian cursor over an immutable byte slice.
//
// Reads past the end return zero and clamp the cursor to the end. The first
// overrun is kept as a sticky *decerr.TruncatedStreamError, available via Err.
type Reader struct {
	data []byte
	off  int
	base int // absolute offset of data[0], for error reporting
	err  error
}

// New returns a Reader positioned at the start of data.
func New(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Len() int       { return len(r.data) }
func (r *Reader) Tell() int      { return r.off }
func (r *Reader) Remaining() int { return len(r.data) - r.off }
func (r *Reader) Bytes() []byte  { return r.data }
func (r *Reader) Err() error     { return r.err }

// Abs converts a reader-relative offset into an offset of the outermost buffer.
func (r *Reader) Abs(off int) int { return r.base + off }

// Seek moves the cursor to an absolute offset within the reader.
func (r *Reader) Seek(off int) {
	if off < 0 || off > len(r.data) {
		r.fail(off, 0, "seek")
		r.off = len(r.data)
		return
	}
	r.off = off
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) {
	if !r.need(n) {
		return
	}
	r.off += n
}

// Sub returns a reader over data[off:off+n]. The child starts with no error.
func (r *Reader) Sub(off, n int) (*Reader, error) {
	if off < 0 || n < 0 || off+n > len(r.data) {
		have := len(r.data) - off
		if have < 0 {
			have = 0
		}
		return nil, &decerr.TruncatedStreamError{Offset: r.Abs(off), Want: n, Have: have, What: "sub-stream"}
	}
	return &Reader{data: r.data[off : off+n], base: r.base + off}, nil
}

func (r *Reader) fail(off, want int, what string) {
	if r.err != nil {
		return
	}
	have := len(r.data) - off
	if have < 0 {
		have = 0
	}
	r.err = &decerr.TruncatedStreamError{Offset: r.Abs(off), Want: want, Have: have, What: what}
}

func (r *Reader) need(n int) bool {
	if r.off+n > len(r.data) {
		r.fail(r.off, n, "read")
		r.off = len(r.data)
		return false
	}
	return true
}

func (r *Reader) U8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *Reader) U16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *Reader) I16() int16 { return int16(r.U16()) }

func (r *Reader) U32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *Reader) I32() int32 { return int32(r.U32()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

// Read returns the next n bytes without copying.
func (r *Reader) Read(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Magic reads a 4-byte tag as a string, e.g. "PVRT".
func (r *Reader) Magic() string {
	return string(r.Read(4))
}

// Find scans forward byte by byte for marker. On success the cursor is placed
// right after it. On failure the cursor is left at the end and false is returned;
// no error is recorded, the caller decides whether a missing marker is fatal.
func (r *Reader) Find(marker []byte) bool {
	i := bytes.Index(r.data[r.off:], marker)
	if i < 0 {
		r.off = len(r.data)
		return false
	}
	r.off += i + len(marker)
	return true
}
