// Package decerr holds the error kinds shared by the texture, archive and model decoders.
//
// Every error carries the byte offset it was raised at so a corrupt asset can be
// located with a hex editor. Use errors.As to tell the kinds apart.
package decerr

import "fmt"

// MalformedHeaderError reports a bad magic, offset or table. Fatal for the asset.
type MalformedHeaderError struct {
	Offset int
	What   string
	Detail string
}

func (e *MalformedHeaderError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("malformed %s at 0x%x", e.What, e.Offset)
	}
	return fmt.Sprintf("malformed %s at 0x%x: %s", e.What, e.Offset, e.Detail)
}

// Malformed builds a MalformedHeaderError.
func Malformed(offset int, what, format string, args ...any) error {
	return &MalformedHeaderError{Offset: offset, What: what, Detail: fmt.Sprintf(format, args...)}
}

// UnsupportedFormatError reports a recognized pixel or data format that is not decoded.
type UnsupportedFormatError struct {
	Kind  string // "color format", "data format", "layout"
	Value int
	Name  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported %s 0x%02x (%s)", e.Kind, e.Value, e.Name)
	}
	return fmt.Sprintf("unsupported %s 0x%02x", e.Kind, e.Value)
}

// TruncatedStreamError reports that a marker or payload ran past the end of the buffer.
type TruncatedStreamError struct {
	Offset int
	Want   int
	Have   int
	What   string
}

func (e *TruncatedStreamError) Error() string {
	what := e.What
	if what == "" {
		what = "read"
	}
	return fmt.Sprintf("truncated %s at 0x%x: want %d bytes, have %d", what, e.Offset, e.Want, e.Have)
}

// IndexOutOfRangeWarning is recorded, not returned: the strip point was dropped.
type IndexOutOfRangeWarning struct {
	Offset   int // stream offset of the point
	Index    int // resolved (offset-adjusted) vertex index
	Vertices int // vertex list length at the time
}

func (w IndexOutOfRangeWarning) String() string {
	return fmt.Sprintf("strip point at 0x%x references vertex %d, only %d decoded", w.Offset, w.Index, w.Vertices)
}
