// Package pvm reads PowerVR texture archives (PVMH) and locates the PVRT
// sub-streams embedded in archives and model files.
package pvm

import (
	"fmt"
	"image"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/pvr"
)

var MagicPVMH = []byte("PVMH")

// Entry table flag bits, checked in this order.
const (
	FlagName        = 0x08
	FlagFormat      = 0x04
	FlagSize        = 0x02
	FlagGlobalIndex = 0x01
)

const nameLen = 0x1c

// Entry is one texture table record. Optional fields are valid only when the
// matching bit is set in the archive flags.
type Entry struct {
	ID          uint16
	Name        string
	Format      uint16
	Size        uint16
	GlobalIndex uint32
}

// Archive is a parsed PVMH header. Texture data is decoded lazily by Textures.
type Archive struct {
	Flags     uint16
	Entries   []Entry
	DataStart int

	data []byte
}

func (a *Archive) HasNames() bool { return a.Flags&FlagName != 0 }

// Texture pairs a table entry with its decode result.
type Texture struct {
	Entry      Entry
	Offset     int
	Descriptor pvr.Descriptor
	Image      *image.NRGBA
	Err        error
}

// ParseArchive reads the PVMH header and entry table.
func ParseArchive(data []byte) (*Archive, error) {
	r := bitstream.New(data)
	if magic := r.Magic(); magic != string(MagicPVMH) {
		return nil, decerr.Malformed(0, "pvm header", "magic %q", magic)
	}
	headerLen := int(r.U32())
	a := &Archive{
		Flags:     r.U16(),
		DataStart: 8 + headerLen,
		data:      data,
	}
	count := int(r.U16())
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(err, "pvm: header")
	}
	if a.DataStart > len(data) {
		return nil, decerr.Malformed(4, "pvm header", "texture data at 0x%x beyond %d bytes", a.DataStart, len(data))
	}

	dec := charmap.Windows1252.NewDecoder()
	a.Entries = make([]Entry, 0, count)
	for i := 0; i < count; i++ {
		start := r.Tell()
		e := Entry{ID: r.U16()}
		if a.Flags&FlagName != 0 {
			raw := r.Read(nameLen)
			if n := strings.IndexByte(string(raw), 0); n >= 0 {
				raw = raw[:n]
			}
			name, err := dec.Bytes(raw)
			if err != nil {
				name = raw
			}
			e.Name = strings.TrimSpace(string(name))
		}
		if a.Flags&FlagFormat != 0 {
			e.Format = r.U16()
		}
		if a.Flags&FlagSize != 0 {
			e.Size = r.U16()
		}
		if a.Flags&FlagGlobalIndex != 0 {
			e.GlobalIndex = r.U32()
		}
		if err := r.Err(); err != nil {
			return nil, errors.Wrap(decerr.Malformed(start, "pvm entry table", "entry %d of %d: %v", i, count, err), "pvm")
		}
		if e.Name == "" {
			e.Name = fmt.Sprintf("texture[%d]", e.ID)
		}
		a.Entries = append(a.Entries, e)
	}
	return a, nil
}

// Textures decodes the sub-stream of every entry in table order. Per-entry
// failures are reported in Texture.Err; they never abort the whole archive.
func (a *Archive) Textures(opts ...pvr.Option) []Texture {
	r := bitstream.New(a.data)
	r.Seek(a.DataStart)
	streams := ScanStreams(r, len(a.Entries), opts...)

	out := make([]Texture, len(a.Entries))
	for i, s := range streams {
		out[i] = Texture{
			Entry:      a.Entries[i],
			Offset:     s.Offset,
			Descriptor: s.Descriptor,
			Image:      s.Image,
			Err:        s.Err,
		}
	}
	return out
}
