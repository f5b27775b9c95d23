// Package fixture builds small synthetic PVR, PVM and HRCM files for tests.
package fixture

import (
	"bytes"
	"encoding/binary"
)

// Blob is a little-endian byte buffer written at arbitrary offsets.
type Blob struct {
	Data []byte
}

// Put writes vs at off, growing the buffer as needed, and returns the end offset.
// Values must be fixed-size for encoding/binary.
func (b *Blob) Put(off int, vs ...any) int {
	var buf bytes.Buffer
	for _, v := range vs {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	end := off + buf.Len()
	if end > len(b.Data) {
		b.Data = append(b.Data, make([]byte, end-len(b.Data))...)
	}
	copy(b.Data[off:], buf.Bytes())
	return end
}

// Append writes vs at the end of the buffer.
func (b *Blob) Append(vs ...any) int {
	return b.Put(len(b.Data), vs...)
}

// PVRT returns a bare PVRT sub-stream.
func PVRT(colorFormat, dataFormat byte, w, h int, texels []uint16) []byte {
	b := &Blob{}
	b.Append([]byte("PVRT"), uint32(8+2*len(texels)), colorFormat, dataFormat, uint16(0), uint16(w), uint16(h), texels)
	return b.Data
}

// Texture returns a standalone .pvr file: GBIX chunk then PVRT stream.
func Texture(colorFormat, dataFormat byte, w, h int, texels []uint16) []byte {
	b := &Blob{}
	b.Append([]byte("GBIX"), uint32(8), uint32(0), uint32(0))
	b.Append(PVRT(colorFormat, dataFormat, w, h, texels))
	return b.Data
}

// PVMH entry table flags.
const (
	EntryGlobalIndex = 0x01
	EntrySize        = 0x02
	EntryFormat      = 0x04
	EntryName        = 0x08
)

// Entry is one PVMH table entry. Only the fields selected by the table flags
// are written.
type Entry struct {
	Name        string
	Format      uint16
	Size        uint16
	GlobalIndex uint32
}

// PVMH returns an archive header and entry table with the header length filled in.
// Texture streams are appended by the caller.
func PVMH(flags uint16, entries ...Entry) *Blob {
	b := &Blob{}
	b.Append([]byte("PVMH"), uint32(0), flags, uint16(len(entries)))
	for i, e := range entries {
		b.Append(uint16(i))
		if flags&EntryName != 0 {
			name := make([]byte, 0x1c)
			copy(name, e.Name)
			b.Append(name)
		}
		if flags&EntryFormat != 0 {
			b.Append(e.Format)
		}
		if flags&EntrySize != 0 {
			b.Append(e.Size)
		}
		if flags&EntryGlobalIndex != 0 {
			b.Append(e.GlobalIndex)
		}
	}
	b.Put(4, uint32(len(b.Data)-8))
	return b
}

// Archive returns a PVMH file with global-index entries and the given streams.
func Archive(textures ...[]byte) []byte {
	entries := make([]Entry, len(textures))
	for i := range entries {
		entries[i].GlobalIndex = uint32(i)
	}
	return NamedArchive(EntryGlobalIndex, entries, textures...)
}

// NamedArchive returns a PVMH file with the given table flags and entries
// followed by the streams.
func NamedArchive(flags uint16, entries []Entry, textures ...[]byte) []byte {
	b := PVMH(flags, entries...)
	for _, t := range textures {
		b.Append(t)
	}
	return b.Data
}

// Point is one strip entry as stored: relative index and raw UV (1023 = 1.0).
type Point struct {
	Index int16
	U, V  int16
}

// Mesh is one node with a model record.
type Mesh struct {
	Vertices  [][6]float32 // position, normal
	TextureID uint16
	Format    uint16 // 0x11, 0x13 or 0x1c
	Strips    [][]Point

	// AsChild attaches this node below the previous one instead of next to it.
	AsChild bool
}

const (
	nodeSize  = 0x40
	firstNode = 0x10
)

// HRCM lays out a model file: header, one node per mesh, mesh data, then a TEXD
// block holding textures (PVRT streams) when any are given.
func HRCM(meshes []Mesh, textures ...[]byte) []byte {
	b := &Blob{}
	b.Put(0, []byte("HRCM"), uint32(0), uint32(firstNode))

	// nodes first, model offsets patched below
	for i := range meshes {
		off := firstNode + i*nodeSize
		var child, sibling uint32
		if i+1 < len(meshes) {
			next := uint32(off + nodeSize)
			if meshes[i+1].AsChild {
				child = next
			} else {
				sibling = next
			}
		}
		b.Put(off, uint32(0), uint32(0), [3]int32{}, [3]float32{1, 1, 1}, [3]float32{},
			child, sibling, uint32(0), [2]uint32{})
	}

	for i, m := range meshes {
		model := len(b.Data)
		b.Put(firstNode+i*nodeSize+4, uint32(model))
		b.Append(make([]byte, 0x20))

		verts := len(b.Data)
		for _, v := range m.Vertices {
			b.Append(v)
		}
		poly := len(b.Data)
		b.Put(model, uint32(0), uint32(verts), uint32(len(m.Vertices)), uint32(poly))
		writeStrips(b, m)
	}

	if len(textures) > 0 {
		texd := b.Append([]byte("TEXD")) - 4
		b.Put(4, uint32(texd))
		b.Append(uint32(0), uint32(len(textures)))
		for _, t := range textures {
			b.Append(t)
		}
	}
	b.Append(make([]byte, 8))
	return b.Data
}

func writeStrips(b *Blob, m Mesh) {
	b.Append(uint16(2), uint16(0x10), uint16(0x0009), m.TextureID, m.Format, uint16(0), uint16(len(m.Strips)))
	for _, s := range m.Strips {
		b.Append(int16(len(s)))
		for _, p := range s {
			b.Append(p.Index)
			switch m.Format {
			case 0x11:
				b.Append(p.U, p.V)
			case 0x1c:
				b.Append(p.U, p.V, p.U, p.V)
			}
		}
	}
	if len(b.Data)%4 == 2 {
		b.Append(uint16(0))
	}
	b.Append(uint16(0x8000), uint16(0xffff))
}
