package pvm

import (
	"image"

	"github.com/pkg/errors"

	"dc-asset-decoder/internal/bitstream"
	"dc-asset-decoder/internal/decerr"
	"dc-asset-decoder/internal/pvr"
)

var (
	MagicPVRT = []byte("PVRT")
	MagicGBIX = []byte("GBIX")
)

// Stream is one embedded texture sub-stream located by ScanStreams.
type Stream struct {
	Offset     int // absolute offset of the PVRT marker
	Descriptor pvr.Descriptor
	Image      *image.NRGBA
	Err        error
}

// ScanStreams locates up to count consecutive PVRT sub-streams starting at the
// reader's cursor and decodes each one. Exactly count streams are returned.
// Once a marker cannot be found, the remaining streams carry a
// *decerr.TruncatedStreamError.
func ScanStreams(r *bitstream.Reader, count int, opts ...pvr.Option) []Stream {
	out := make([]Stream, count)
	exhausted := false
	for i := range out {
		s := &out[i]
		if exhausted {
			s.Offset = r.Abs(r.Len())
			s.Err = &decerr.TruncatedStreamError{Offset: s.Offset, Want: len(MagicPVRT), What: "PVRT marker"}
			continue
		}
		start := r.Tell()
		if !r.Find(MagicPVRT) {
			exhausted = true
			s.Offset = r.Abs(start)
			s.Err = &decerr.TruncatedStreamError{Offset: s.Offset, Want: len(MagicPVRT),
				Have: r.Len() - start, What: "PVRT marker"}
			continue
		}
		s.Offset = r.Abs(r.Tell() - len(MagicPVRT))

		length := int(r.U32())
		if err := r.Err(); err != nil {
			exhausted = true
			s.Err = errors.Wrap(err, "pvm: texture length")
			continue
		}
		body, err := r.Sub(r.Tell(), length)
		if err != nil {
			exhausted = true
			s.Err = errors.Wrap(err, "pvm: texture body")
			continue
		}
		r.Skip(length)

		s.Descriptor, s.Image, s.Err = pvr.DecodeStream(body.Bytes(), opts...)
	}
	return out
}

// ReadTexture decodes a standalone .pvr file: an optional GBIX chunk followed by
// one PVRT sub-stream.
func ReadTexture(data []byte, opts ...pvr.Option) (pvr.Descriptor, *image.NRGBA, error) {
	if len(data) < 4 {
		return pvr.Descriptor{}, nil, decerr.Malformed(0, "pvr file", "only %d bytes", len(data))
	}
	magic := string(data[:4])
	if magic != string(MagicGBIX) && magic != string(MagicPVRT) {
		return pvr.Descriptor{}, nil, decerr.Malformed(0, "pvr file", "magic %q", magic)
	}
	s := ScanStreams(bitstream.New(data), 1, opts...)[0]
	return s.Descriptor, s.Image, s.Err
}
