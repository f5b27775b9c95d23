// Package export writes decoded textures as image files and decoded models as
// glTF documents.
package export

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// Format is an output image encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
	TGA  Format = "tga"
	BMP  Format = "bmp"
)

var Formats = []Format{PNG, WebP, TGA, BMP}

// ParseFormat accepts a format name, case-insensitive, with or without a dot.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.Errorf("export: unknown image format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	return f, err == nil
}

// Ext is the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case TGA:
		err = tga.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	default:
		return errors.Errorf("export: unknown image format %q", f)
	}
	return errors.Wrapf(err, "export: %s encode", f)
}

// WriteImage creates path (and its directory) and encodes img into it.
func WriteImage(path string, img image.Image, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "export")
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "export")
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return errors.Wrap(out.Close(), "export")
}
