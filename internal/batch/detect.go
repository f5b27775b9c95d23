package batch

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"dc-asset-decoder/internal/mt5"
	"dc-asset-decoder/internal/pvm"
)

// Kind is the asset type, detected from the leading magic.
type Kind int

const (
	KindUnknown Kind = iota
	KindTexture
	KindArchive
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindArchive:
		return "archive"
	case KindModel:
		return "model"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Detect looks at the first four bytes only.
func Detect(head []byte) Kind {
	if len(head) < 4 {
		return KindUnknown
	}
	switch magic := head[:4]; {
	case bytes.Equal(magic, pvm.MagicPVMH):
		return KindArchive
	case bytes.Equal(magic, mt5.MagicHRCM):
		return KindModel
	case bytes.Equal(magic, pvm.MagicGBIX), bytes.Equal(magic, pvm.MagicPVRT):
		return KindTexture
	}
	return KindUnknown
}

// DetectFile reads the magic of the file at path.
func DetectFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()
	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return KindUnknown, nil
		}
		return KindUnknown, err
	}
	return Detect(head), nil
}

// Collect lists the recognised asset files under dir in lexical order.
func Collect(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		kind, err := DetectFile(path)
		if err != nil {
			return err
		}
		if kind != KindUnknown {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "batch: scan %s", dir)
	}
	sort.Strings(files)
	return files, nil
}
