package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Manifest is written next to the converted files.
type Manifest struct {
	Converted int      `json:"converted"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

func NewManifest(results []Result) Manifest {
	m := Manifest{Results: results}
	for _, r := range results {
		if r.Success {
			m.Converted++
		} else {
			m.Failed++
		}
	}
	return m
}

// WriteManifest writes the results as indented JSON to path.
func WriteManifest(path string, results []Result) error {
	data, err := json.MarshalIndent(NewManifest(results), "", "  ")
	if err != nil {
		return errors.Wrap(err, "batch: manifest")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "batch: manifest")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "batch: manifest")
}
