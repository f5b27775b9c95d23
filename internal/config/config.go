package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"dc-asset-decoder/internal/export"
	"dc-asset-decoder/internal/mt5"
	"dc-asset-decoder/internal/pvr"
	"dc-asset-decoder/internal/raster"
)

// Config holds conversion settings. It can be loaded from JSON or YAML.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir" yaml:"input_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	Manifest  string `json:"manifest" yaml:"manifest"`
	Recursive bool   `json:"recursive" yaml:"recursive"`

	// Texture output
	ImageFormat string `json:"image_format" yaml:"image_format"`
	FlipX       bool   `json:"flip_x" yaml:"flip_x"`
	FlipY       bool   `json:"flip_y" yaml:"flip_y"`

	// Model output
	ModelFormat    string `json:"model_format" yaml:"model_format"`
	BakeTransforms bool   `json:"bake_transforms" yaml:"bake_transforms"`
	MaxDepth       int    `json:"max_depth" yaml:"max_depth"`

	// Preview renders of models
	Preview     bool `json:"preview" yaml:"preview"`
	PreviewSize int  `json:"preview_size" yaml:"preview_size"`
	Supersample int  `json:"supersample" yaml:"supersample"`

	Workers int `json:"workers" yaml:"workers"`
}

// Load reads a config file. Files ending in .yaml or .yml are YAML, anything
// else is JSON. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// Flags holds CLI values that override config file settings. Zero values and
// false booleans leave the file setting alone. Paths are used as given.
type Flags struct {
	InputDir    string
	OutputDir   string
	ImageFormat string
	ModelFormat string
	FlipX       bool
	FlipY       bool
	Preview     bool
	Bake        bool
	Recursive   bool
	Workers     int
	PreviewSize int
}

// Resolve applies flags, then fills any empty field with its default.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.ImageFormat != "" {
		c.ImageFormat = flags.ImageFormat
	}
	if flags.ModelFormat != "" {
		c.ModelFormat = flags.ModelFormat
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	c.FlipX = c.FlipX || flags.FlipX
	c.FlipY = c.FlipY || flags.FlipY
	c.Preview = c.Preview || flags.Preview
	c.BakeTransforms = c.BakeTransforms || flags.Bake
	c.Recursive = c.Recursive || flags.Recursive

	// A relative output_dir in the file hangs off the input directory. The flag
	// is taken as given, relative to the working directory.
	switch {
	case flags.OutputDir != "":
		c.OutputDir = flags.OutputDir
	case c.OutputDir == "":
		c.OutputDir = filepath.Join(c.InputDir, "converted")
	case !filepath.IsAbs(c.OutputDir) && c.InputDir != "":
		c.OutputDir = filepath.Join(c.InputDir, c.OutputDir)
	}
	if c.Manifest == "" {
		c.Manifest = filepath.Join(c.OutputDir, "manifest.json")
	} else if !filepath.IsAbs(c.Manifest) {
		c.Manifest = filepath.Join(c.OutputDir, c.Manifest)
	}

	if c.ImageFormat == "" {
		c.ImageFormat = string(export.PNG)
	}
	c.ImageFormat = strings.ToLower(strings.TrimPrefix(c.ImageFormat, "."))
	if c.ModelFormat == "" {
		c.ModelFormat = "glb"
	}
	c.ModelFormat = strings.ToLower(strings.TrimPrefix(c.ModelFormat, "."))
	if c.MaxDepth <= 0 {
		c.MaxDepth = mt5.DefaultMaxDepth
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks the output format names. Call it after Resolve.
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.ImageFormat); err != nil {
		return errors.Wrap(err, "config")
	}
	if c.ModelFormat != "gltf" && c.ModelFormat != "glb" {
		return errors.Errorf("config: unknown model format %q", c.ModelFormat)
	}
	return nil
}

// Image is the parsed ImageFormat. Only valid after Validate.
func (c *Config) Image() export.Format {
	f, _ := export.ParseFormat(c.ImageFormat)
	return f
}

func (c *Config) TextureOptions() []pvr.Option {
	return []pvr.Option{pvr.WithFlipX(c.FlipX), pvr.WithFlipY(c.FlipY)}
}

func (c *Config) ModelOptions() []mt5.Option {
	return []mt5.Option{
		mt5.WithMaxDepth(c.MaxDepth),
		mt5.WithBakeTransforms(c.BakeTransforms),
		mt5.WithTextureOptions(c.TextureOptions()...),
	}
}

func (c *Config) PreviewOptions() raster.Options {
	opts := raster.DefaultOptions()
	opts.Size = c.PreviewSize
	opts.Supersample = c.Supersample
	return opts
}
