package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dc-asset-decoder/internal/export"
	"dc-asset-decoder/internal/mt5"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadJSONAndYAML(t *testing.T) {
	j, err := Load(write(t, "c.json", `{"image_format": "webp", "flip_y": true, "workers": 3}`))
	require.NoError(t, err)

	y, err := Load(write(t, "c.yaml", "image_format: webp\nflip_y: true\nworkers: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, j, y)
	assert.Equal(t, "webp", y.ImageFormat)
	assert.True(t, y.FlipY)
	assert.Equal(t, 3, y.Workers)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "config: read")

	_, err = Load(write(t, "bad.yml", "workers: [1, 2"))
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolveDefaults(t *testing.T) {
	var c Config
	c.Resolve(Flags{InputDir: "/data"})

	assert.Equal(t, filepath.Join("/data", "converted"), c.OutputDir)
	assert.Equal(t, filepath.Join("/data", "converted", "manifest.json"), c.Manifest)
	assert.Equal(t, "png", c.ImageFormat)
	assert.Equal(t, "glb", c.ModelFormat)
	assert.Equal(t, mt5.DefaultMaxDepth, c.MaxDepth)
	assert.Equal(t, 256, c.PreviewSize)
	assert.Equal(t, 2, c.Supersample)
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	require.NoError(t, c.Validate())
}

func TestFlagsOverrideFile(t *testing.T) {
	c := Config{ImageFormat: "bmp", Workers: 2, OutputDir: "out", FlipX: true}
	c.Resolve(Flags{InputDir: "/in", ImageFormat: ".TGA", Workers: 8, Preview: true})

	assert.Equal(t, "tga", c.ImageFormat)
	assert.Equal(t, export.TGA, c.Image())
	assert.Equal(t, 8, c.Workers)
	assert.True(t, c.FlipX, "false flag keeps file value")
	assert.True(t, c.Preview)
	assert.Equal(t, filepath.Join("/in", "out"), c.OutputDir)
	assert.Len(t, c.ModelOptions(), 3)
	assert.Equal(t, 256, c.PreviewOptions().Size)
}

func TestOutputFlagIsNotJoined(t *testing.T) {
	var c Config
	c.Resolve(Flags{InputDir: "assets", OutputDir: "assets"})
	assert.Equal(t, "assets", c.OutputDir)
	assert.Equal(t, filepath.Join("assets", "manifest.json"), c.Manifest)

	c = Config{OutputDir: "from-file"}
	c.Resolve(Flags{InputDir: "assets", OutputDir: "out"})
	assert.Equal(t, "out", c.OutputDir)
}

func TestValidate(t *testing.T) {
	c := Config{ImageFormat: "jpeg"}
	c.Resolve(Flags{})
	assert.Error(t, c.Validate())

	c = Config{ModelFormat: "obj"}
	c.Resolve(Flags{})
	assert.ErrorContains(t, c.Validate(), "unknown model format")
}
