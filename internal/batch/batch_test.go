package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dc-asset-decoder/internal/config"
	"dc-asset-decoder/internal/fixture"
	"dc-asset-decoder/internal/twiddle"
)

func populate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"tex.pvr": fixture.Texture(2, 0x09, 2, 2, []uint16{0xf000, 0xf00f, 0xf0f0, 0xff00}),
		"arch.pvm": fixture.Archive(
			fixture.PVRT(2, 0x09, 1, 1, []uint16{0xffff}),
			fixture.PVRT(2, 0x05, 1, 1, []uint16{0}),
		),
		"model.mt5": fixture.HRCM([]fixture.Mesh{{
			Vertices: [][6]float32{{0, 0, 0, 0, 0, 1}, {1, 0, 0, 0, 0, 1}, {0, 1, 0, 0, 0, 1}},
			Format:   0x13,
			Strips:   [][]fixture.Point{{{Index: 0}, {Index: 1}, {Index: 2}}},
		}}),
		"notes.txt": []byte("not an asset"),
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deep.pvr"), files["tex.pvr"], 0644))
	return dir
}

func TestDetect(t *testing.T) {
	assert.Equal(t, KindArchive, Detect([]byte("PVMH....")))
	assert.Equal(t, KindModel, Detect([]byte("HRCM")))
	assert.Equal(t, KindTexture, Detect([]byte("GBIX")))
	assert.Equal(t, KindTexture, Detect([]byte("PVRT")))
	assert.Equal(t, KindUnknown, Detect([]byte("PV")))
	assert.Equal(t, "model", KindModel.String())
}

func TestCollect(t *testing.T) {
	dir := populate(t)

	files, err := Collect(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "arch.pvm"),
		filepath.Join(dir, "model.mt5"),
		filepath.Join(dir, "tex.pvr"),
	}, files)

	files, err = Collect(dir, true)
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestRun(t *testing.T) {
	dir := populate(t)
	cfg := config.Config{InputDir: dir, OutputDir: t.TempDir(), Workers: 2, Preview: true, PreviewSize: 32}
	cfg.Resolve(config.Flags{})
	require.NoError(t, cfg.Validate())

	files, err := Collect(dir, true)
	require.NoError(t, err)
	results := Run(cfg, files)
	require.Len(t, results, 4)

	for _, r := range results {
		require.True(t, r.Success, "%s: %s", r.Input, r.Error)
		for _, o := range r.Outputs {
			if o.Path != "" {
				assert.FileExists(t, o.Path)
			}
		}
	}

	arch := results[0]
	assert.Equal(t, KindArchive, arch.Kind)
	require.Len(t, arch.Outputs, 2)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "arch", "texture[0].png"), arch.Outputs[0].Path)
	assert.NotEmpty(t, arch.Outputs[1].Error)
	assert.Equal(t, 1, arch.Warnings)

	model := results[1]
	assert.Equal(t, KindModel, model.Kind)
	require.Len(t, model.Outputs, 2)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "model.glb"), model.Outputs[0].Path)
	assert.Equal(t, 32, model.Outputs[1].Width)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "sub", "deep.png"), results[2].Outputs[0].Path)
	assert.Equal(t, 2, results[3].Outputs[0].Width)

	manifest := filepath.Join(cfg.OutputDir, "manifest.json")
	require.NoError(t, WriteManifest(manifest, results))
	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var decoded struct {
		Converted int `json:"converted"`
		Failed    int `json:"failed"`
		Results   []struct {
			Kind string `json:"kind"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 4, decoded.Converted)
	assert.Equal(t, "archive", decoded.Results[0].Kind)
}

func TestProcessReportsFailures(t *testing.T) {
	dir := populate(t)
	cfg := config.Config{InputDir: dir, OutputDir: t.TempDir()}
	cfg.Resolve(config.Flags{})
	p := NewProcessor(cfg, twiddle.NewCache())

	r := p.Process(filepath.Join(dir, "notes.txt"))
	assert.False(t, r.Success)
	assert.Equal(t, KindUnknown, r.Kind)

	r = p.Process(filepath.Join(dir, "missing.pvr"))
	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Error)

	bad := filepath.Join(dir, "bad.mt5")
	require.NoError(t, os.WriteFile(bad, []byte("HRCM\x00\x00\x00\x00\xff\xff\x00\x00"), 0644))
	r = p.Process(bad)
	assert.False(t, r.Success)
	assert.Contains(t, r.Error, "mt5 header")
}

func TestUniqueName(t *testing.T) {
	used := make(map[string]bool)
	var got []string
	for _, n := range []string{"x", "x", "x_1", "x"} {
		got = append(got, uniqueName(used, n))
	}
	assert.Equal(t, []string{"x", "x_1", "x_1_1", "x_2"}, got)
}

func TestArchiveDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	tex := fixture.PVRT(2, 0x09, 1, 1, []uint16{0xffff})
	data := fixture.NamedArchive(fixture.EntryName,
		[]fixture.Entry{{Name: "x"}, {Name: "x"}, {Name: "x_1"}}, tex, tex, tex)
	path := filepath.Join(dir, "dup.pvm")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg := config.Config{InputDir: dir, OutputDir: t.TempDir()}
	cfg.Resolve(config.Flags{})
	r := NewProcessor(cfg, twiddle.NewCache()).Process(path)
	require.True(t, r.Success, r.Error)
	require.Len(t, r.Outputs, 3)

	paths := make(map[string]bool)
	for _, o := range r.Outputs {
		assert.False(t, paths[o.Path], "duplicate output %s", o.Path)
		paths[o.Path] = true
		assert.FileExists(t, o.Path)
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "a_b", safeName("a/b"))
	assert.Equal(t, "texture", safeName(".."))
}
