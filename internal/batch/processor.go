package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"dc-asset-decoder/internal/config"
	"dc-asset-decoder/internal/export"
	"dc-asset-decoder/internal/mt5"
	"dc-asset-decoder/internal/postprocess"
	"dc-asset-decoder/internal/pvm"
	"dc-asset-decoder/internal/pvr"
	"dc-asset-decoder/internal/raster"
	"dc-asset-decoder/internal/twiddle"
)

// Output is one file written for an input, or the reason it could not be.
type Output struct {
	Path   string `json:"path,omitempty"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result holds the outcome of converting one input file.
type Result struct {
	Input    string   `json:"input"`
	Kind     Kind     `json:"kind"`
	Outputs  []Output `json:"outputs,omitempty"`
	Warnings int      `json:"warnings,omitempty"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
}

// Processor converts files with one resolved config. The twiddle cache is
// shared by every worker.
type Processor struct {
	cfg   config.Config
	cache *twiddle.Cache
}

func NewProcessor(cfg config.Config, cache *twiddle.Cache) *Processor {
	if cache == nil {
		cache = twiddle.Default
	}
	return &Processor{cfg: cfg, cache: cache}
}

func (p *Processor) textureOptions() []pvr.Option {
	return append(p.cfg.TextureOptions(), pvr.WithMapper(p.cache))
}

// Run processes all files using a worker pool of cfg.Workers goroutines.
// Results are in input order.
func Run(cfg config.Config, files []string) []Result {
	p := NewProcessor(cfg, twiddle.NewCache())
	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if n := processed.Load(); n > 0 {
					log.Info().
						Int64("done", n).
						Int("total", total).
						Float64("files_per_sec", float64(n)/time.Since(start).Seconds()).
						Msg("progress")
				}
			}
		}
	}()

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.Process(files[i])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	log.Info().Int("files", total).Dur("elapsed", time.Since(start)).Msg("batch finished")
	return results
}

// Process converts one file. It never panics on malformed input; failures are
// reported in the result.
func (p *Processor) Process(path string) Result {
	res := Result{Input: path}
	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Kind = Detect(data)
	switch res.Kind {
	case KindTexture:
		err = p.texture(&res, data)
	case KindArchive:
		err = p.archive(&res, data)
	case KindModel:
		err = p.model(&res, data)
	default:
		err = errors.New("unrecognised file magic")
	}
	if err != nil {
		res.Error = err.Error()
		log.Debug().Str("file", path).Err(err).Msg("conversion failed")
		return res
	}
	res.Success = true
	return res
}

// outputBase is the output path of path without extension, mirroring its
// position under the input directory.
func (p *Processor) outputBase(path string) string {
	rel := filepath.Base(path)
	if p.cfg.InputDir != "" {
		if r, err := filepath.Rel(p.cfg.InputDir, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	return filepath.Join(p.cfg.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel)))
}

func (p *Processor) texture(res *Result, data []byte) error {
	_, img, err := pvm.ReadTexture(data, p.textureOptions()...)
	if err != nil {
		return err
	}
	out := p.outputBase(res.Input) + p.cfg.Image().Ext()
	if err := export.WriteImage(out, img, p.cfg.Image()); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, Output{Path: out, Width: img.Rect.Dx(), Height: img.Rect.Dy()})
	return nil
}

func (p *Processor) archive(res *Result, data []byte) error {
	a, err := pvm.ParseArchive(data)
	if err != nil {
		return err
	}
	dir := p.outputBase(res.Input)
	used := make(map[string]bool)
	for _, tex := range a.Textures(p.textureOptions()...) {
		name := uniqueName(used, safeName(tex.Entry.Name))

		o := Output{Name: tex.Entry.Name}
		if tex.Err != nil {
			o.Error = tex.Err.Error()
			res.Warnings++
			log.Debug().Str("archive", res.Input).Str("entry", tex.Entry.Name).Err(tex.Err).Msg("skipped texture")
			res.Outputs = append(res.Outputs, o)
			continue
		}
		o.Path = filepath.Join(dir, name+p.cfg.Image().Ext())
		o.Width, o.Height = tex.Image.Rect.Dx(), tex.Image.Rect.Dy()
		if err := export.WriteImage(o.Path, tex.Image, p.cfg.Image()); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, o)
	}
	return nil
}

func (p *Processor) model(res *Result, data []byte) error {
	opts := append(p.cfg.ModelOptions(), mt5.WithTextureOptions(pvr.WithMapper(p.cache)))
	m, err := mt5.Decode(data, opts...)
	if err != nil {
		return err
	}
	res.Warnings += len(m.Warnings)
	for _, t := range m.Textures {
		if t.Err != nil {
			res.Warnings++
		}
	}

	base := p.outputBase(res.Input)
	out := base + "." + p.cfg.ModelFormat
	if err := export.WriteModel(out, m); err != nil {
		return err
	}
	res.Outputs = append(res.Outputs, Output{Path: out, Name: fmt.Sprintf("%d triangles", m.Triangles())})

	if p.cfg.Preview {
		img := raster.RenderModel(m, p.cfg.PreviewOptions())
		img = postprocess.Downsample(img, p.cfg.PreviewSize, p.cfg.PreviewSize)
		prev := base + ".preview" + p.cfg.Image().Ext()
		if err := export.WriteImage(prev, img, p.cfg.Image()); err != nil {
			return err
		}
		res.Outputs = append(res.Outputs, Output{Path: prev, Width: img.Rect.Dx(), Height: img.Rect.Dy()})
	}
	return nil
}

// uniqueName returns name, or name_N with the lowest N not yet in used, and
// marks the result as used.
func uniqueName(used map[string]bool, name string) string {
	out := name
	for n := 1; used[out]; n++ {
		out = fmt.Sprintf("%s_%d", name, n)
	}
	used[out] = true
	return out
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return "texture"
	}
	return s
}
