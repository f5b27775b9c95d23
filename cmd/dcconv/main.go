package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"dc-asset-decoder/internal/batch"
	"dc-asset-decoder/internal/config"
	"dc-asset-decoder/internal/twiddle"
)

var CLI struct {
	Debug  bool   `help:"Enable debug logging."`
	Config string `help:"JSON or YAML config file." type:"existingfile" short:"c"`
	Out    string `help:"Output directory (default: next to the input)." type:"path" short:"o"`
	Format string `help:"Image format: png, webp, tga or bmp." short:"f"`
	FlipX  bool   `help:"Mirror textures horizontally."`
	FlipY  bool   `help:"Mirror textures vertically."`

	Texture struct {
		Input string `arg:"" name:"input" help:"PVR texture file (GBIX or PVRT)." type:"existingfile"`
	} `cmd:"" help:"Convert one PVR texture."`

	Archive struct {
		Input string `arg:"" name:"input" help:"PVM texture archive." type:"existingfile"`
	} `cmd:"" help:"Extract every texture of a PVM archive."`

	Model struct {
		Input   string `arg:"" name:"input" help:"MT5 (HRCM) model file." type:"existingfile"`
		Gltf    bool   `help:"Write a .gltf JSON document instead of .glb."`
		Bake    bool   `help:"Apply node transforms to vertices."`
		Preview bool   `help:"Also render a preview image."`
		Size    int    `help:"Preview size in pixels."`
	} `cmd:"" help:"Convert an MT5 model to glTF."`

	Batch struct {
		Dir       string `arg:"" name:"dir" help:"Directory to convert." type:"existingdir"`
		Recursive bool   `help:"Descend into subdirectories." short:"r"`
		Preview   bool   `help:"Render previews of models."`
		Workers   int    `help:"Worker goroutines (default: NumCPU)." short:"j"`
	} `cmd:"" help:"Convert every recognised asset in a directory."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func loadConfig(flags config.Flags) config.Config {
	var cfg config.Config
	if CLI.Config != "" {
		var err error
		if cfg, err = config.Load(CLI.Config); err != nil {
			writeError(err)
		}
	}
	if CLI.Out != "" {
		flags.OutputDir = CLI.Out
	}
	flags.ImageFormat = CLI.Format
	flags.FlipX = CLI.FlipX
	flags.FlipY = CLI.FlipY
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		writeError(err)
	}
	return cfg
}

// single converts one file with the output directory defaulting to its own.
func single(path string, flags config.Flags) {
	flags.InputDir = filepath.Dir(path)
	flags.OutputDir = flags.InputDir
	cfg := loadConfig(flags)

	res := batch.NewProcessor(cfg, twiddle.Default).Process(path)
	if !res.Success {
		writeError(fmt.Errorf("%s: %s", path, res.Error))
	}
	for _, o := range res.Outputs {
		if o.Error != "" {
			log.Warn().Str("entry", o.Name).Msg(o.Error)
			continue
		}
		log.Info().Str("file", o.Path).Int("width", o.Width).Int("height", o.Height).Msg("wrote")
	}
	if res.Warnings > 0 {
		log.Warn().Int("warnings", res.Warnings).Msg("converted with warnings, rerun with --debug for details")
	}
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("dcconv"),
		kong.Description("Convert Dreamcast PVR textures, PVM archives and MT5 models."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Debug().Msg("debug logging enabled")
	}

	switch ctx.Command() {
	case "texture <input>":
		single(CLI.Texture.Input, config.Flags{})
	case "archive <input>":
		single(CLI.Archive.Input, config.Flags{})
	case "model <input>":
		flags := config.Flags{Bake: CLI.Model.Bake, Preview: CLI.Model.Preview, PreviewSize: CLI.Model.Size}
		if CLI.Model.Gltf {
			flags.ModelFormat = "gltf"
		}
		single(CLI.Model.Input, flags)
	case "batch <dir>":
		cfg := loadConfig(config.Flags{
			InputDir:  CLI.Batch.Dir,
			Recursive: CLI.Batch.Recursive,
			Preview:   CLI.Batch.Preview,
			Workers:   CLI.Batch.Workers,
		})
		files, err := batch.Collect(cfg.InputDir, cfg.Recursive)
		if err != nil {
			writeError(err)
		}
		log.Info().Int("files", len(files)).Int("workers", cfg.Workers).Str("output", cfg.OutputDir).Msg("converting")

		results := batch.Run(cfg, files)
		m := batch.NewManifest(results)
		for _, r := range results {
			if !r.Success {
				log.Error().Str("file", r.Input).Msg(r.Error)
			}
		}
		if err := batch.WriteManifest(cfg.Manifest, results); err != nil {
			writeError(err)
		}
		log.Info().Int("converted", m.Converted).Int("failed", m.Failed).Str("manifest", cfg.Manifest).Msg("done")
		if m.Failed > 0 {
			os.Exit(1)
		}
	}
}
