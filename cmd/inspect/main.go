package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/davecgh/go-spew/spew"

	"dc-asset-decoder/internal/batch"
	"dc-asset-decoder/internal/mt5"
	"dc-asset-decoder/internal/pvm"
)

var dump = flag.Bool("dump", false, "spew-dump decoded headers and nodes")

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [-dump] <file.pvr|file.pvm|file.mt5>")
		os.Exit(2)
	}
	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.MaxDepth = 3

	switch batch.Detect(data) {
	case batch.KindTexture:
		d, img, err := pvm.ReadTexture(data)
		fmt.Printf("Texture: %s\n", d)
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  Decoded: %dx%d\n", img.Rect.Dx(), img.Rect.Dy())

	case batch.KindArchive:
		a, err := pvm.ParseArchive(data)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Archive: flags=0x%02x entries=%d data=0x%x\n", a.Flags, len(a.Entries), a.DataStart)
		for i, t := range a.Textures() {
			if t.Err != nil {
				fmt.Printf("  [%d] %-28s @0x%06x  error: %v\n", i, t.Entry.Name, t.Offset, t.Err)
				continue
			}
			fmt.Printf("  [%d] %-28s @0x%06x  %s  gidx=%d\n", i, t.Entry.Name, t.Offset, t.Descriptor, t.Entry.GlobalIndex)
		}
		if *dump {
			cfg.Dump(a.Entries)
		}

	case batch.KindModel:
		m, err := mt5.Decode(data)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Model: nodes=%d vertices=%d polygons=%d triangles=%d textures=%d warnings=%d\n",
			len(m.Nodes), len(m.Vertices), len(m.Polygons), m.Triangles(), len(m.Textures), len(m.Warnings))

		lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
		hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		for _, v := range m.Vertices {
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], float64(v.Position[k]))
				hi[k] = math.Max(hi[k], float64(v.Position[k]))
			}
		}
		fmt.Printf("  BBox: X[%.2f, %.2f] Y[%.2f, %.2f] Z[%.2f, %.2f]\n", lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])

		for _, n := range m.Nodes {
			verts := 0
			if n.Mesh != nil {
				verts = int(n.Mesh.VertexCount)
			}
			fmt.Printf("  %*snode@0x%06x verts=%d first=%d pos=(%.2f, %.2f, %.2f)\n",
				n.Depth*2, "", n.Offset, verts, n.FirstVertex, n.Position[0], n.Position[1], n.Position[2])
		}
		for _, g := range m.Groups {
			fmt.Printf("  texture %d: %d triangles\n", g.TextureID, len(g.Indices)/3)
		}
		for _, t := range m.Textures {
			if t.Err != nil {
				fmt.Printf("  %s: error: %v\n", t.Name, t.Err)
			} else {
				fmt.Printf("  %s: %s\n", t.Name, t.Descriptor)
			}
		}
		for _, w := range m.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		if *dump {
			cfg.Dump(m.Header, m.Nodes)
		}

	default:
		fmt.Printf("%s: unrecognised file magic\n", path)
		os.Exit(1)
	}
}
