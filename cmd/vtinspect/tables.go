package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/eak1mov/go-vectiles/atlas"
	"github.com/eak1mov/go-vectiles/font"
	"github.com/eak1mov/go-vectiles/resource"
	"github.com/google/subcommands"
)

type atlasCmd struct {
	inputPath string
	cropDir   string
	out       io.Writer
}

func (c *atlasCmd) Name() string     { return "atlas" }
func (c *atlasCmd) Synopsis() string { return "dump texture atlas rectangles" }
func (c *atlasCmd) Usage() string    { return "vtinspect atlas -i <file.atl> [-crop <dir>]\n" }
func (c *atlasCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input atlas file path")
	f.StringVar(&c.cropDir, "crop", "", "Write every texture as <dir>/<id>.png, cut from the atlas image next to the input")
}

// crop loads the atlas together with its base image and writes every texture.
func (c *atlasCmd) crop(ctx context.Context) error {
	name := strings.TrimSuffix(filepath.Base(c.inputPath), resource.AtlasExt)
	loader := resource.NewLoader(resource.DirFetcher(filepath.Dir(c.inputPath)))
	res, err := loader.Load(ctx, "", name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.cropDir, 0o755); err != nil {
		return err
	}
	for id, r := range res.Textures.Atlas {
		img, err := res.Textures.Image.SubImage(r)
		if err != nil {
			return fmt.Errorf("texture %d: %w", id, err)
		}
		if err := imaging.Save(img, filepath.Join(c.cropDir, fmt.Sprintf("%d.png", id))); err != nil {
			return err
		}
	}
	return nil
}

func (c *atlasCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	data, err := os.ReadFile(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	rects, err := atlas.Parse(data)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	for id, r := range rects {
		fmt.Fprintf(c.out, "%d\t%d,%d\t%dx%d\n", id, r.X, r.Y, r.W, r.H)
	}

	if c.cropDir != "" {
		if err := c.crop(ctx); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

type fontsCmd struct {
	inputPath string
	out       io.Writer
}

func (c *fontsCmd) Name() string     { return "fonts" }
func (c *fontsCmd) Synopsis() string { return "dump bitmap font metrics" }
func (c *fontsCmd) Usage() string    { return "vtinspect fonts -i <file.info>\n" }
func (c *fontsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input font metrics file path")
}

func (c *fontsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	data, err := os.ReadFile(c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fonts, err := font.Parse(data)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	for fontIndex, chars := range fonts {
		fmt.Fprintf(c.out, "font %d: %d chars\n", fontIndex, len(chars))
		for char, ci := range chars {
			fmt.Fprintf(c.out, "  %d\toffset %d,%d\tadvance %d\trect %d,%d %dx%d",
				char, ci.XOffset, ci.YOffset, ci.XAdvance, ci.Rect.X, ci.Rect.Y, ci.Rect.W, ci.Rect.H)
			for _, prev := range slices.Sorted(maps.Keys(ci.Kernings)) {
				fmt.Fprintf(c.out, "\tkern[%d]=%d", prev, ci.Kernings[prev])
			}
			fmt.Fprintln(c.out)
		}
	}
	return subcommands.ExitSuccess
}
