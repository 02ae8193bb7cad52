package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-vectiles/resource"
	"github.com/eak1mov/go-vectiles/spec"
	"github.com/eak1mov/go-vectiles/vt"
)

// decoderFlags are shared by the commands that decode tiles.
type decoderFlags struct {
	inputPath   string
	inputFormat string
	version     int
	fontsPath   string
	atlasPath   string
	verbose     bool
}

func (d *decoderFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&d.inputPath, "i", "", "Input tileset path (.mbtiles, .pmtiles or a {z}/{x}/{y} pattern)")
	f.StringVar(&d.inputFormat, "if", "", "Input tileset format (mbtiles, pmtiles, dir)")
	f.IntVar(&d.version, "version", int(spec.VersionLatest), "Command stream format version")
	f.StringVar(&d.fontsPath, "fonts", "", "Font resources as dir/name (name.info and name.png)")
	f.StringVar(&d.atlasPath, "atlas", "", "Texture resources as dir/name (name.atl and name.png)")
	f.BoolVar(&d.verbose, "v", false, "Verbose logging")
}

func (d *decoderFlags) logger() *slog.Logger {
	if !d.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newDecoder loads the requested resources and builds a decoder for them.
// Fonts and atlas may live in different directories.
func (d *decoderFlags) newDecoder(ctx context.Context) (*vt.Decoder, error) {
	version, err := spec.ParseVersion(d.version)
	if err != nil {
		return nil, err
	}
	logger := d.logger()
	opts := []vt.Option{vt.WithVersion(version), vt.WithLogger(logger)}

	if d.fontsPath != "" {
		loader := resource.NewLoader(resource.DirFetcher(filepath.Dir(d.fontsPath)), resource.WithLogger(logger))
		res, err := loader.Load(ctx, filepath.Base(d.fontsPath), "")
		if err != nil {
			return nil, err
		}
		opts = append(opts, vt.WithFonts(res.FontTable()))
	}
	if d.atlasPath != "" {
		loader := resource.NewLoader(resource.DirFetcher(filepath.Dir(d.atlasPath)), resource.WithLogger(logger))
		res, err := loader.Load(ctx, "", filepath.Base(d.atlasPath))
		if err != nil {
			return nil, err
		}
		opts = append(opts, vt.WithTextures(res.Atlas()))
	}

	return vt.NewDecoder(opts...), nil
}
