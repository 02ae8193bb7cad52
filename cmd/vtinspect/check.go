package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/eak1mov/go-vectiles/tile"
	"github.com/eak1mov/go-vectiles/tileset"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type checkCmd struct {
	decoderFlags
	quiet    bool
	out      io.Writer
	progress io.Writer // progress bar output
}

func (c *checkCmd) Name() string     { return "check" }
func (c *checkCmd) Synopsis() string { return "decode every tile of a tileset and report failures" }
func (c *checkCmd) Usage() string {
	return "vtinspect check -i <path> [-if <format> -version <n> -q]\n"
}
func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	c.decoderFlags.setFlags(f)
	f.BoolVar(&c.quiet, "q", false, "Do not show progress")
}

type checkStats struct {
	tiles  int
	ops    int
	failed int
}

func (c *checkCmd) run(ctx context.Context) (checkStats, error) {
	var stats checkStats

	decoder, err := c.newDecoder(ctx)
	if err != nil {
		return stats, err
	}

	src, err := tileset.Open(tileset.Format(c.inputFormat), c.inputPath, tileset.WithLogger(c.logger()))
	if err != nil {
		return stats, err
	}
	defer src.Close()

	progress := c.progress
	if c.quiet || progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount())

	err = src.VisitTiles(func(tileID tile.ID, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.tiles++
		bar.Add(1)

		ops, err := decoder.DecodeTile(tileID, data)
		if err != nil {
			stats.failed++
			fmt.Fprintf(c.out, "%v: %v\n", tileID, err)
			return nil
		}
		stats.ops += len(ops)
		return nil
	})

	bar.Finish()
	fmt.Fprintln(progress)
	return stats, err
}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" {
		log.Println("input path is required")
		return subcommands.ExitUsageError
	}

	stats, err := c.run(ctx)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(c.out, "%d tiles, %d ops, %d failed\n", stats.tiles, stats.ops, stats.failed)
	if stats.failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
