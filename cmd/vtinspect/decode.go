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
)

type decodeCmd struct {
	decoderFlags
	x, y, z uint
	out     io.Writer
}

func (c *decodeCmd) Name() string     { return "decode" }
func (c *decodeCmd) Synopsis() string { return "print draw operations of a single tile" }
func (c *decodeCmd) Usage() string {
	return "vtinspect decode -i <path> -z <zoom> -x <col> -y <row> [-fonts <dir/name> -atlas <dir/name> -version <n>]\n"
}
func (c *decodeCmd) SetFlags(f *flag.FlagSet) {
	c.decoderFlags.setFlags(f)
	f.UintVar(&c.x, "x", 0, "Tile column")
	f.UintVar(&c.y, "y", 0, "Tile row (XYZ scheme)")
	f.UintVar(&c.z, "z", 0, "Zoom level")
}

func (c *decodeCmd) run(ctx context.Context) error {
	tileID := tile.ID{X: uint32(c.x), Y: uint32(c.y), Z: uint32(c.z)}
	if !tileID.Valid() {
		return fmt.Errorf("invalid tile %v", tileID)
	}

	decoder, err := c.newDecoder(ctx)
	if err != nil {
		return err
	}

	src, err := tileset.Open(tileset.Format(c.inputFormat), c.inputPath, tileset.WithLogger(c.logger()))
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := src.ReadTile(tileID)
	if err != nil {
		return err
	}

	ops, err := decoder.DecodeTile(tileID, data)
	if err != nil {
		return fmt.Errorf("tile %v: %w", tileID, err)
	}
	for _, op := range ops {
		fmt.Fprintln(c.out, op)
	}
	return nil
}

func (c *decodeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" {
		log.Println("input path is required")
		return subcommands.ExitUsageError
	}
	if err := c.run(ctx); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
