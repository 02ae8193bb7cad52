// Command vtinspect decodes and validates vector tile command streams stored
// in MBTiles, PMTiles or XYZ directory tilesets.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&decodeCmd{out: os.Stdout}, "")
	subcommands.Register(&checkCmd{out: os.Stdout, progress: os.Stderr}, "")
	subcommands.Register(&atlasCmd{out: os.Stdout}, "resources")
	subcommands.Register(&fontsCmd{out: os.Stdout}, "resources")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
