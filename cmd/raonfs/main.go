// Command raonfs builds a RaonFS image from a source directory tree.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/raonfs/raonfs"
)

func main() {
	app := &cli.App{
		Name:  "raonfs",
		Usage: "build a read-only RaonFS image from a directory tree",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Value: ".",
				Usage: "source directory path",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "target image file (no image is written if omitted)",
			},
			&cli.UintFlag{
				Name:  "blocksize",
				Value: 4096,
				Usage: "block size in bytes",
			},
			&cli.IntFlag{
				Name:  "inlinestep",
				Value: 4,
				Usage: "number of inline placement refinement passes",
			},
			&cli.StringFlag{
				Name:  "magics",
				Value: "RAON",
				Usage: "4-byte filesystem magic",
			},
			&cli.StringFlag{
				Name:  "name",
				Value: "RAON-FS",
				Usage: "filesystem name, stored zero-padded in 32 bytes",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "write a JSON diagnostic (superblock + node table) to PATH",
			},
			&cli.StringFlag{
				Name:    "endian",
				EnvVars: []string{"ENDIAN_TYPE"},
				Value:   "little",
				Usage:   "byte order used for every packed record: little or big",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	order, err := parseEndian(c.String("endian"))
	if err != nil {
		return cli.Exit(err, 1)
	}

	cfg, err := raonfs.NewConfig(
		raonfs.WithBlockSize(uint32(c.Uint("blocksize"))),
		raonfs.WithInlineStep(c.Int("inlinestep")),
		raonfs.WithMagic(c.String("magics")),
		raonfs.WithName(c.String("name")),
		raonfs.WithByteOrder(order),
	)
	if err != nil {
		return cli.Exit(err, 1)
	}

	source := c.String("source")
	b := raonfs.NewBuilder(cfg, raonfs.OSWalk(source))
	// Node paths are relative to source; resolve them against it.
	b.SizeOf = func(n *raonfs.Node) (uint64, error) {
		fi, err := os.Stat(filepath.Join(source, n.Path))
		if err != nil {
			return 0, err
		}
		return uint64(fi.Size()), nil
	}
	b.Open = func(path string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(source, path))
	}

	if err := b.Build(c.Context, c.String("target"), c.String("output")); err != nil {
		return cli.Exit(err, 1)
	}

	log.Printf("raonfs: built %q from %q", c.String("target"), source)
	return nil
}

func parseEndian(s string) (binary.ByteOrder, error) {
	switch s {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("endian: must be %q or %q, got %q", "little", "big", s)
	}
}
