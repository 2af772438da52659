package raonfs

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
)

// Config holds every value the CLI's flags resolve to, plus the byte order
// ENDIAN_TYPE selects.
type Config struct {
	BlockSize  uint32
	InlineStep int
	Magic      [MagicLen]byte
	FsName     [NameLen]byte
	Order      binary.ByteOrder
}

// Option configures a Config, one per CLI flag, following the same
// functional-options pattern as a resource-opening constructor.
type Option func(*Config) error

// WithBlockSize sets the block size (default 4096). Must be validated
// against InodeSize by Validate before use.
func WithBlockSize(n uint32) Option {
	return func(c *Config) error {
		c.BlockSize = n
		return nil
	}
}

// WithInlineStep sets the number of inline refinement passes (default 4).
func WithInlineStep(n int) Option {
	return func(c *Config) error {
		c.InlineStep = n
		return nil
	}
}

// WithMagic sets the 4-byte filesystem magic (default "RAON").
func WithMagic(s string) Option {
	return func(c *Config) error {
		if len(s) != MagicLen {
			return wrap(KindConfig, "magic", fmt.Errorf("magic must be exactly %d bytes, got %q (%d bytes)", MagicLen, s, len(s)))
		}
		copy(c.Magic[:], s)
		return nil
	}
}

// WithName sets the filesystem name (default "RAON-FS"), zero-padded or
// truncated to NameLen bytes.
func WithName(s string) Option {
	return func(c *Config) error {
		for i := range c.FsName {
			c.FsName[i] = 0
		}
		copy(c.FsName[:], s)
		return nil
	}
}

// WithByteOrder sets the byte order every record is packed with (default
// little-endian). Use EndianFromEnv to resolve ENDIAN_TYPE.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *Config) error {
		c.Order = order
		return nil
	}
}

func defaultConfig() Config {
	var cfg Config
	cfg.BlockSize = 4096
	cfg.InlineStep = 4
	copy(cfg.Magic[:], "RAON")
	copy(cfg.FsName[:], "RAON-FS")
	cfg.Order = binary.LittleEndian
	return cfg
}

// NewConfig builds a Config from defaults plus opts and validates it.
func NewConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a zero or misaligned block size (extent-inode packing
// needs a clean boundary) and a negative inline step.
func (c Config) Validate() error {
	if c.BlockSize == 0 {
		return wrap(KindConfig, "validate config", fmt.Errorf("blocksize must be positive"))
	}
	if c.BlockSize%uint32(InodeSize) != 0 {
		return wrap(KindConfig, "validate config", fmt.Errorf("blocksize %d must be a multiple of the inode size %d", c.BlockSize, InodeSize))
	}
	if c.InlineStep < 0 {
		return wrap(KindConfig, "validate config", fmt.Errorf("inlinestep must not be negative"))
	}
	return nil
}

// Builder owns the node table across one build and orchestrates the
// pipeline: Walker adapter -> Sizer -> Placer -> Emitter.
type Builder struct {
	Config Config
	Walk   WalkFunc
	SizeOf SizeFunc
	Open   OpenFunc

	table *Table
}

// NewBuilder returns a Builder wired to the OS for sizing and opening file
// nodes; set SizeOf/Open directly afterwards to override for tests.
func NewBuilder(cfg Config, walk WalkFunc) *Builder {
	return &Builder{
		Config: cfg,
		Walk:   walk,
		SizeOf: fileSizeFromOS,
		Open:   func(path string) (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Table returns the node table built by the most recent call to Build. It
// is nil until Build has walked the source at least once.
func (b *Builder) Table() *Table {
	return b.table
}

// Build runs the full pipeline. If target is non-empty the image is
// written there; if diagAt is non-empty a JSON diagnostic of the
// configuration and node table is written there too. ctx is only consulted
// before the pipeline starts; once running, the batch has no suspension or
// cancellation point.
func (b *Builder) Build(ctx context.Context, target, diagAt string) error {
	if err := ctx.Err(); err != nil {
		return wrap(KindIO, "build", err)
	}

	log.Printf("raonfs: walking source")
	table, err := BuildTable(b.Walk)
	if err != nil {
		return err
	}
	b.table = table

	log.Printf("raonfs: sizing %d nodes", len(table.Nodes))
	if err := Size(table, b.SizeOf); err != nil {
		return err
	}

	log.Printf("raonfs: placing %d nodes (blocksize=%d inlinestep=%d)", len(table.Nodes), b.Config.BlockSize, b.Config.InlineStep)
	Place(table, uint64(b.Config.BlockSize), b.Config.InlineStep)

	if target != "" {
		log.Printf("raonfs: emitting image to %q", target)
		if err := b.emit(target); err != nil {
			return err
		}
		log.Printf("raonfs: wrote %d bytes", table.FsSize)
	}

	if diagAt != "" {
		log.Printf("raonfs: writing diagnostic to %q", diagAt)
		if err := writeDiagnostic(diagAt, b.Config, table); err != nil {
			return err
		}
	}

	return nil
}

func (b *Builder) emit(target string) error {
	f, err := os.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return wrap(KindIO, fmt.Sprintf("open %q", target), err)
	}
	defer f.Close()

	e := &Emitter{
		Codec:     NewCodec(b.Config.Order),
		Dst:       f,
		BlockSize: b.Config.BlockSize,
		Magic:     b.Config.Magic,
		FsName:    b.Config.FsName,
		Open:      b.Open,
	}
	return e.Emit(b.table)
}
