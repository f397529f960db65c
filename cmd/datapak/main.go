// Command datapak builds, lists and extracts DataPak (.dpk) archives.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/ZILtoid1991/datapak/archive"
	"github.com/ZILtoid1991/datapak/extreg"
	"github.com/ZILtoid1991/datapak/record"
)

// Exit codes: 0 success, 1 argument error / unknown compression
// method / unknown hash / empty file list.
const (
	exitSuccess = 0
	exitArgs    = 1
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "datapak: %s\n", err)
		os.Exit(exitArgs)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "datapak",
		Usage: "build, list and extract DataPak (.dpk) archives",
		Commands: []*cli.Command{
			createCommand(),
			listCommand(),
			extractCommand(),
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "build a new archive",
		ArgsUsage: "[FILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output archive path"},
			&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "TOML manifest describing the archive, instead of flags + positional files"},
			&cli.StringFlag{Name: "comp", Value: "none", Usage: "compression method: none, zlib, zstd, zstd+dict"},
			&cli.IntFlag{Name: "level", Value: 6, Usage: "compression level (0-63)"},
			&cli.StringFlag{Name: "checksum", Value: "crc32", Usage: "per-file checksum algorithm"},
			&cli.BoolFlag{Name: "per-file", Usage: "compress each file independently (enables random access)"},
			&cli.StringFlag{Name: "dict", Usage: "path to an external compression dictionary (zstd+dict only)"},
		},
		Action: runCreate,
	}
}

func runCreate(c *cli.Context) error {
	if c.String("manifest") != "" {
		return createFromManifest(c.String("manifest"), c.String("out"))
	}
	return createFromFlags(c)
}

func createFromFlags(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return fmt.Errorf("no input files given (pass files as positional arguments, or --manifest)")
	}
	compMethod, err := parseCompMethod(c.String("comp"))
	if err != nil {
		return err
	}
	checksum, err := parseChecksum(c.String("checksum"))
	if err != nil {
		return err
	}

	header := record.Header{
		CompMethod: compMethod,
		Flags: record.Flags{
			ChecksumType: uint8(checksum),
			CompLevel:    uint8(c.Int("level")),
			PerFileComp:  c.Bool("per-file"),
		},
	}

	var headerExts []extreg.HeaderExtValue
	if dictPath := c.String("dict"); dictPath != "" {
		if compMethod != record.CompZstdDict {
			return fmt.Errorf("--dict requires --comp zstd+dict")
		}
		headerExts = append(headerExts, extreg.ExternalDictionaryPath{Path: dictPath})
	}

	w, err := archive.Create(c.String("out"), header, headerExts)
	if err != nil {
		return err
	}
	for _, path := range files {
		if _, err := w.AddFile(path, filepath.Base(path), nil); err != nil {
			return err
		}
	}
	return w.Finalize()
}

func createFromManifest(manifestPath, out string) error {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return err
	}
	if err := m.checkSources(); err != nil {
		return err
	}
	compMethod, err := parseCompMethod(m.Archive.CompMethod)
	if err != nil {
		return err
	}
	checksum, err := parseChecksum(m.Archive.Checksum)
	if err != nil {
		return err
	}

	header := record.Header{
		CompMethod: compMethod,
		Flags: record.Flags{
			ChecksumType: uint8(checksum),
			CompLevel:    m.Archive.CompLevel,
			PerFileComp:  m.Archive.PerFileComp,
		},
	}

	var headerExts []extreg.HeaderExtValue
	if m.Archive.Dictionary != "" {
		if m.Archive.InlineDict {
			data, err := os.ReadFile(m.Archive.Dictionary)
			if err != nil {
				return fmt.Errorf("read dictionary %s: %w", m.Archive.Dictionary, err)
			}
			headerExts = append(headerExts, extreg.CompressionDictionary{Data: data})
		} else {
			headerExts = append(headerExts, extreg.ExternalDictionaryPath{Path: m.Archive.Dictionary})
		}
	}

	w, err := archive.Create(out, header, headerExts)
	if err != nil {
		return err
	}
	for _, f := range m.File {
		name := f.Name
		if name == "" {
			name = filepath.Base(f.Source)
		}
		if _, err := w.AddFile(f.Source, name, nil); err != nil {
			return err
		}
	}
	return w.Finalize()
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list an archive's contents",
		ArgsUsage: "ARCHIVE",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one archive path")
			}
			r, err := archive.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer r.Close()

			fmt.Printf("compMethod=%s checksumType=%d perFileComp=%v randomAccess=%v entries=%d\n",
				record.CompMethodString(r.Header.CompMethod), r.Header.Flags.ChecksumType,
				r.Header.Flags.PerFileComp, r.RandomAccess(), r.NumIndexes())
			for i := 0; i < r.NumIndexes(); i++ {
				e := r.GetIndex(i)
				fmt.Printf("  %-40s uncompSize=%-10d compSize=%-10d offset=%d\n", e.Name(), e.UncompSize, e.CompSize, e.Offset)
			}
			return nil
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "extract an archive's contents to a directory",
		ArgsUsage: "ARCHIVE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: ".", Usage: "destination directory"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one archive path")
			}
			r, err := archive.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer r.Close()

			destDir := c.String("dir")
			if err := os.MkdirAll(destDir, 0o755); err != nil {
				return err
			}
			for r.PeekIndex() != nil {
				e := r.PeekIndex()
				data, err := r.NextBytes()
				if err != nil {
					return fmt.Errorf("extract %s: %w", e.Name(), err)
				}
				destPath := filepath.Join(destDir, e.Name())
				if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(destPath, data, 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
