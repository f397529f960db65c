package main

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ZILtoid1991/datapak/dpkerr"
)

// Manifest describes a whole archive to build from a TOML file, as an
// alternative to spelling every flag out on the command line. Field
// names must be exported for the TOML decoder to populate them and
// produce meaningful per-field error messages on malformed input.
type Manifest struct {
	Archive ArchiveSection
	File    []FileSection
}

// ArchiveSection configures the archive-wide header fields.
type ArchiveSection struct {
	CompMethod   string
	CompLevel    uint8
	Checksum     string
	PerFileComp  bool
	Dictionary   string // optional path to an external zstd dictionary file
	InlineDict   bool   // embed Dictionary's bytes (CMPRDICT) instead of referencing it (CMPRDIxf)
}

// FileSection is one entry to add to the archive.
type FileSection struct {
	Source string // path on disk to read from
	Name   string // name stored in the archive; defaults to Source's base name
}

// LoadManifest parses a TOML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()
	return DecodeManifest(f)
}

// DecodeManifest parses a TOML manifest from r.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if _, err := toml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.File) == 0 {
		return nil, fmt.Errorf("manifest lists no files")
	}
	return &m, nil
}

// checkSources stats every listed source file up front and collects all
// missing/unreadable entries at once, instead of failing on the first
// one partway through writing the archive.
func (m *Manifest) checkSources() error {
	var ec dpkerr.Collector
	for _, f := range m.File {
		if _, err := os.Stat(f.Source); err != nil {
			ec.Addf("file %q: %w", f.Source, err)
		}
	}
	return ec.Err()
}
