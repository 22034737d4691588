// Command godeflate compresses files with the package's DEFLATE encoder,
// wrapped in gzip, zlib, or raw framing.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/therootcompany/xz"
	"golang.org/x/sys/unix"

	"github.com/elliotnunn/godeflate/gzip"
	"github.com/elliotnunn/godeflate/internal/flate"
	"github.com/elliotnunn/godeflate/zlib"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("godeflate: ")

	level := flag.Int("level", int(flate.Default), "compression level, 1-9 (fast=4, default=6, best=9)")
	container := flag.String("container", "gzip", "container framing: gzip, zlib, or raw")
	walkRoot := flag.String("walk", "", "walk this directory tree instead of taking file arguments")
	glob := flag.String("glob", "**/*", "doublestar glob pattern, used only with -walk")
	flag.Parse()

	if *walkRoot != "" {
		if err := runWalk(*walkRoot, *glob, flate.Level(*level), *container); err != nil {
			log.Fatal(err)
		}
		return
	}

	if flag.NArg() == 0 {
		log.Fatal("usage: godeflate [-level L] [-container gzip|zlib|raw] FILE...\n       godeflate -walk ROOT -glob PATTERN [-level L] [-container ...]")
	}
	for _, path := range flag.Args() {
		if err := compressFile(path, flate.Level(*level), *container); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
	}
}

// dedupCache maps a content hash to whether that content has already been
// compressed once during this walk, so an identical file encountered twice
// (a common case under symlink farms and build trees) is skipped rather
// than re-run through the encoder.
type dedupCache struct {
	t *tinylfu.T[uint64, bool]
}

func newDedupCache() *dedupCache {
	return &dedupCache{t: tinylfu.New[uint64, bool](4096, 40960, func(k uint64) uint64 { return k })}
}

func (d *dedupCache) seen(hash uint64) bool {
	_, ok := d.t.Get(hash)
	if ok {
		return true
	}
	d.t.Add(hash, true)
	return false
}

// runWalk compresses every file under root matching the doublestar glob
// pattern, reporting progress on a terminal-width-aware single line when
// stdout is a terminal.
func runWalk(root, pattern string, level flate.Level, container string) error {
	cache := newDedupCache()
	width := terminalWidth()

	var count int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		matched, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("bad glob pattern %q: %w", pattern, err)
		}
		if !matched {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if cache.seen(xxhash.Sum64(data)) {
			return nil
		}

		if err := compressBytes(path, data, level, container); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		count++
		if width > 0 {
			reportProgress(width, count, rel)
		}
		return nil
	})
	if width > 0 {
		fmt.Println()
	}
	return err
}

func reportProgress(width, count int, name string) {
	line := fmt.Sprintf("\r[%d] %s", count, name)
	if len(line) > width {
		line = line[:width]
	} else {
		line += fmt.Sprintf("%*s", width-len(line), "")
	}
	fmt.Print(line)
}

// terminalWidth reports the terminal column width of stdout, or 0 if
// stdout is not a terminal (progress reporting is then skipped entirely).
func terminalWidth() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0
	}
	return int(ws.Col)
}

func compressFile(path string, level flate.Level, container string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// A .xz source is transparently decompressed first: this lets the CLI
	// re-wrap an existing xz archive as gzip/zlib/raw without a separate
	// decompression pass. Decoding xz is out of this package's own scope
	// (spec §1 excludes decompression entirely), so this borrows the one
	// xz reader the corpus already depends on rather than writing one.
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(bytes.NewReader(data), xz.DefaultDictMax)
		if err != nil {
			return fmt.Errorf("decompressing xz input: %w", err)
		}
		data, err = io.ReadAll(xr)
		if err != nil {
			return fmt.Errorf("decompressing xz input: %w", err)
		}
		path = strings.TrimSuffix(path, ".xz")
	}
	return compressBytes(path, data, level, container)
}

// compressBytes writes data through a fresh encoder instance to
// path+extension(container), per the one-Writer-per-file rule (spec §5):
// instances are never shared across files, even when called concurrently
// by a future caller.
func compressBytes(path string, data []byte, level flate.Level, container string) error {
	ext, newWriter := containerFor(container)
	if newWriter == nil {
		return fmt.Errorf("unknown container %q", container)
	}

	out, err := os.Create(path + ext)
	if err != nil {
		return err
	}
	defer out.Close()

	w := newWriter(out, level)
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

type writeCloser interface {
	io.Writer
	io.Closer
}

func containerFor(name string) (ext string, newWriter func(io.Writer, flate.Level) writeCloser) {
	switch name {
	case "gzip":
		return ".gz", func(w io.Writer, l flate.Level) writeCloser { return gzip.NewWriterLevel(w, l) }
	case "zlib":
		return ".zz", func(w io.Writer, l flate.Level) writeCloser { return zlib.NewWriterLevel(w, l) }
	case "raw":
		return ".deflate", func(w io.Writer, l flate.Level) writeCloser { return flate.NewWriter(w, l) }
	default:
		return "", nil
	}
}
