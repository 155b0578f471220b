// Package loader handles loading puzzle images into session configurations.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/detector"
	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/NeonFoundry/RevGame/internal/options"
)

// Loader handles loading image files from disk.
type Loader struct {
	detector *detector.Detector
}

// New creates a new image loader.
func New(detector *detector.Detector) *Loader {
	return &Loader{detector: detector}
}

// Load reads the code image and the optional data image and returns the
// session configuration for them.
func (l *Loader) Load(opts options.Program) (debugger.Config, error) {
	code, err := l.readImage(opts.Format, opts.Input)
	if err != nil {
		return debugger.Config{}, fmt.Errorf("loading code image: %w", err)
	}

	var data []byte
	if opts.Data != "" {
		data, err = l.readImage(opts.Format, opts.Data)
		if err != nil {
			return debugger.Config{}, fmt.Errorf("loading data image: %w", err)
		}
	}

	return Build(opts, code, data)
}

// Build returns the session configuration for in-memory images.
func Build(opts options.Program, code, data []byte) (debugger.Config, error) {
	layout := opts.Layout
	if uint64(len(code)) > uint64(layout.CodeSize) {
		return debugger.Config{}, fmt.Errorf("code image of %d bytes exceeds code region size 0x%x", len(code), layout.CodeSize)
	}
	if uint64(len(data)) > uint64(layout.DataSize) {
		return debugger.Config{}, fmt.Errorf("data image of %d bytes exceeds data region size 0x%x", len(data), layout.DataSize)
	}

	cfg := debugger.Config{
		MemorySize: layout.MemorySize,
		Regions: []memory.Region{
			{Start: layout.CodeStart, Length: layout.CodeSize, Kind: memory.Code, Perm: memory.ReadExecute},
			{Start: layout.DataStart, Length: layout.DataSize, Kind: memory.Data, Perm: memory.ReadWrite},
			{Start: layout.StackStart, Length: layout.StackSize, Kind: memory.Stack, Perm: memory.ReadWrite},
		},
		Segments: []debugger.Segment{
			{Address: layout.CodeStart, Data: code},
		},
		Budget:           opts.Budget,
		ResetBreakpoints: opts.ResetBreakpoints,
	}
	if len(data) > 0 {
		cfg.Segments = append(cfg.Segments, debugger.Segment{Address: layout.DataStart, Data: data})
	}

	if opts.Entry != "" {
		entry, err := hexbytes.ParseAddress(opts.Entry)
		if err != nil {
			return debugger.Config{}, fmt.Errorf("parsing entry offset: %w", err)
		}
		cfg.EntryOffset = entry
	}

	if opts.Breakpoints != "" {
		for field := range strings.SplitSeq(opts.Breakpoints, ",") {
			address, err := hexbytes.ParseAddress(field)
			if err != nil {
				return debugger.Config{}, fmt.Errorf("parsing breakpoint: %w", err)
			}
			cfg.Breakpoints = append(cfg.Breakpoints, address)
		}
	}
	return cfg, nil
}

func (l *Loader) readImage(format, filename string) ([]byte, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", filename, err)
	}

	if l.detector.Detect(format, filename, content) == detector.Raw {
		return content, nil
	}
	return ParseHexImage(content)
}

// ParseHexImage decodes hex text. Everything after '#' or ';' on a line is
// a comment, blank lines are ignored.
func ParseHexImage(content []byte) ([]byte, error) {
	var image []byte
	scanner := bufio.NewScanner(bytes.NewReader(content))
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexAny(text, "#;"); i >= 0 {
			text = text[:i]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		data, err := hexbytes.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		image = append(image, data...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning hex image: %w", err)
	}
	return image, nil
}
