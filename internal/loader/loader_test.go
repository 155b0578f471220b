package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/NeonFoundry/RevGame/internal/config"
	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/detector"
	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/NeonFoundry/RevGame/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func newOptions(input string) options.Program {
	return options.Program{
		Parameters: options.Parameters{Input: input},
		Layout:     config.DefaultLayout(),
	}
}

//nolint:funlen // test functions can be long
func TestLoad(t *testing.T) {
	loader := New(detector.New(log.NewTestLogger(t)))

	t.Run("load binary file", func(t *testing.T) {
		tmpFile := createTempFile(t, "crackme.bin", []byte{0xb8, 0x01, 0x00, 0x00, 0x00, 0xf4})

		cfg, err := loader.Load(newOptions(tmpFile))
		assert.NoError(t, err)
		assert.Equal(t, uint32(0x10000), cfg.MemorySize)
		assert.Len(t, cfg.Regions, 3)
		assert.Equal(t, memory.ReadExecute, cfg.Regions[0].Perm)
		assert.Len(t, cfg.Segments, 1)
		assert.Equal(t, []byte{0xb8, 0x01, 0x00, 0x00, 0x00, 0xf4}, cfg.Segments[0].Data)
	})

	t.Run("load hex file with data image", func(t *testing.T) {
		codeFile := createTempFile(t, "crackme.hex", []byte("# entry\nb8 01 00 00 00 ; mov eax, 1\n\nf4\n"))
		dataFile := createTempFile(t, "data.bin", []byte("key\x00"))

		opts := newOptions(codeFile)
		opts.Data = dataFile
		opts.Entry = "0x0"
		opts.Breakpoints = "1005, 0x1000"
		opts.Budget = 10

		cfg, err := loader.Load(opts)
		assert.NoError(t, err)
		assert.Len(t, cfg.Segments, 2)
		assert.Equal(t, []byte{0xb8, 0x01, 0x00, 0x00, 0x00, 0xf4}, cfg.Segments[0].Data)
		assert.Equal(t, uint32(0x2000), cfg.Segments[1].Address)
		assert.Equal(t, []uint32{0x1005, 0x1000}, cfg.Breakpoints)
		assert.Equal(t, 10, cfg.Budget)

		_, err = debugger.New(log.NewTestLogger(t), cfg)
		assert.NoError(t, err)
	})

	t.Run("error on non-existent file", func(t *testing.T) {
		_, err := loader.Load(newOptions("/nonexistent/crackme.bin"))
		assert.Error(t, err)
	})

	t.Run("error on malformed hex", func(t *testing.T) {
		tmpFile := createTempFile(t, "crackme.hex", []byte("b8 0\n"))
		_, err := loader.Load(newOptions(tmpFile))
		assert.True(t, errors.Is(err, hexbytes.ErrInvalidHex))
		assert.ErrorContains(t, err, "line 1")
	})
}

func TestBuild(t *testing.T) {
	opts := newOptions("")

	_, err := Build(opts, make([]byte, 0x1001), nil)
	assert.ErrorContains(t, err, "exceeds code region")

	opts.Breakpoints = "zz"
	_, err = Build(opts, []byte{0x90}, nil)
	assert.ErrorContains(t, err, "parsing breakpoint")

	opts = newOptions("")
	opts.Entry = "4"
	cfg, err := Build(opts, []byte{0x90}, nil)
	assert.NoError(t, err)
	assert.Equal(t, uint32(4), cfg.EntryOffset)
}

func createTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, name)
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return tmpFile
}
