package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "default flags",
			args: []string{"prog", "crackme.bin"},
			want: options.Program{
				Parameters: options.Parameters{Input: "crackme.bin"},
				Flags:      options.Flags{Budget: debugger.DefaultBudget},
			},
		},
		{
			name: "session flags",
			args: []string{"prog", "-f", "HEX", "-budget", "500", "-b", "1000,1004", "-batch", "-exec", "run;regs", "crackme.hex"},
			want: options.Program{
				Parameters: options.Parameters{Input: "crackme.hex", Exec: "run;regs"},
				Flags: options.Flags{
					Format:      "hex",
					Budget:      500,
					Breakpoints: "1000,1004",
					Batch:       true,
				},
			},
		},
		{
			name: "input flag",
			args: []string{"prog", "-i", "crackme.bin", "-data", "data.bin", "-script", "solve.lua"},
			want: options.Program{
				Parameters: options.Parameters{Input: "crackme.bin", Data: "data.bin", Script: "solve.lua"},
				Flags:      options.Flags{Budget: debugger.DefaultBudget},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			got, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want.Parameters, got.Parameters)
			assert.Equal(t, tt.want.Flags, got.Flags)
			assert.Equal(t, uint32(0x1000), got.CodeStart)
		})
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		usage bool
	}{
		{name: "missing input", args: []string{"prog"}, usage: true},
		{name: "flag after input", args: []string{"prog", "crackme.bin", "-q"}, usage: true},
		{name: "unknown format", args: []string{"prog", "-f", "elf", "crackme.bin"}},
		{name: "negative budget", args: []string{"prog", "-budget", "-1", "crackme.bin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			_, err := ParseFlags()
			assert.Error(t, err)
			var usageErr *UsageError
			assert.Equal(t, tt.usage, errors.As(err, &usageErr))
		})
	}
}
