package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/history"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// mov eax, 1; hlt
var program = []byte{0xb8, 0x01, 0x00, 0x00, 0x00, 0xf4}

func newConsole(t *testing.T) (*Console, *debugger.Debugger, *bytes.Buffer) {
	t.Helper()
	cfg := debugger.Config{
		MemorySize: 0x10000,
		Regions: []memory.Region{
			{Start: 0x1000, Length: 0x100, Kind: memory.Code, Perm: memory.ReadExecute},
			{Start: 0x2000, Length: 0x100, Kind: memory.Data, Perm: memory.ReadWrite},
			{Start: 0x3000, Length: 0x1000, Kind: memory.Stack, Perm: memory.ReadWrite},
		},
		Segments: []debugger.Segment{
			{Address: 0x1000, Data: program},
			{Address: 0x2000, Data: []byte("password\x00")},
		},
	}
	logger := log.NewTestLogger(t)
	session, err := debugger.New(logger, cfg)
	assert.NoError(t, err)
	assert.NoError(t, session.Start())

	var out bytes.Buffer
	return New(logger, session, &out), session, &out
}

func TestExecuteAll(t *testing.T) {
	c, session, out := newConsole(t)

	err := c.ExecuteAll(context.Background(), "step; regs\nrun")
	assert.NoError(t, err)
	assert.Equal(t, debugger.Halted, session.State())

	output := out.String()
	assert.Contains(t, output, "last: mov eax, 0x1")
	assert.Contains(t, output, "changed: eax")
	assert.Contains(t, output, "eax=00000001")
	assert.Contains(t, output, "halted (halted)")

	err = c.ExecuteAll(context.Background(), "step")
	assert.True(t, errors.Is(err, debugger.ErrNotRunnable))
}

func TestPatchCommands(t *testing.T) {
	c, session, out := newConsole(t)
	ctx := context.Background()

	assert.NoError(t, c.Execute(ctx, "patch 0x1001 2a 00"))
	assert.Contains(t, out.String(), "patched 00001001: 01 00 -> 2a 00")
	data, err := session.ReadMemory(0x1000, 3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xb8, 0x2a, 0x00}, data)

	assert.NoError(t, c.Execute(ctx, "undo"))
	assert.NoError(t, c.Execute(ctx, "redo"))
	assert.NoError(t, c.Execute(ctx, "undo"))
	err = c.Execute(ctx, "undo")
	assert.True(t, errors.Is(err, history.ErrNothingToUndo))

	err = c.Execute(ctx, "patch 0x1000 zz")
	assert.Equal(t, debugger.KindInvalidPatch, debugger.KindOf(err))
	err = c.Execute(ctx, "patch 0x9000 90")
	assert.Equal(t, debugger.KindOutOfBounds, debugger.KindOf(err))
}

func TestUsageErrors(t *testing.T) {
	c, _, _ := newConsole(t)
	ctx := context.Background()

	tests := []string{"patch", "patch 1000", "break", "mem", "step 0", "run 0", "back x", "dis 1000 x", "search", "search nothing"}
	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			err := c.Execute(ctx, line)
			assert.True(t, errors.Is(err, ErrUsage))
		})
	}

	err := c.Execute(ctx, "bogus")
	assert.ErrorContains(t, err, "unknown command")
	assert.NoError(t, c.Execute(ctx, "   "))
	assert.True(t, errors.Is(c.Execute(ctx, "q"), ErrQuit))
}

func TestInspectionCommands(t *testing.T) {
	c, _, out := newConsole(t)
	ctx := context.Background()

	assert.NoError(t, c.Execute(ctx, "break 1005"))
	assert.NoError(t, c.Execute(ctx, "mark 1005 exit"))
	assert.NoError(t, c.Execute(ctx, "dis"))
	output := out.String()
	assert.Contains(t, output, "=> 00001000")
	assert.Contains(t, output, "*  00001005")
	assert.Contains(t, output, "; exit")

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "bps"))
	assert.Equal(t, "00001005\n", out.String())

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "mem 2000 10"))
	assert.Contains(t, out.String(), "|password........|")

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "search string PASS"))
	assert.Contains(t, out.String(), "00002000  \"pass\"")
	assert.Contains(t, out.String(), "1 matches")

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "search bytes b8 01"))
	assert.Contains(t, out.String(), "00001000  b8 01")

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "digest"))
	assert.Len(t, strings.TrimSpace(out.String()), 64)

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "state"))
	assert.Contains(t, out.String(), "state=paused steps=0")
	assert.Contains(t, out.String(), "current:  00001000  mov eax, 0x1")

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "mark"))
	assert.Equal(t, "00001005  exit\n", out.String())
	assert.NoError(t, c.Execute(ctx, "help"))
}

func TestRunCountAndStepBack(t *testing.T) {
	c, session, out := newConsole(t)
	ctx := context.Background()

	assert.NoError(t, c.Execute(ctx, "run 1"))
	assert.Contains(t, out.String(), "paused (count reached)  steps=1  eip=00001005")

	out.Reset()
	assert.NoError(t, c.Execute(ctx, "sb"))
	assert.Contains(t, out.String(), "paused (step back)  steps=0  eip=00001000  changed: eax")
	assert.Equal(t, uint64(0), session.Steps())

	err := c.Execute(ctx, "back")
	assert.Equal(t, debugger.KindNothingToStepBack, debugger.KindOf(err))

	assert.NoError(t, c.Execute(ctx, "run 5"))
	assert.Equal(t, debugger.Halted, session.State())
	out.Reset()
	assert.NoError(t, c.Execute(ctx, "state"))
	assert.Contains(t, out.String(), "state=halted steps=2 back=2")

	assert.NoError(t, c.Execute(ctx, "back 2"))
	assert.Equal(t, debugger.Paused, session.State())
	assert.Equal(t, uint32(0x1000), session.CPU().EIP)
}

func TestRun(t *testing.T) {
	c, session, out := newConsole(t)

	input := strings.NewReader("step\nbogus\nundo\nquit\nstep\n")
	assert.NoError(t, c.Run(context.Background(), input))

	assert.Equal(t, uint64(1), session.Steps())
	assert.Contains(t, out.String(), "error: unknown command 'bogus'")
	assert.Contains(t, out.String(), "error [NothingToUndo]")
}

func TestDump(t *testing.T) {
	got := Dump(0x2000, []byte("AB\x00"))
	want := "00002000  41 42 00 " + strings.Repeat("   ", 13) + " |AB.|\n"
	assert.Equal(t, want, got)
}
