package console

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/NeonFoundry/RevGame/internal/config"
	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/retroenv/retrogolib/assert"
)

func TestInputPumpInterrupt(t *testing.T) {
	r, w := io.Pipe()
	input := newInputPump(r)
	buf := make([]byte, 8)

	ctx, done := input.command(context.Background())
	_, err := w.Write([]byte{'a', keyInterrupt, 'b'})
	assert.NoError(t, err)
	<-ctx.Done()
	done()

	n, err := input.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, "ab", string(buf[:n]))

	// without a command the key is passed to the line editor
	_, err = w.Write([]byte{keyInterrupt})
	assert.NoError(t, err)
	n, err = input.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, []byte{keyInterrupt}, buf[:n])

	assert.NoError(t, w.Close())
	_, err = input.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestEditorInterruptStopsRun(t *testing.T) {
	// jmp $
	cfg := debugger.Config{
		MemorySize: 0x10000,
		Regions: []memory.Region{
			{Start: 0x1000, Length: 0x100, Kind: memory.Code, Perm: memory.ReadExecute},
			{Start: 0x3000, Length: 0x1000, Kind: memory.Stack, Perm: memory.ReadWrite},
		},
		Segments: []debugger.Segment{{Address: 0x1000, Data: []byte{0xeb, 0xfe}}},
		Budget:   1 << 30,
	}
	logger := config.CreateLogger(false, true)
	session, err := debugger.New(logger, cfg)
	assert.NoError(t, err)
	assert.NoError(t, session.Start())

	var out bytes.Buffer
	c := New(logger, session, &out)

	r, w := io.Pipe()
	stop := make(chan struct{})
	go func() {
		_, _ = w.Write([]byte("run\r"))
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				_ = w.Close()
				return
			case <-ticker.C:
				_, _ = w.Write([]byte{keyInterrupt})
			}
		}
	}()

	err = c.runEditor(context.Background(), r, &out)
	close(stop)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "paused (stopped)")
	assert.Equal(t, debugger.Paused, session.State())
}
