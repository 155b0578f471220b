package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// keyInterrupt is the byte a terminal in raw mode delivers for Ctrl+C.
const keyInterrupt = 0x03

// Run reads commands line by line until the quit command, the end of the
// input or the cancellation of the context. Command errors are printed and
// do not end the loop.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.handle(ctx, scanner.Text()) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}

// RunTerminal runs the console on an interactive terminal with line editing
// and history. Ctrl+C stops the running command, at the prompt it leaves the
// console. If in is not a terminal it falls back to Run.
func (c *Console) RunTerminal(ctx context.Context, in, out *os.File) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return c.Run(ctx, in)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()
	return c.runEditor(ctx, in, out)
}

// runEditor runs the line editor loop on raw terminal input. The input is
// read in the background so that the interrupt key reaches a running
// command.
func (c *Console) runEditor(ctx context.Context, in io.Reader, out io.Writer) error {
	input := newInputPump(in)
	screen := struct {
		io.Reader
		io.Writer
	}{input, out}
	terminal := term.NewTerminal(screen, c.prompt())

	previous := c.out
	c.out = terminal
	defer func() {
		c.out = previous
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		terminal.SetPrompt(c.prompt())
		line, err := terminal.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}

		cmdCtx, done := input.command(ctx)
		quit := c.handle(cmdCtx, line)
		done()
		if quit {
			return nil
		}
	}
}

// handle executes a line and returns whether the console should quit.
func (c *Console) handle(ctx context.Context, line string) bool {
	err := c.Execute(ctx, line)
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrQuit):
		return true
	default:
		c.printError(err)
		return false
	}
}

func (c *Console) prompt() string {
	state := c.session.CPU()
	return fmt.Sprintf("%08x %s> ", state.EIP, c.session.State())
}

// inputPump queues terminal input that is read by a background goroutine.
// While a command is active the interrupt key cancels it instead of being
// queued. The goroutine ends with the input.
type inputPump struct {
	mu     sync.Mutex
	ready  *sync.Cond
	queue  []byte
	err    error
	cancel context.CancelFunc
}

func newInputPump(in io.Reader) *inputPump {
	p := &inputPump{}
	p.ready = sync.NewCond(&p.mu)
	go p.pump(in)
	return p
}

func (p *inputPump) pump(in io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := in.Read(buf)

		p.mu.Lock()
		for _, b := range buf[:n] {
			if b == keyInterrupt && p.cancel != nil {
				p.cancel()
				continue
			}
			p.queue = append(p.queue, b)
		}
		if err != nil {
			p.err = err
		}
		p.ready.Broadcast()
		p.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// Read returns queued input and blocks while the queue is empty.
func (p *inputPump) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && p.err == nil {
		p.ready.Wait()
	}
	if len(p.queue) == 0 {
		return 0, p.err
	}
	n := copy(b, p.queue)
	p.queue = p.queue[n:]
	return n, nil
}

// command returns the context for a command that the interrupt key cancels.
// The returned function ends the command.
func (p *inputPump) command(ctx context.Context) (context.Context, func()) {
	cmdCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	return cmdCtx, func() {
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
		cancel()
	}
}
