// Package options contains the program options.
package options

// Positional contains positional arguments.
type Positional struct {
	File string `arg:"positional" usage:"code image to load"`
}

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"code image file"`
	Data   string `flag:"data" usage:"data image file loaded at the data region"`
	Script string `flag:"script" usage:"Lua script to run against the session"`
	Exec   string `flag:"exec" usage:"semicolon separated debugger commands to run"`
}

// Flags contains behavior options.
type Flags struct {
	Format           string `flag:"f" usage:"image format: raw, hex (default: auto-detect)"`
	Budget           int    `flag:"budget" usage:"maximum instructions per run" default:"100000"`
	Entry            string `flag:"entry" usage:"entry offset into the code region"`
	Breakpoints      string `flag:"b" usage:"comma separated breakpoint addresses"`
	ResetBreakpoints bool   `flag:"reset-breakpoints" usage:"restore the initial breakpoints on reset"`
	Batch            bool   `flag:"batch" usage:"do not start the interactive console"`
	Debug            bool   `flag:"debug" usage:"enable debug logging"`
	Quiet            bool   `flag:"q" usage:"quiet mode"`
}

// Layout contains the guest memory layout.
type Layout struct {
	MemorySize uint32
	CodeStart  uint32
	CodeSize   uint32
	DataStart  uint32
	DataSize   uint32
	StackStart uint32
	StackSize  uint32
}

// Program options of the debugger.
type Program struct {
	Parameters
	Flags
	Layout
}
