// Package writer implements assembly listing writing functionality.
package writer

import (
	"fmt"
	"hash/crc32"
	"io"
	"strings"
)

const dataBytesPerLine = 16

// Writer writes an assembly listing of x86 code.
type Writer struct {
	options Options
	writer  io.Writer
	pending []byte // undecodable bytes not written yet
	start   uint32 // address of the first pending byte
}

// Options of the writer.
type Options struct {
	OffsetComments bool
	HexComments    bool
}

// New creates a new writer.
func New(writer io.Writer, options Options) *Writer {
	return &Writer{
		options: options,
		writer:  writer,
	}
}

// WriteCommentHeader writes the CRC32 checksum and base address of the image as comments.
func (w *Writer) WriteCommentHeader(image []byte, base uint32) error {
	if _, err := fmt.Fprintf(w.writer, "; CRC32 checksum: %08x\n", crc32.ChecksumIEEE(image)); err != nil {
		return fmt.Errorf("writing checksum: %w", err)
	}
	if _, err := fmt.Fprintf(w.writer, "; Code base address: $%08x\n\n", base); err != nil {
		return fmt.Errorf("writing code base address: %w", err)
	}
	return nil
}

// WriteCode writes a decoded instruction. Pending data bytes are written first.
func (w *Writer) WriteCode(address uint32, text string, encoded []byte) error {
	if err := w.Flush(); err != nil {
		return err
	}
	return w.writeLine(text, address, encoded)
}

// WriteBlockEnd separates the following lines by an empty line.
func (w *Writer) WriteBlockEnd() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing block separator: %w", err)
	}
	return nil
}

// WriteData queues a byte that could not be decoded. Consecutive bytes are
// bundled into lines of up to 16 bytes.
func (w *Writer) WriteData(address uint32, b byte) error {
	if len(w.pending) > 0 && w.start+uint32(len(w.pending)) != address {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if len(w.pending) == 0 {
		w.start = address
	}
	w.pending = append(w.pending, b)
	if len(w.pending) == dataBytesPerLine {
		return w.Flush()
	}
	return nil
}

// Flush writes all pending data bytes.
func (w *Writer) Flush() error {
	data := w.pending
	address := w.start
	w.pending = nil

	err := BundleDataWrites(data, func(line string, byteCount int) error {
		if err := w.writeLine(line, address, data[:byteCount]); err != nil {
			return err
		}
		address += uint32(byteCount)
		data = data[byteCount:]
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing data: %w", err)
	}
	return nil
}

// BundleDataWrites bundles writes of data bytes to print dataBytesPerLine bytes per line.
func BundleDataWrites(data []byte, lineWriter func(line string, byteCount int) error) error {
	remaining := len(data)
	for i := 0; remaining > 0; {
		toWrite := min(remaining, dataBytesPerLine)

		buf := &strings.Builder{}
		buf.WriteString(".byte ")
		for j := range toWrite {
			if _, err := fmt.Fprintf(buf, "$%02x, ", data[i+j]); err != nil {
				return fmt.Errorf("writing data byte: %w", err)
			}
		}

		line := strings.TrimRight(buf.String(), ", ")
		if err := lineWriter(line, toWrite); err != nil {
			return fmt.Errorf("writing data line: %w", err)
		}

		i += toWrite
		remaining -= toWrite
	}
	return nil
}

func (w *Writer) writeLine(text string, address uint32, encoded []byte) error {
	var comments []string
	if w.options.OffsetComments {
		comments = append(comments, fmt.Sprintf("$%08X", address))
	}
	if w.options.HexComments {
		hex := make([]string, len(encoded))
		for i, b := range encoded {
			hex[i] = fmt.Sprintf("%02x", b)
		}
		comments = append(comments, strings.Join(hex, " "))
	}

	line := "  " + text
	if len(comments) > 0 {
		line = fmt.Sprintf("  %-32s ; %s", text, strings.Join(comments, " "))
	}
	if _, err := fmt.Fprintln(w.writer, line); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}
