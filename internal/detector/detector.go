// Package detector handles image format detection.
package detector

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// ErrUnknownFormat is returned for unsupported image format names.
var ErrUnknownFormat = errors.New("unknown image format")

// Format is the encoding of an image file.
type Format string

// Supported image formats.
const (
	// Raw images contain the bytes as they are loaded into memory.
	Raw Format = "raw"
	// Hex images contain hex encoded bytes, '#' and ';' start comments.
	Hex Format = "hex"
)

func (f Format) String() string {
	return string(f)
}

// ParseFormat returns the format for its name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case Raw:
		return Raw, nil
	case Hex:
		return Hex, nil
	default:
		return "", fmt.Errorf("%w '%s', valid formats: raw, hex", ErrUnknownFormat, name)
	}
}

// Detector handles image format detection from options, file extensions
// and file content.
type Detector struct {
	logger *log.Logger
}

// New creates a new format detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the format of an image. An explicitly given format
// takes precedence, otherwise the format is derived from the file extension
// and, for unknown extensions, from the content.
func (d *Detector) Detect(format, filename string, data []byte) Format {
	if f, err := ParseFormat(format); err == nil {
		return f
	}

	f, ok := detectFromFile(filename)
	if !ok {
		f = detectFromContent(data)
	}
	d.logger.Debug("Auto-detected image format",
		log.Stringer("format", f),
		log.String("file", filename))
	return f
}

// detectFromFile determines the format based on the file extension.
func detectFromFile(filename string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".hex", ".txt":
		return Hex, true
	case ".bin", ".raw", ".com":
		return Raw, true
	default:
		return "", false
	}
}

// detectFromContent treats non empty data that consists only of hex digits,
// separators and comments as hex text.
func detectFromContent(data []byte) Format {
	digits := 0
	comment := false
	for _, b := range data {
		switch {
		case b == '\n':
			comment = false
		case comment:
		case b == '#' || b == ';':
			comment = true
		case isHexDigit(b):
			digits++
		case b == ' ' || b == '\t' || b == '\r' || b == ',' || b == 'x' || b == 'X':
		default:
			return Raw
		}
	}
	if digits == 0 {
		return Raw
	}
	return Hex
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
