// Package search finds byte patterns and strings in the guest memory.
package search

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/memory"
)

// ErrInvalidInput is returned for empty patterns and empty address ranges.
var ErrInvalidInput = errors.New("invalid search input")

// Source is the debugger view of the memory that is searched.
type Source interface {
	Peek(address uint32, length int) ([]byte, error)
	Regions() []memory.Region
}

// Result is a match at an address with the matched bytes.
type Result struct {
	Address uint32
	Data    []byte
}

// Bytes returns all occurrences of the pattern in [start, end).
func Bytes(src Source, pattern []byte, start, end uint32) ([]Result, error) {
	if len(pattern) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidInput)
	}
	data, err := read(src, start, end)
	if err != nil {
		return nil, err
	}
	return match(data, data, pattern, start), nil
}

// String returns all occurrences of the text in [start, end). A case
// insensitive search only folds ASCII letters, the results contain the
// original bytes.
func String(src Source, text string, start, end uint32, caseSensitive bool) ([]Result, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidInput)
	}
	data, err := read(src, start, end)
	if err != nil {
		return nil, err
	}
	if caseSensitive {
		return match(data, data, []byte(text), start), nil
	}
	return match(data, foldASCII(data), foldASCII([]byte(text)), start), nil
}

// Strings returns all null terminated runs of printable ASCII characters in
// [start, end) that are at least minLength bytes long.
func Strings(src Source, minLength int, start, end uint32) ([]Result, error) {
	data, err := read(src, start, end)
	if err != nil {
		return nil, err
	}

	var results []Result
	runStart := -1
	for i, b := range data {
		switch {
		case b == 0:
			if runStart >= 0 && i-runStart >= minLength {
				results = append(results, Result{
					Address: start + uint32(runStart),
					Data:    append([]byte(nil), data[runStart:i]...),
				})
			}
			runStart = -1
		case isPrintable(b):
			if runStart < 0 {
				runStart = i
			}
		default:
			runStart = -1
		}
	}
	return results, nil
}

// InRegions runs a search over every region of the source and concatenates
// the results in address order.
func InRegions(src Source, fn func(start, end uint32) ([]Result, error)) ([]Result, error) {
	var results []Result
	for _, r := range src.Regions() {
		found, err := fn(r.Start, uint32(r.End()))
		if err != nil {
			return nil, fmt.Errorf("searching region %s: %w", r, err)
		}
		results = append(results, found...)
	}
	return results, nil
}

func read(src Source, start, end uint32) ([]byte, error) {
	if start >= end {
		return nil, fmt.Errorf("%w: start 0x%08x is not below end 0x%08x", ErrInvalidInput, start, end)
	}
	data, err := src.Peek(start, int(end-start))
	if err != nil {
		return nil, fmt.Errorf("reading search range: %w", err)
	}
	return data, nil
}

// match finds pattern in haystack and returns the matching bytes of data,
// which has the same length as haystack.
func match(data, haystack, pattern []byte, start uint32) []Result {
	var results []Result
	for i := 0; i+len(pattern) <= len(haystack); i++ {
		if bytes.Equal(haystack[i:i+len(pattern)], pattern) {
			results = append(results, Result{
				Address: start + uint32(i),
				Data:    append([]byte(nil), data[i:i+len(pattern)]...),
			})
		}
	}
	return results
}

func foldASCII(data []byte) []byte {
	folded := make([]byte, len(data))
	for i, b := range data {
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		folded[i] = b
	}
	return folded
}

func isPrintable(b byte) bool {
	return (b >= 0x21 && b <= 0x7e) || b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}
