// Package hexbytes converts between byte slices and their hex text form as
// typed by a player, like "90 90", "0x90,0x90" or "9090".
package hexbytes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned for text that is not a valid hex byte sequence.
var ErrInvalidHex = errors.New("invalid hex")

func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == ','
}

// Parse converts hex text to bytes. Bytes may be separated by spaces, tabs
// or commas and every token may carry a 0x prefix.
func Parse(text string) ([]byte, error) {
	tokens := strings.FieldsFunc(text, isSeparator)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no bytes given", ErrInvalidHex)
	}

	var data []byte
	for _, token := range tokens {
		digits := token
		if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
			digits = digits[2:]
		}
		if digits == "" {
			return nil, fmt.Errorf("%w: no digits in '%s'", ErrInvalidHex, token)
		}
		if len(digits)%2 != 0 {
			return nil, fmt.Errorf("%w: odd number of digits in '%s'", ErrInvalidHex, token)
		}

		for i := 0; i < len(digits); i += 2 {
			pair := digits[i : i+2]
			b, err := strconv.ParseUint(pair, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid hex byte '%s'", ErrInvalidHex, pair)
			}
			data = append(data, byte(b))
		}
	}
	return data, nil
}

// Format returns the bytes as space separated lower case hex.
func Format(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// ParseAddress parses an address in hex with optional 0x prefix, or in
// decimal when prefixed with '#'.
func ParseAddress(text string) (uint32, error) {
	text = strings.TrimSpace(text)
	if dec, ok := strings.CutPrefix(text, "#"); ok {
		v, err := strconv.ParseUint(dec, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("parsing decimal address '%s': %w", text, err)
		}
		return uint32(v), nil
	}

	trimmed := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing hex address '%s': %w", text, err)
	}
	return uint32(v), nil
}
