// Package verification verifies that a generated listing recreates the input image.
package verification

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/retroenv/retrogolib/log"
)

var errNoHexComments = errors.New("listing line has no opcode bytes comment")

// VerifyListing verifies that the opcode bytes in the comments of the
// listing recreate the exact image. The listing has to be written with hex
// comments enabled.
func VerifyListing(logger *log.Logger, listing, image []byte) error {
	output, err := Reassemble(listing)
	if err != nil {
		return fmt.Errorf("reassembling listing: %w", err)
	}
	if err := checkBufferEqual(logger, image, output); err != nil {
		return fmt.Errorf("image mismatch: %w", err)
	}
	return nil
}

// Reassemble collects the opcode bytes of all listing lines.
func Reassemble(listing []byte) ([]byte, error) {
	var output []byte
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}

		_, comment, ok := strings.Cut(text, " ; ")
		if !ok {
			return nil, fmt.Errorf("line %d: %w", line, errNoHexComments)
		}

		var hex []string
		for field := range strings.FieldsSeq(comment) {
			if !strings.HasPrefix(field, "$") {
				hex = append(hex, field)
			}
		}
		if len(hex) == 0 {
			return nil, fmt.Errorf("line %d: %w", line, errNoHexComments)
		}

		data, err := hexbytes.Parse(strings.Join(hex, " "))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		output = append(output, data...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}
	return output, nil
}

func checkBufferEqual(logger *log.Logger, input, output []byte) error {
	if len(input) != len(output) {
		return fmt.Errorf("mismatched lengths, %d != %d", len(input), len(output))
	}

	var diffs uint64
	for i := range input {
		if input[i] == output[i] {
			continue
		}

		diffs++
		if diffs < 10 {
			logger.Error("Offset mismatch",
				log.Hex("offset", i),
				log.Hex("expected", input[i]),
				log.Hex("got", output[i]))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%d offset mismatches", diffs)
}
