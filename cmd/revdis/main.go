// Package main implements a disassembler for raw 32 bit x86 code images
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/NeonFoundry/RevGame/internal/app"
	"github.com/NeonFoundry/RevGame/internal/arch/x86"
	"github.com/NeonFoundry/RevGame/internal/config"
	"github.com/NeonFoundry/RevGame/internal/detector"
	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/NeonFoundry/RevGame/internal/loader"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/NeonFoundry/RevGame/internal/verification"
	"github.com/NeonFoundry/RevGame/internal/writer"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	input  string
	output string
	format string
	base   string

	quiet  bool
	verify bool

	noHeader      bool
	noHexComments bool
	noOffsets     bool
}

func main() {
	options := readArguments()
	logger := config.CreateLogger(false, options.quiet)
	app.PrintBanner(logger, "revdis", options.quiet, version, commit, date)

	if err := disasmFile(logger, options); err != nil {
		fmt.Println(fmt.Errorf("disassembling failed: %w", err))
		os.Exit(1)
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.base, "base", "1000", "load address of the image, hex")
	flags.StringVar(&options.format, "f", "", "image format (raw, hex) - if not auto-detected from the file")
	flags.BoolVar(&options.noHeader, "noheader", false, "do not output the checksum header")
	flags.BoolVar(&options.noHexComments, "nohexcomments", false, "do not output opcode bytes as hex values in comments")
	flags.BoolVar(&options.noOffsets, "nooffsets", false, "do not output offsets in comments")
	flags.StringVar(&options.output, "o", "", "name of the output .asm file, printed on console if no name given")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")
	flags.BoolVar(&options.verify, "verify", false, "verify that the opcode bytes of the generated output match the input")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		fmt.Printf("usage: revdis [options] <file to disassemble>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	options.input = args[0]

	return options
}

func disasmFile(logger *log.Logger, options optionFlags) error {
	content, err := os.ReadFile(options.input)
	if err != nil {
		return fmt.Errorf("reading file '%s': %w", options.input, err)
	}

	image := content
	if detector.New(logger).Detect(options.format, options.input, content) == detector.Hex {
		image, err = loader.ParseHexImage(content)
		if err != nil {
			return fmt.Errorf("parsing hex image: %w", err)
		}
	}

	base, err := hexbytes.ParseAddress(options.base)
	if err != nil {
		return fmt.Errorf("parsing base address: %w", err)
	}

	var listing bytes.Buffer
	if err := disassemble(&listing, image, base, options); err != nil {
		return err
	}

	if options.verify {
		if options.noHexComments {
			return errors.New("verification requires opcode bytes in comments")
		}
		if err := verification.VerifyListing(logger, listing.Bytes(), image); err != nil {
			return fmt.Errorf("output file mismatch: %w", err)
		}
		logger.Info("Output file matched input file")
	}

	if options.output == "" {
		if _, err := os.Stdout.Write(listing.Bytes()); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(options.output, listing.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing file '%s': %w", options.output, err)
	}
	return nil
}

// disassemble writes a linear listing of the image. Bytes that do not
// decode are written as data and the listing continues at the next byte.
func disassemble(w io.Writer, image []byte, base uint32, options optionFlags) error {
	if len(image) == 0 {
		return nil
	}
	size := uint64(base) + uint64(len(image))
	if size >= 1<<32 {
		return fmt.Errorf("image of %d bytes does not fit at base 0x%08x", len(image), base)
	}

	mem, err := memory.New(uint32(size), []memory.Region{
		{Start: base, Length: uint32(len(image)), Kind: memory.Code, Perm: memory.ReadExecute},
	})
	if err != nil {
		return fmt.Errorf("creating memory: %w", err)
	}
	if err := mem.Load(base, image); err != nil {
		return fmt.Errorf("loading image: %w", err)
	}

	out := writer.New(w, writer.Options{
		OffsetComments: !options.noOffsets,
		HexComments:    !options.noHexComments,
	})
	if !options.noHeader {
		if err := out.WriteCommentHeader(image, base); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	end := base + uint32(len(image))
	for address := base; address < end; {
		ins, err := x86.Decode(mem, address)
		if err != nil {
			if err := out.WriteData(address, image[address-base]); err != nil {
				return fmt.Errorf("writing listing: %w", err)
			}
			address++
			continue
		}

		if err := out.WriteCode(address, ins.String(), ins.Bytes); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
		address = ins.Next()
		if ins.EndsBlock() && address < end {
			if err := out.WriteBlockEnd(); err != nil {
				return fmt.Errorf("writing listing: %w", err)
			}
		}
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	return nil
}
