// This tool prints the resolved stream properties of the passed WAV or
// AIFF file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cwbudde/pcm"
)

const missingPathMessage = "You must pass the path of the file to inspect"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errMissingPath
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	reader, err := pcm.NewReader(data)
	if err != nil {
		return err
	}

	specs := reader.Specs()

	fmt.Fprintf(out, "Format: %s\n", specs.AudioFormat)
	fmt.Fprintf(out, "Channels: %d\n", specs.NumChannels)
	fmt.Fprintf(out, "Sample rate: %d Hz\n", specs.SampleRate)
	fmt.Fprintf(out, "Bit depth: %d\n", specs.BitDepth)
	fmt.Fprintf(out, "Samples per channel: %d\n", specs.NumSamples)

	if specs.AudioFormat == pcm.IMAADPCMLE {
		fmt.Fprintf(out, "Block align: %d\n", specs.ADPCMBlockAlign)
		fmt.Fprintf(out, "Samples per block: %d\n", specs.ADPCMSamplesPerBlock)
	}

	dur, err := reader.Duration()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Duration: %s\n", dur)

	return nil
}
