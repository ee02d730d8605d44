package pcm

import (
	"encoding/binary"
	"fmt"

	"github.com/go-audio/riff"
)

// WAV format tags, per the mmreg.h registry.
const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
	wavFormatIMAADPCM  = 0x11 // aka DVI ADPCM
)

// wavChunkID is the closed set of recognized WAV chunk tags. Recognized
// non-core tags are enumerated but never update reader state.
type wavChunkID int

const (
	wavChunkUnknown wavChunkID = iota
	wavChunkFmt
	wavChunkFact
	wavChunkPeak
	wavChunkData
	wavChunkJunk
	wavChunkList
	wavChunkIDv3
)

var (
	cidFact = [4]byte{'f', 'a', 'c', 't'}
	cidPeak = [4]byte{'p', 'e', 'a', 'k'}
	cidJunk = [4]byte{'j', 'u', 'n', 'k'}
	cidList = [4]byte{'l', 'i', 's', 't'}
	cidIDv3 = [4]byte{'i', 'd', 'v', '3'}
)

// classifyWAVChunk matches tags case-insensitively; files written as
// "FMT "/"DATA" exist in the wild.
func classifyWAVChunk(id [4]byte) wavChunkID {
	switch lowerID(id) {
	case riff.FmtID:
		return wavChunkFmt
	case riff.DataFormatID:
		return wavChunkData
	case cidFact:
		return wavChunkFact
	case cidPeak:
		return wavChunkPeak
	case cidJunk:
		return wavChunkJunk
	case cidList:
		return wavChunkList
	case cidIDv3:
		return wavChunkIDv3
	default:
		return wavChunkUnknown
	}
}

// parseWAV walks the chunk sequence following a validated RIFF/WAVE
// header and resolves the format and data chunks.
func (r *Reader) parseWAV(body []byte) error {
	var chunks chunkList
	if err := walkChunks(body, binary.LittleEndian, &chunks); err != nil {
		return err
	}

	var haveFmt, haveData bool

	for i := 0; i < chunks.n; i++ {
		c := &chunks.items[i]

		switch classifyWAVChunk(c.id) {
		case wavChunkFmt:
			specs, err := parseFmtChunk(c.data)
			if err != nil {
				return err
			}

			r.specs = specs
			haveFmt = true
		case wavChunkData:
			r.data = c.data
			haveData = true
		default:
			// fact, PEAK, junk, LIST, IDv3 and unknown tags are
			// enumerated but carry nothing the decoder needs.
		}
	}

	if !haveFmt || !haveData {
		return fmt.Errorf("missing fmt or data chunk: %w", ErrUnsupportedAudioFormat)
	}

	return r.deriveNumSamples()
}

// parseFmtChunk decodes the fmt chunk payload into canonical specs.
// For IMA-ADPCM the extension fields are mandatory and the declared
// samples-per-block must agree with the block geometry formula
//
//	samplesPerBlock = (blockAlign - 4*numChannels) * 8 / (bitDepth * numChannels) + 1
func parseFmtChunk(data []byte) (PCMSpecs, error) {
	var specs PCMSpecs

	if len(data) < 16 {
		return specs, fmt.Errorf("fmt chunk of %d bytes: %w", len(data), ErrUnsupportedAudioFormat)
	}

	formatTag := binary.LittleEndian.Uint16(data[0:2])
	specs.NumChannels = binary.LittleEndian.Uint16(data[2:4])
	specs.SampleRate = binary.LittleEndian.Uint32(data[4:8])
	// bytes 8:12 carry the average bytes/sec, which the decoder ignores.
	blockAlign := binary.LittleEndian.Uint16(data[12:14])
	specs.BitDepth = binary.LittleEndian.Uint16(data[14:16])

	if specs.NumChannels == 0 {
		return specs, fmt.Errorf("zero channels: %w", ErrUnsupportedAudioFormat)
	}

	switch formatTag {
	case wavFormatPCM:
		specs.AudioFormat = LinearPCMLE
	case wavFormatIEEEFloat:
		specs.AudioFormat = IEEEFloatLE
	case wavFormatIMAADPCM:
		specs.AudioFormat = IMAADPCMLE

		err := parseFmtADPCMExtension(data, blockAlign, &specs)
		if err != nil {
			return specs, err
		}
	default:
		return specs, fmt.Errorf("wav format tag %d: %w", formatTag, ErrUnsupportedAudioFormat)
	}

	return specs, nil
}

func parseFmtADPCMExtension(data []byte, blockAlign uint16, specs *PCMSpecs) error {
	if specs.BitDepth == 0 || blockAlign == 0 || blockAlign%4 != 0 {
		return fmt.Errorf("IMA-ADPCM block align %d: %w", blockAlign, ErrUnsupportedAudioFormat)
	}

	if len(data) < 20 {
		return fmt.Errorf("IMA-ADPCM fmt chunk of %d bytes: %w", len(data), ErrUnsupportedAudioFormat)
	}

	cbSize := binary.LittleEndian.Uint16(data[16:18])
	if cbSize != 2 {
		return fmt.Errorf("IMA-ADPCM cbSize %d: %w", cbSize, ErrUnsupportedAudioFormat)
	}

	samplesPerBlock := binary.LittleEndian.Uint16(data[18:20])

	// widened to uint32: the 16-bit fields can underflow the header
	// subtraction or wrap the divisor and the code-bit product
	headerBytes := 4 * uint32(specs.NumChannels)
	if uint32(blockAlign) < headerBytes {
		return fmt.Errorf("IMA-ADPCM block align %d below %d header bytes: %w",
			blockAlign, headerBytes, ErrUnsupportedAudioFormat)
	}

	want := (uint32(blockAlign)-headerBytes)*8/(uint32(specs.BitDepth)*uint32(specs.NumChannels)) + 1
	if uint32(samplesPerBlock) != want {
		return fmt.Errorf("samples per block %d, block geometry requires %d: %w",
			samplesPerBlock, want, ErrUnsupportedAudioFormat)
	}

	specs.ADPCMBlockAlign = blockAlign
	specs.ADPCMSamplesPerBlock = samplesPerBlock

	return nil
}
