package pcm

import (
	"encoding/binary"
	"fmt"
	"math"
)

var (
	cidFORM = [4]byte{'F', 'O', 'R', 'M'}
	cidAIFF = [4]byte{'A', 'I', 'F', 'F'}
	cidAIFC = [4]byte{'A', 'I', 'F', 'C'}

	cidCOMM      = [4]byte{'C', 'O', 'M', 'M'}
	cidSSND      = [4]byte{'S', 'S', 'N', 'D'}
	cidMARK      = [4]byte{'M', 'A', 'R', 'K'}
	cidFVER      = [4]byte{'F', 'V', 'E', 'R'}
	cidINST      = [4]byte{'I', 'N', 'S', 'T'}
	cidMIDI      = [4]byte{'M', 'I', 'D', 'I'}
	cidAESD      = [4]byte{'A', 'E', 'S', 'D'}
	cidAPPL      = [4]byte{'A', 'P', 'P', 'L'}
	cidCOMT      = [4]byte{'C', 'O', 'M', 'T'}
	cidNAME      = [4]byte{'N', 'A', 'M', 'E'}
	cidAUTH      = [4]byte{'A', 'U', 'T', 'H'}
	cidCopyright = [4]byte{'(', 'c', ')', ' '}
	cidANNO      = [4]byte{'A', 'N', 'N', 'O'}
)

// AIFF-C compression type tags. When a tag implies a bit depth it
// overrides the COMM chunk's bit depth field.
var (
	ctNONE = [4]byte{'N', 'O', 'N', 'E'}
	ctTwos = [4]byte{'t', 'w', 'o', 's'}
	ctSowt = [4]byte{'s', 'o', 'w', 't'}
	ctFl32 = [4]byte{'f', 'l', '3', '2'}
	ctFL32 = [4]byte{'F', 'L', '3', '2'}
	ctFl64 = [4]byte{'f', 'l', '6', '4'}
	ctFL64 = [4]byte{'F', 'L', '6', '4'}
	ctIn24 = [4]byte{'i', 'n', '2', '4'}
	ctIn32 = [4]byte{'i', 'n', '3', '2'}
	ct42ni = [4]byte{'4', '2', 'n', 'i'}
	ct23ni = [4]byte{'2', '3', 'n', 'i'}
)

// aiffChunkID is the closed set of recognized AIFF chunk tags.
type aiffChunkID int

const (
	aiffChunkUnknown aiffChunkID = iota
	aiffChunkCommon
	aiffChunkSoundData
	aiffChunkMarker
	aiffChunkFormatVersion
	aiffChunkInstrument
	aiffChunkMIDI
	aiffChunkAudioRecording
	aiffChunkApplicationSpecific
	aiffChunkComment
	aiffChunkName
	aiffChunkAuthor
	aiffChunkCopyright
	aiffChunkAnnotation
)

func classifyAIFFChunk(id [4]byte) aiffChunkID {
	switch id {
	case cidCOMM:
		return aiffChunkCommon
	case cidSSND:
		return aiffChunkSoundData
	case cidMARK:
		return aiffChunkMarker
	case cidFVER:
		return aiffChunkFormatVersion
	case cidINST:
		return aiffChunkInstrument
	case cidMIDI:
		return aiffChunkMIDI
	case cidAESD:
		return aiffChunkAudioRecording
	case cidAPPL:
		return aiffChunkApplicationSpecific
	case cidCOMT:
		return aiffChunkComment
	case cidNAME:
		return aiffChunkName
	case cidAUTH:
		return aiffChunkAuthor
	case cidCopyright:
		return aiffChunkCopyright
	case cidANNO:
		return aiffChunkAnnotation
	default:
		return aiffChunkUnknown
	}
}

// parseAIFF walks the chunk sequence following a validated FORM header.
// aifc selects the AIFF-C reading of the COMM chunk.
func (r *Reader) parseAIFF(body []byte, aifc bool) error {
	var chunks chunkList
	if err := walkChunks(body, binary.BigEndian, &chunks); err != nil {
		return err
	}

	var haveComm, haveData bool

	for i := 0; i < chunks.n; i++ {
		c := &chunks.items[i]

		switch classifyAIFFChunk(c.id) {
		case aiffChunkCommon:
			specs, err := parseCOMMChunk(c.data, aifc)
			if err != nil {
				return err
			}

			r.specs = specs
			haveComm = true
		case aiffChunkSoundData:
			data, err := parseSSNDChunk(c.data)
			if err != nil {
				return err
			}

			r.data = data
			haveData = true
		default:
			// MARK, FVER, INST, MIDI, AESD, APPL, COMT, the text chunks
			// and unknown tags are enumerated but carry nothing the
			// decoder needs.
		}
	}

	if !haveComm || !haveData {
		return fmt.Errorf("missing COMM or SSND chunk: %w", ErrUnsupportedAudioFormat)
	}

	return r.deriveNumSamples()
}

// parseCOMMChunk decodes the COMM chunk payload into canonical specs.
// The numSampleFrames field is skipped: the per-channel sample count is
// always derived from the SSND payload length instead.
func parseCOMMChunk(data []byte, aifc bool) (PCMSpecs, error) {
	var specs PCMSpecs

	if len(data) < 18 {
		return specs, fmt.Errorf("COMM chunk of %d bytes: %w", len(data), ErrUnsupportedAudioFormat)
	}

	numChannels := int16(binary.BigEndian.Uint16(data[0:2]))
	if numChannels < 1 {
		return specs, fmt.Errorf("%d channels: %w", numChannels, ErrUnsupportedAudioFormat)
	}

	specs.AudioFormat = LinearPCMBE
	specs.NumChannels = uint16(numChannels)
	specs.BitDepth = uint16(int16(binary.BigEndian.Uint16(data[6:8])))

	rate, err := extendedToFloat64(data[8:18])
	if err != nil {
		return specs, err
	}

	specs.SampleRate = uint32(rate)

	if !aifc {
		return specs, nil
	}

	if len(data) < 22 {
		return specs, fmt.Errorf("AIFF-C COMM chunk without compression type: %w", ErrUnsupportedAudioFormat)
	}

	var compressionType [4]byte
	copy(compressionType[:], data[18:22])

	switch compressionType {
	case ctNONE:
		// big-endian PCM at the COMM bit depth
	case ctTwos:
		specs.AudioFormat = LinearPCMBE
		specs.BitDepth = 16
	case ctSowt:
		specs.AudioFormat = LinearPCMLE
		specs.BitDepth = 16
	case ctFl32, ctFL32:
		specs.AudioFormat = IEEEFloatBE
		specs.BitDepth = 32
	case ctFl64, ctFL64:
		specs.AudioFormat = IEEEFloatBE
		specs.BitDepth = 64
	case ctIn24:
		specs.AudioFormat = LinearPCMBE
		specs.BitDepth = 24
	case ctIn32:
		specs.AudioFormat = LinearPCMBE
		specs.BitDepth = 32
	case ct42ni:
		specs.AudioFormat = LinearPCMLE
		specs.BitDepth = 24
	case ct23ni:
		specs.AudioFormat = LinearPCMLE
		specs.BitDepth = 32
	default:
		return specs, fmt.Errorf("compression type %q: %w", compressionType[:], ErrUnsupportedAudioFormat)
	}

	return specs, nil
}

// parseSSNDChunk returns the raw sample bytes of a SSND chunk. The
// leading offset and blockSize fields must both be zero; aligned SSND
// layouts are not supported.
func parseSSNDChunk(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("SSND chunk of %d bytes: %w", len(data), ErrUnsupportedAudioFormat)
	}

	offset := int32(binary.BigEndian.Uint32(data[0:4]))
	blockSize := int32(binary.BigEndian.Uint32(data[4:8]))

	if offset != 0 || blockSize != 0 {
		return nil, fmt.Errorf("SSND offset %d blockSize %d: %w", offset, blockSize, ErrUnsupportedAudioFormat)
	}

	return data[8:], nil
}

// extendedToFloat64 decodes the 10-byte 80-bit extended float used by
// AIFF for the sample rate: 1 sign bit, 15 exponent bits, 1 integer
// (normalization) bit, 63 mantissa bits.
func extendedToFloat64(b []byte) (float64, error) {
	if len(b) != 10 {
		return 0, fmt.Errorf("extended float of %d bytes: %w", len(b), ErrUnsupportedAudioFormat)
	}

	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1.0
	}

	exponent := int(b[0]&0x7F)<<8 | int(b[1])
	mantissa := binary.BigEndian.Uint64(b[2:10])

	normalize := 0.0
	if mantissa&(1<<63) != 0 {
		normalize = 1.0
	}

	mantissa &^= 1 << 63

	value := sign * (normalize + math.Ldexp(float64(mantissa), -63)) * math.Ldexp(1, exponent-16383)

	return value, nil
}
