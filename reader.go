package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

// ErrDurationZeroRate is returned when calculating the duration of a
// stream without a sample rate.
var ErrDurationZeroRate = errors.New("can't calculate duration without a sample rate")

// Float constrains the output precision of the sample decode path.
type Float interface {
	~float32 | ~float64
}

// Reader resolves a WAV or AIFF container held in memory and provides
// random access to its samples.
//
// The reader aliases the input slice instead of copying it; the slice
// must stay alive and unmodified for as long as the reader is used.
// A Reader is immutable after construction and safe for concurrent use.
type Reader struct {
	specs PCMSpecs
	data  []byte
}

// NewReader parses the WAV or AIFF container in input.
// The input must be the complete file image: the size declared in the
// RIFF/FORM header is checked against len(input).
func NewReader(input []byte) (*Reader, error) {
	r := &Reader{}
	if err := r.Reload(input); err != nil {
		return nil, err
	}

	return r, nil
}

// Reload re-parses the reader against a new buffer, replacing all state.
// On error the reader holds no stream.
func (r *Reader) Reload(input []byte) error {
	r.specs = PCMSpecs{}
	r.data = nil

	if len(input) < 12 {
		return fmt.Errorf("%d byte input: %w", len(input), ErrUnsupportedAudioFormat)
	}

	var magic, formType [4]byte
	copy(magic[:], input[0:4])
	copy(formType[:], input[8:12])

	switch {
	case magic == riff.RiffID && formType == riff.WavFormatID:
		declared := binary.LittleEndian.Uint32(input[4:8])
		if uint64(declared) != uint64(len(input)-8) {
			return fmt.Errorf("declared %d, have %d: %w", declared, len(input)-8, ErrHeaderSizeMismatch)
		}

		return r.parseWAV(input[12:])
	case magic == cidFORM && (formType == cidAIFF || formType == cidAIFC):
		declared := binary.BigEndian.Uint32(input[4:8])
		if uint64(declared) != uint64(len(input)-8) {
			return fmt.Errorf("declared %d, have %d: %w", declared, len(input)-8, ErrHeaderSizeMismatch)
		}

		return r.parseAIFF(input[12:], formType == cidAIFC)
	default:
		return fmt.Errorf("no RIFF or FORM header: %w", ErrUnsupportedAudioFormat)
	}
}

// deriveNumSamples computes the per-channel sample count from the length
// of the data region. Header sample counts are never trusted.
func (r *Reader) deriveNumSamples() error {
	switch r.specs.AudioFormat {
	case IMAADPCMLE:
		numSamples, err := adpcmNumSamplesPerChannel(uint32(len(r.data)), &r.specs)
		if err != nil {
			return err
		}

		r.specs.NumSamples = numSamples
	default:
		if r.specs.BitDepth == 0 || r.specs.BitDepth%8 != 0 {
			return fmt.Errorf("bit depth %d: %w", r.specs.BitDepth, ErrUnsupportedBitDepth)
		}

		bytesPerFrame := uint32(r.specs.BitDepth/8) * uint32(r.specs.NumChannels)
		r.specs.NumSamples = uint32(len(r.data)) / bytesPerFrame
	}

	return nil
}

// Specs returns a copy of the resolved stream properties.
func (r *Reader) Specs() PCMSpecs {
	return r.specs
}

// Format returns the audio format of the decoded content.
func (r *Reader) Format() *audio.Format {
	if r == nil {
		return nil
	}

	return &audio.Format{
		NumChannels: int(r.specs.NumChannels),
		SampleRate:  int(r.specs.SampleRate),
	}
}

// Duration returns the time duration of the stream.
func (r *Reader) Duration() (time.Duration, error) {
	if r == nil || r.specs.SampleRate == 0 {
		return 0, ErrDurationZeroRate
	}

	seconds := float64(r.specs.NumSamples) / float64(r.specs.SampleRate)

	return time.Duration(seconds * float64(time.Second)), nil
}

// String implements the Stringer interface.
func (r *Reader) String() string {
	return fmt.Sprintf("Format: %s", r.specs)
}

// ReadSample returns the sample at an arbitrary (channel, frame)
// position, normalized to [-1.0, 1.0] regardless of the source format.
// IMA-ADPCM streams have no random access and must be read through
// ADPCMDecoder.
func (r *Reader) ReadSample(channel uint16, frame uint32) (float32, error) {
	return ReadSampleAs[float32](r, channel, frame)
}

// ReadSampleAs is ReadSample generalized over the output float
// precision. 64-bit source floats are narrowed only when F is float32.
func ReadSampleAs[F Float](r *Reader, channel uint16, frame uint32) (F, error) {
	if channel >= r.specs.NumChannels {
		return 0, ErrInvalidChannel
	}

	if frame >= r.specs.NumSamples {
		return 0, ErrInvalidSample
	}

	if r.specs.AudioFormat == IMAADPCMLE {
		return 0, fmt.Errorf("IMA-ADPCM has no random access, use ADPCMDecoder: %w", ErrUnsupportedAudioFormat)
	}

	byteDepth := uint32(r.specs.BitDepth / 8)
	offset := byteDepth * (frame*uint32(r.specs.NumChannels) + uint32(channel))

	return decodeSample[F](&r.specs, r.data[offset:])
}

// FullPCMBuffer decodes the whole stream into an interleaved
// Float32Buffer. The entire decoded stream is held in memory; embedded
// callers should prefer ReadSample.
func (r *Reader) FullPCMBuffer() (*audio.Float32Buffer, error) {
	if r.specs.AudioFormat == IMAADPCMLE {
		return nil, fmt.Errorf("IMA-ADPCM has no random access, use ADPCMDecoder: %w", ErrUnsupportedAudioFormat)
	}

	numChannels := uint32(r.specs.NumChannels)
	buf := &audio.Float32Buffer{
		Format:         r.Format(),
		SourceBitDepth: int(r.specs.BitDepth),
		Data:           make([]float32, r.specs.NumSamples*numChannels),
	}

	for frame := uint32(0); frame < r.specs.NumSamples; frame++ {
		for channel := uint16(0); channel < r.specs.NumChannels; channel++ {
			value, err := r.ReadSample(channel, frame)
			if err != nil {
				return nil, err
			}

			buf.Data[frame*numChannels+uint32(channel)] = value
		}
	}

	return buf, nil
}

// decodeSample decodes one sample from the head of window, normalizing
// integer PCM by 2^(bitDepth-1) and passing IEEE floats through.
func decodeSample[F Float](specs *PCMSpecs, window []byte) (F, error) {
	if len(window) < int(specs.BitDepth/8) {
		return 0, ErrInvalidSample
	}

	switch specs.AudioFormat {
	case LinearPCMLE:
		switch specs.BitDepth {
		case 16:
			sample := int16(binary.LittleEndian.Uint16(window))
			return F(float64(sample) / scalePCMInt16), nil
		case 24:
			sample := audio.Int24LETo32(window[:3])
			return F(float64(sample) / scalePCMInt24), nil
		case 32:
			sample := int32(binary.LittleEndian.Uint32(window))
			return F(float64(sample) / scalePCMInt32), nil
		default:
			return 0, fmt.Errorf("linear PCM %d bit: %w", specs.BitDepth, ErrUnsupportedBitDepth)
		}
	case LinearPCMBE:
		switch specs.BitDepth {
		case 16:
			sample := int16(binary.BigEndian.Uint16(window))
			return F(float64(sample) / scalePCMInt16), nil
		case 24:
			sample := int32(int8(window[0]))<<16 | int32(window[1])<<8 | int32(window[2])
			return F(float64(sample) / scalePCMInt24), nil
		case 32:
			sample := int32(binary.BigEndian.Uint32(window))
			return F(float64(sample) / scalePCMInt32), nil
		default:
			return 0, fmt.Errorf("linear PCM %d bit: %w", specs.BitDepth, ErrUnsupportedBitDepth)
		}
	case IEEEFloatLE:
		switch specs.BitDepth {
		case 32:
			return F(math.Float32frombits(binary.LittleEndian.Uint32(window))), nil
		case 64:
			return F(math.Float64frombits(binary.LittleEndian.Uint64(window))), nil
		default:
			return 0, fmt.Errorf("IEEE float %d bit: %w", specs.BitDepth, ErrUnsupportedBitDepth)
		}
	case IEEEFloatBE:
		switch specs.BitDepth {
		case 32:
			return F(math.Float32frombits(binary.BigEndian.Uint32(window))), nil
		case 64:
			return F(math.Float64frombits(binary.BigEndian.Uint64(window))), nil
		default:
			return 0, fmt.Errorf("IEEE float %d bit: %w", specs.BitDepth, ErrUnsupportedBitDepth)
		}
	default:
		return 0, ErrUnsupportedAudioFormat
	}
}
