package pcm

import (
	"errors"
	"fmt"
)

// AudioFormat identifies the sample encoding of the data region.
type AudioFormat int

const (
	// Unknown is the zero value for unresolved formats.
	Unknown AudioFormat = iota
	// LinearPCMLE is little-endian two's-complement integer PCM.
	LinearPCMLE
	// LinearPCMBE is big-endian two's-complement integer PCM.
	LinearPCMBE
	// IEEEFloatLE is little-endian IEEE 754 float PCM.
	IEEEFloatLE
	// IEEEFloatBE is big-endian IEEE 754 float PCM.
	IEEEFloatBE
	// IMAADPCMLE is 4-bit IMA-ADPCM compressed audio.
	IMAADPCMLE
)

// String implements the Stringer interface.
func (f AudioFormat) String() string {
	switch f {
	case LinearPCMLE:
		return "linear PCM (LE)"
	case LinearPCMBE:
		return "linear PCM (BE)"
	case IEEEFloatLE:
		return "IEEE float (LE)"
	case IEEEFloatBE:
		return "IEEE float (BE)"
	case IMAADPCMLE:
		return "IMA-ADPCM (LE)"
	default:
		return "unknown"
	}
}

var (
	// ErrHeaderSizeMismatch is returned when the size declared in a RIFF or
	// FORM header disagrees with the length of the input buffer.
	ErrHeaderSizeMismatch = errors.New("RIFF or FORM header size mismatch")
	// ErrUnsupportedAudioFormat is returned when the input is not a
	// supported WAV or AIFF file, or when its format chunk does not
	// resolve to a supported audio format.
	ErrUnsupportedAudioFormat = errors.New("unsupported audio format")
	// ErrUnsupportedBitDepth is returned when the bit depth has no decode
	// path for the resolved audio format.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	// ErrInvalidChannel is returned when a channel index is out of range.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrInvalidSample is returned when a frame index is out of range.
	ErrInvalidSample = errors.New("invalid sample")
	// ErrTooManyChunks is returned when a container declares more chunks
	// than the fixed chunk capacity.
	ErrTooManyChunks = errors.New("chunk capacity exceeded")
	// ErrBlockLengthMismatch is returned when an IMA-ADPCM block read runs
	// past the data region or the block contents are corrupt.
	ErrBlockLengthMismatch = errors.New("IMA-ADPCM block length mismatch")
	// ErrOutputBufferTooShort is returned when the output buffer holds
	// fewer elements than the stream has channels.
	ErrOutputBufferTooShort = errors.New("output buffer shorter than channel count")
	// ErrFinishedPlaying is returned when the sequential cursor reached the
	// end of the stream. It is recoverable via Rewind.
	ErrFinishedPlaying = errors.New("finished playing")
)

const (
	scalePCMInt16 = 32768.0
	scalePCMInt24 = 8388608.0
	scalePCMInt32 = 2147483648.0
)

// PCMSpecs holds the resolved properties of a PCM stream.
type PCMSpecs struct {
	AudioFormat AudioFormat
	NumChannels uint16
	// SampleRate in Hz.
	SampleRate uint32
	BitDepth   uint16
	// NumSamples is the per-channel sample count. It is derived from the
	// length of the data region, never read from a header field.
	NumSamples uint32
	// ADPCMBlockAlign is the byte size of one compressed block.
	// Set only when AudioFormat is IMAADPCMLE.
	ADPCMBlockAlign uint16
	// ADPCMSamplesPerBlock is the per-channel sample count of one
	// compressed block. Set only when AudioFormat is IMAADPCMLE.
	ADPCMSamplesPerBlock uint16
}

func (s PCMSpecs) String() string {
	return fmt.Sprintf("%s - %d channels @ %d Hz / %d bits",
		s.AudioFormat, s.NumChannels, s.SampleRate, s.BitDepth)
}
