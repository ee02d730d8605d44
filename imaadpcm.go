package pcm

import (
	"encoding/binary"
	"fmt"

	"github.com/go-audio/audio"
)

// IMA-ADPCM quantizer tables, Multimedia Data Standards Update
// (April 15, 1994).

// imaIndexTable adjusts the step table index per decoded code.
var imaIndexTable = [16]int8{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

// imaStepSizeTable is the nonlinear quantizer step table.
var imaStepSizeTable = [89]int16{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34, 37,
	41, 45, 50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143, 157, 173,
	190, 209, 230, 253, 279, 307, 337, 371, 408, 449, 494, 544, 598, 658,
	724, 796, 876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358, 5894,
	6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899, 15289,
	16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

const (
	adpcmMaxChannels  = 2
	adpcmHeaderSize   = 4 // per-channel block header bytes
	adpcmDataWordSize = 4 // packed code bytes per channel per refill
	adpcmMaxStepIndex = 88
)

// adpcmCodeQueue holds the codes unpacked from one 4-byte data word
// until they are consumed, one per output frame.
type adpcmCodeQueue struct {
	codes [2 * adpcmDataWordSize]uint8
	head  int
	count int
}

func (q *adpcmCodeQueue) reset() {
	q.head = 0
	q.count = 0
}

func (q *adpcmCodeQueue) empty() bool {
	return q.count == 0
}

// fill unpacks one data word into eight codes. Each byte delivers its
// low code before its high code; relative to straight in-word nibble
// numbering this is the pairwise-swapped order the format requires.
func (q *adpcmCodeQueue) fill(word []byte) {
	for i, b := range word {
		q.codes[2*i] = b & 0x0F
		q.codes[2*i+1] = b >> 4
	}

	q.head = 0
	q.count = len(q.codes)
}

func (q *adpcmCodeQueue) pop() uint8 {
	code := q.codes[q.head]
	q.head++
	q.count--

	return code
}

// decodeADPCMSample runs one step of the adaptive predictor:
// it reconstructs the difference (originalSample + 1/2) * step/4 through
// repeated addition, applies the sign bit, clamps the new predictor to
// int16 range and adjusts the step table index.
func decodeADPCMSample(code uint8, lastPredicted int16, stepIndex int8) (int16, int8) {
	step := int32(imaStepSizeTable[stepIndex])

	diff := step >> 3
	if code&4 != 0 {
		diff += step
	}

	if code&2 != 0 {
		diff += step >> 1
	}

	if code&1 != 0 {
		diff += step >> 2
	}

	if code&8 != 0 {
		diff = -diff
	}

	predicted := clampInt16(int32(lastPredicted) + diff)
	index := clampStepIndex(int(stepIndex) + int(imaIndexTable[code]))

	return predicted, index
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}

	if v < -32768 {
		return -32768
	}

	return int16(v)
}

func clampStepIndex(v int) int8 {
	if v < 0 {
		return 0
	}

	if v > adpcmMaxStepIndex {
		return adpcmMaxStepIndex
	}

	return int8(v)
}

// adpcmNumSamplesPerChannel derives the per-channel sample count from
// the data region length: whole blocks only, samplesPerBlock each.
func adpcmNumSamplesPerChannel(dataLen uint32, specs *PCMSpecs) (uint32, error) {
	if specs.AudioFormat != IMAADPCMLE || specs.ADPCMBlockAlign == 0 {
		return 0, ErrUnsupportedAudioFormat
	}

	numBlocks := dataLen / uint32(specs.ADPCMBlockAlign)

	return numBlocks * uint32(specs.ADPCMSamplesPerBlock), nil
}

// ADPCMDecoder sequentially decompresses an IMA-ADPCM WAV stream.
//
// Each block starts with a 4-byte header per channel (initial predictor
// sample, initial step index, one reserved byte) followed by 4-byte data
// words assigned to channels cyclically. The header predictor is emitted
// directly as the block's first output frame; every later frame consumes
// one 4-bit code per channel.
//
// A decoder owns one cursor and is not safe for concurrent use.
type ADPCMDecoder struct {
	reader *Reader

	frameIndex    uint32
	lastPredicted [adpcmMaxChannels]int16
	stepIndex     [adpcmMaxChannels]int8
	block         []byte
	dataOffset    int
	queues        [adpcmMaxChannels]adpcmCodeQueue
}

// NewADPCMDecoder parses the WAV container in input and prepares a
// decoder positioned at the first frame.
func NewADPCMDecoder(input []byte) (*ADPCMDecoder, error) {
	reader, err := NewReader(input)
	if err != nil {
		return nil, err
	}

	if reader.specs.AudioFormat != IMAADPCMLE {
		return nil, fmt.Errorf("%s: %w", reader.specs.AudioFormat, ErrUnsupportedAudioFormat)
	}

	if reader.specs.NumChannels > adpcmMaxChannels {
		return nil, fmt.Errorf("%d IMA-ADPCM channels: %w", reader.specs.NumChannels, ErrUnsupportedAudioFormat)
	}

	return &ADPCMDecoder{reader: reader}, nil
}

// Specs returns a copy of the resolved stream properties.
func (d *ADPCMDecoder) Specs() PCMSpecs {
	return d.reader.Specs()
}

// NextFrame decodes the next frame into out, one normalized sample per
// channel. out must hold at least NumChannels elements. Past the last
// frame it returns ErrFinishedPlaying; Rewind recovers.
func (d *ADPCMDecoder) NextFrame(out []float32) error {
	specs := &d.reader.specs
	numChannels := int(specs.NumChannels)

	if len(out) < numChannels {
		return ErrOutputBufferTooShort
	}

	if d.frameIndex >= specs.NumSamples {
		return ErrFinishedPlaying
	}

	if d.frameIndex%uint32(specs.ADPCMSamplesPerBlock) == 0 {
		if err := d.loadBlock(); err != nil {
			return err
		}

		// the block's first sample is recorded in the header word
		for ch := 0; ch < numChannels; ch++ {
			out[ch] = float32(d.lastPredicted[ch]) / scalePCMInt16
		}

		d.frameIndex++

		return nil
	}

	if d.queues[0].empty() {
		if err := d.refillQueues(); err != nil {
			return err
		}
	}

	for ch := 0; ch < numChannels; ch++ {
		predicted, index := decodeADPCMSample(d.queues[ch].pop(), d.lastPredicted[ch], d.stepIndex[ch])
		d.lastPredicted[ch] = predicted
		d.stepIndex[ch] = index
		out[ch] = float32(predicted) / scalePCMInt16
	}

	d.frameIndex++

	return nil
}

// Rewind moves the cursor back to the first frame and clears all block
// state, enabling a byte-identical re-decode without reallocating.
func (d *ADPCMDecoder) Rewind() {
	d.frameIndex = 0
	d.block = nil
	d.dataOffset = 0
	d.lastPredicted = [adpcmMaxChannels]int16{}
	d.stepIndex = [adpcmMaxChannels]int8{}

	for i := range d.queues {
		d.queues[i].reset()
	}
}

// FullPCMBuffer decodes the whole stream from the start into an
// interleaved Float32Buffer. The decoder is left at end of stream.
func (d *ADPCMDecoder) FullPCMBuffer() (*audio.Float32Buffer, error) {
	d.Rewind()

	specs := d.reader.Specs()
	numChannels := int(specs.NumChannels)

	buf := &audio.Float32Buffer{
		Format:         d.reader.Format(),
		SourceBitDepth: 16,
		Data:           make([]float32, int(specs.NumSamples)*numChannels),
	}

	for i := 0; i < len(buf.Data); i += numChannels {
		if err := d.NextFrame(buf.Data[i : i+numChannels]); err != nil {
			return nil, err
		}
	}

	return buf, nil
}

// loadBlock points the decoder at the block containing the cursor and
// seeds the per-channel predictor state from the block headers.
func (d *ADPCMDecoder) loadBlock() error {
	specs := &d.reader.specs
	blockAlign := uint32(specs.ADPCMBlockAlign)
	offset := d.frameIndex / uint32(specs.ADPCMSamplesPerBlock) * blockAlign

	data := d.reader.data
	if uint64(offset)+uint64(blockAlign) > uint64(len(data)) {
		return fmt.Errorf("block at offset %d: %w", offset, ErrBlockLengthMismatch)
	}

	d.block = data[offset : offset+blockAlign]

	numChannels := int(specs.NumChannels)
	for ch := 0; ch < numChannels; ch++ {
		header := d.block[ch*adpcmHeaderSize : (ch+1)*adpcmHeaderSize]

		index := int8(header[2])
		if index < 0 || index > adpcmMaxStepIndex {
			return fmt.Errorf("step table index %d: %w", index, ErrBlockLengthMismatch)
		}

		d.lastPredicted[ch] = int16(binary.LittleEndian.Uint16(header[0:2]))
		d.stepIndex[ch] = index
		// header[3] is reserved
		d.queues[ch].reset()
	}

	d.dataOffset = numChannels * adpcmHeaderSize

	return nil
}

// refillQueues unpacks the next data word of every channel into its
// pending-code queue.
func (d *ADPCMDecoder) refillQueues() error {
	numChannels := int(d.reader.specs.NumChannels)

	for ch := 0; ch < numChannels; ch++ {
		if d.dataOffset+adpcmDataWordSize > len(d.block) {
			return fmt.Errorf("data word at offset %d: %w", d.dataOffset, ErrBlockLengthMismatch)
		}

		d.queues[ch].fill(d.block[d.dataOffset : d.dataOffset+adpcmDataWordSize])
		d.dataOffset += adpcmDataWordSize
	}

	return nil
}
