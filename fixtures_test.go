package pcm

import (
	"encoding/binary"
	"math"
	"testing"
)

type testChunk struct {
	id      string
	payload []byte
}

// wavFile assembles a RIFF/WAVE image with a consistent declared size.
func wavFile(chunks ...testChunk) []byte {
	body := []byte("WAVE")
	for _, c := range chunks {
		body = append(body, c.id...)
		body = binary.LittleEndian.AppendUint32(body, uint32(len(c.payload)))
		body = append(body, c.payload...)
	}

	file := []byte("RIFF")
	file = binary.LittleEndian.AppendUint32(file, uint32(len(body)))

	return append(file, body...)
}

// aiffFile assembles a FORM image with a consistent declared size.
// formType is "AIFF" or "AIFC".
func aiffFile(formType string, chunks ...testChunk) []byte {
	body := []byte(formType)
	for _, c := range chunks {
		body = append(body, c.id...)
		body = binary.BigEndian.AppendUint32(body, uint32(len(c.payload)))
		body = append(body, c.payload...)
	}

	file := []byte("FORM")
	file = binary.BigEndian.AppendUint32(file, uint32(len(body)))

	return append(file, body...)
}

func fmtChunkPayload(formatTag, channels uint16, sampleRate uint32, blockAlign, bitDepth uint16, extra []byte) []byte {
	out := binary.LittleEndian.AppendUint16(nil, formatTag)
	out = binary.LittleEndian.AppendUint16(out, channels)
	out = binary.LittleEndian.AppendUint32(out, sampleRate)
	out = binary.LittleEndian.AppendUint32(out, sampleRate*uint32(blockAlign))
	out = binary.LittleEndian.AppendUint16(out, blockAlign)
	out = binary.LittleEndian.AppendUint16(out, bitDepth)

	return append(out, extra...)
}

func adpcmFmtPayload(channels uint16, sampleRate uint32, blockAlign, samplesPerBlock uint16) []byte {
	extra := binary.LittleEndian.AppendUint16(nil, 2)
	extra = binary.LittleEndian.AppendUint16(extra, samplesPerBlock)

	return fmtChunkPayload(0x11, channels, sampleRate, blockAlign, 4, extra)
}

// extended48000 is 48000.0 as an 80-bit extended float.
var extended48000 = [10]byte{0x40, 0x0E, 0xBB, 0x80, 0, 0, 0, 0, 0, 0}

func commChunkPayload(channels uint16, numFrames uint32, bitDepth uint16, rate [10]byte, compressionType string) []byte {
	out := binary.BigEndian.AppendUint16(nil, channels)
	out = binary.BigEndian.AppendUint32(out, numFrames)
	out = binary.BigEndian.AppendUint16(out, bitDepth)
	out = append(out, rate[:]...)

	return append(out, compressionType...)
}

func ssndChunkPayload(offset, blockSize uint32, data []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, offset)
	out = binary.BigEndian.AppendUint32(out, blockSize)

	return append(out, data...)
}

// sineValue is sample i of the reference tone: 440 Hz at -1 dBFS,
// 48 kHz, matching the sequence the decoder is validated against.
func sineValue(i int) float64 {
	amplitude := math.Pow(10, -1.0/20)

	return amplitude * math.Sin(2*math.Pi*440*float64(i)/48000)
}

func quantize(v float64, scale float64, max int64) int64 {
	q := int64(math.Round(v * scale))
	if q > max {
		q = max
	}

	if q < -max-1 {
		q = -max - 1
	}

	return q
}

func sineInt16(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(quantize(sineValue(i), scalePCMInt16, 32767))
	}

	return out
}

func pcm16LEBytes(samples []int16) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}

	return out
}

func pcm16BEBytes(samples []int16) []byte {
	out := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		out = binary.BigEndian.AppendUint16(out, uint16(s))
	}

	return out
}

func sinePCM24LEBytes(n int) []byte {
	out := make([]byte, 0, 3*n)
	for i := 0; i < n; i++ {
		q := uint32(int32(quantize(sineValue(i), scalePCMInt24, 8388607)))
		out = append(out, byte(q), byte(q>>8), byte(q>>16))
	}

	return out
}

func sinePCM24BEBytes(n int) []byte {
	out := make([]byte, 0, 3*n)
	for i := 0; i < n; i++ {
		q := uint32(int32(quantize(sineValue(i), scalePCMInt24, 8388607)))
		out = append(out, byte(q>>16), byte(q>>8), byte(q))
	}

	return out
}

func sinePCM32LEBytes(n int) []byte {
	out := make([]byte, 0, 4*n)
	for i := 0; i < n; i++ {
		q := int32(quantize(sineValue(i), scalePCMInt32, 2147483647))
		out = binary.LittleEndian.AppendUint32(out, uint32(q))
	}

	return out
}

func sineFloat32LEBytes(n int) []byte {
	out := make([]byte, 0, 4*n)
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(float32(sineValue(i))))
	}

	return out
}

func sineFloat32BEBytes(n int) []byte {
	out := make([]byte, 0, 4*n)
	for i := 0; i < n; i++ {
		out = binary.BigEndian.AppendUint32(out, math.Float32bits(float32(sineValue(i))))
	}

	return out
}

func sineFloat64LEBytes(n int) []byte {
	out := make([]byte, 0, 8*n)
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(sineValue(i)))
	}

	return out
}

// sineWAV16 builds a complete mono 16-bit 48 kHz WAV of the reference
// tone.
func sineWAV16(n int) []byte {
	return wavFile(
		testChunk{"fmt ", fmtChunkPayload(1, 1, 48000, 2, 16, nil)},
		testChunk{"data", pcm16LEBytes(sineInt16(n))},
	)
}

// sineFirst10 is the expected head of the reference tone, from the
// original validation recordings.
var sineFirst10 = [10]float32{
	0,
	0.05130394,
	0.10243774,
	0.15323183,
	0.20351772,
	0.2531287,
	0.3019002,
	0.34967047,
	0.39628112,
	0.44157755,
}

const float32Eps = 1.1920929e-07

func assertSampleClose(t *testing.T, got, want, eps float32) {
	t.Helper()

	diff := got - want
	if diff < 0 {
		diff = -diff
	}

	if diff > eps {
		t.Fatalf("got %v, want %v (eps %v)", got, want, eps)
	}
}

// adpcmBlock assembles one IMA-ADPCM block: a 4-byte header per channel
// followed by the packed data bytes.
func adpcmBlock(headers [][3]int, data []byte) []byte {
	var out []byte
	for _, h := range headers {
		out = binary.LittleEndian.AppendUint16(out, uint16(int16(h[0])))
		out = append(out, byte(int8(h[1])), byte(h[2]))
	}

	return append(out, data...)
}
