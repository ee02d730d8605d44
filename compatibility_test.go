package pcm_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/pcm"
)

func toneInts(n int) []int {
	amplitude := math.Pow(10, -1.0/20)

	out := make([]int, n)
	for i := range out {
		v := amplitude * math.Sin(2*math.Pi*440*float64(i)/48000)
		out[i] = int(math.Round(v * 32768))
		if out[i] > 32767 {
			out[i] = 32767
		}
	}

	return out
}

// Files produced by the go-audio encoders must parse and decode to the
// samples that were written.
func TestGoAudioWAVCompatibility(t *testing.T) {
	ints := toneInts(4800)
	path := filepath.Join(t.TempDir(), "tone.wav")

	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(out, 48000, 16, 1, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 48000},
		SourceBitDepth: 16,
		Data:           ints,
	}

	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	reader, err := pcm.NewReader(data)
	if err != nil {
		t.Fatal(err)
	}

	specs := reader.Specs()
	if specs.AudioFormat != pcm.LinearPCMLE || specs.SampleRate != 48000 || specs.BitDepth != 16 {
		t.Fatalf("unexpected specs: %s", specs)
	}

	if specs.NumSamples != 4800 {
		t.Fatalf("expected 4800 samples, got %d", specs.NumSamples)
	}

	for i, v := range ints {
		got, err := reader.ReadSample(0, uint32(i))
		if err != nil {
			t.Fatal(err)
		}

		want := float32(float64(v) / 32768)
		if got != want {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
	}
}

func TestGoAudioAIFFCompatibility(t *testing.T) {
	ints := toneInts(4800)
	path := filepath.Join(t.TempDir(), "tone.aiff")

	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := aiff.NewEncoder(out, 48000, 16, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 48000},
		SourceBitDepth: 16,
		Data:           ints,
	}

	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}

	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}

	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	reader, err := pcm.NewReader(data)
	if err != nil {
		t.Fatal(err)
	}

	specs := reader.Specs()
	if specs.AudioFormat != pcm.LinearPCMBE || specs.SampleRate != 48000 || specs.BitDepth != 16 {
		t.Fatalf("unexpected specs: %s", specs)
	}

	if specs.NumSamples != 4800 {
		t.Fatalf("expected 4800 samples, got %d", specs.NumSamples)
	}

	for i, v := range ints {
		got, err := reader.ReadSample(0, uint32(i))
		if err != nil {
			t.Fatal(err)
		}

		want := float32(float64(v) / 32768)
		if got != want {
			t.Fatalf("sample %d: got %v, want %v", i, got, want)
		}
	}
}
