// Package pcm decodes sample data from WAV (RIFF) and AIFF (FORM) audio
// containers held entirely in memory.
//
// The package supports linear PCM (16/24/32-bit, either endianness), IEEE
// float (32/64-bit), and IMA-ADPCM 4-bit compressed audio. All parsing
// operates on windows into the caller's byte slice: the core performs no
// file I/O, allocates nothing after construction, and keeps memory
// statically bounded, which makes it usable on embedded targets where
// audio files are compiled into the binary.
//
// Reader exposes bounds-checked random access to linear PCM and IEEE
// float samples as normalized values in [-1.0, 1.0]. IMA-ADPCM streams
// are block-compressed and must be consumed sequentially through
// ADPCMDecoder.
package pcm
