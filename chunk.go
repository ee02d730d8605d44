package pcm

import (
	"encoding/binary"
	"fmt"
)

// maxChunks caps the number of chunks a container may declare. The list is
// a fixed array so parsing stays allocation-free no matter how many chunks
// a malformed file announces; overflowing the capacity is a construction
// error, not a truncation.
const maxChunks = 16

// chunk is a typed window into the caller's buffer. The payload aliases
// the input slice and must not outlive it.
type chunk struct {
	id   [4]byte
	size uint32
	data []byte
}

type chunkList struct {
	items [maxChunks]chunk
	n     int
}

func (l *chunkList) push(c chunk) error {
	if l.n == len(l.items) {
		return fmt.Errorf("more than %d chunks: %w", maxChunks, ErrTooManyChunks)
	}

	l.items[l.n] = c
	l.n++

	return nil
}

// walkChunks splits input into (tag, length, payload) chunks until the
// input is exhausted. Chunk lengths are read with the container's byte
// order. A payload reaching past the end of the buffer is a hard error.
func walkChunks(input []byte, order binary.ByteOrder, list *chunkList) error {
	if len(input) == 0 {
		return fmt.Errorf("no chunks: %w", ErrUnsupportedAudioFormat)
	}

	for len(input) > 0 {
		if len(input) < 8 {
			return fmt.Errorf("truncated chunk header: %w", ErrUnsupportedAudioFormat)
		}

		var id [4]byte
		copy(id[:], input[:4])

		size := order.Uint32(input[4:8])
		input = input[8:]

		if uint64(size) > uint64(len(input)) {
			return fmt.Errorf("chunk %q payload exceeds buffer: %w", id[:], ErrUnsupportedAudioFormat)
		}

		err := list.push(chunk{id: id, size: size, data: input[:size]})
		if err != nil {
			return err
		}

		input = input[size:]
	}

	return nil
}

// lowerID folds an ASCII four-byte tag to lower case for the
// case-insensitive WAV tag match.
func lowerID(id [4]byte) [4]byte {
	for i, b := range id {
		if b >= 'A' && b <= 'Z' {
			id[i] = b + 'a' - 'A'
		}
	}

	return id
}
