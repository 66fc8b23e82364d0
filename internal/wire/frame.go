package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize is the largest declared frame length accepted by
// ReadFrame. A peer that declares more is protocol-violating and its
// connection is dropped.
const MaxFrameSize = 16 * 1024 * 1024

// WriteFrame writes a u32 big-endian length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame. Rejects frames whose
// declared length exceeds MaxFrameSize before attempting to read the
// body, so a malicious length prefix cannot force an unbounded
// allocation.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("wire: frame of %d bytes exceeds %d byte ceiling", n, MaxFrameSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// WriteMessage encodes and frames m in one call.
func WriteMessage(w io.Writer, m Message) error {
	return WriteFrame(w, Encode(m))
}

// ReadMessage reads one frame and decodes it as a Message.
func ReadMessage(r io.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return Message{}, err
	}
	return Decode(payload)
}
