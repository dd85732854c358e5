package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxFrameBytes is the hard ceiling on a single frame's declared payload
// length. Larger frames are treated as malformed and skipped.
const MaxFrameBytes = 10 * 1024 * 1024

// headerLen is the size of the big-endian length prefix.
const headerLen = 4

// ErrFrameTooLarge reports a frame whose declared length exceeds
// MaxFrameBytes. The oversized payload is discarded as it arrives;
// decoding resumes with the next frame.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

// Decoder accumulates raw bytes from the transport and drains complete
// frames out of them. It owns its byte arena; slices returned by Feed are
// copies and remain valid after subsequent calls.
//
// Decoder is not safe for concurrent use. The read loop is its single
// owner.
type Decoder struct {
	buf     []byte
	discard int // remaining bytes of an oversized payload to drop
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk of transport bytes and returns every complete
// frame payload now available. A frame that declares a length beyond
// MaxFrameBytes yields ErrFrameTooLarge alongside any payloads decoded
// before it; its bytes are skipped and later frames decode normally.
func (d *Decoder) Feed(p []byte) ([][]byte, error) {
	d.buf = append(d.buf, p...)

	var frames [][]byte
	var tooLarge bool

	for {
		// Finish discarding an oversized payload before reading headers.
		if d.discard > 0 {
			n := min(d.discard, len(d.buf))
			d.buf = d.buf[n:]
			d.discard -= n
			if d.discard > 0 {
				break
			}
		}

		if len(d.buf) < headerLen {
			break
		}
		declared := int(binary.BigEndian.Uint32(d.buf[:headerLen]))
		if declared > MaxFrameBytes {
			tooLarge = true
			d.buf = d.buf[headerLen:]
			d.discard = declared
			continue
		}
		if len(d.buf) < headerLen+declared {
			break
		}

		payload := make([]byte, declared)
		copy(payload, d.buf[headerLen:headerLen+declared])
		frames = append(frames, payload)
		d.buf = d.buf[headerLen+declared:]
	}

	// Release the arena once fully drained so a large burst does not pin
	// its backing array for the process lifetime.
	if len(d.buf) == 0 {
		d.buf = nil
	}

	if tooLarge {
		return frames, ErrFrameTooLarge
	}
	return frames, nil
}

// Buffered reports how many bytes are pending in the arena. Used by
// tests and idle diagnostics.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// EncodeFrame wraps a payload in the 4-byte big-endian length prefix.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxFrameBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	out := make([]byte, headerLen+len(payload))
	binary.BigEndian.PutUint32(out[:headerLen], uint32(len(payload)))
	copy(out[headerLen:], payload)
	return out, nil
}
