// Package wire implements the TCP wire protocol: record-marked frames
// carrying XDR-encoded envelopes (RFC 4506 serialization, RFC 5531 style
// record marking). Requests are decoded with go-xdr; responses are
// hand-encoded so nullable fields and unions stay explicit.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// MaxMessageSize bounds a reassembled message. Nothing in the protocol
// legitimately approaches this; larger frames indicate a broken or hostile
// peer.
const MaxMessageSize = 1 * 1024 * 1024

// lastFragmentFlag marks the final fragment in the 4-byte record mark; the
// low 31 bits carry the fragment length.
const lastFragmentFlag = 0x80000000

// bufPool recycles encode buffers across replies.
var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// GetBuffer returns a reset buffer from the pool.
func GetBuffer() *bytes.Buffer {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool. Oversized buffers are dropped so
// one huge reply does not pin memory forever.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > MaxMessageSize {
		return
	}
	bufPool.Put(buf)
}

// ReadFrame reads one record-marked message, reassembling fragments until
// the last-fragment bit is seen. The total size is capped at MaxMessageSize.
func ReadFrame(r io.Reader) ([]byte, error) {
	var message []byte
	for {
		var header [4]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			return nil, err
		}
		mark := binary.BigEndian.Uint32(header[:])
		last := mark&lastFragmentFlag != 0
		length := mark &^ lastFragmentFlag

		if int(length)+len(message) > MaxMessageSize {
			return nil, fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
		}

		fragment := make([]byte, length)
		if _, err := io.ReadFull(r, fragment); err != nil {
			return nil, fmt.Errorf("read fragment: %w", err)
		}
		message = append(message, fragment...)

		if last {
			return message, nil
		}
	}
}

// WriteFrame writes a message as a single record-marked fragment.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload))|lastFragmentFlag)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write record mark: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}
