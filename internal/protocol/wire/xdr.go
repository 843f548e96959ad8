package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Primitive XDR codecs per RFC 4506. Everything is big-endian and 4-byte
// aligned; variable-length data carries a uint32 length followed by 0-3
// zero padding bytes.

// DecodeOpaque reads variable-length opaque data: length, bytes, padding.
func DecodeOpaque(r io.Reader) ([]byte, error) {
	length, err := DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("opaque length %d exceeds maximum %d", length, MaxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	// Padding is at most 3 bytes; a stack buffer avoids io.CopyN.
	padding := (4 - (length % 4)) % 4
	if padding > 0 {
		var pad [3]byte
		if _, err := io.ReadFull(r, pad[:padding]); err != nil {
			return nil, fmt.Errorf("skip padding: %w", err)
		}
	}
	return data, nil
}

// DecodeString reads an XDR string (opaque interpreted as UTF-8).
func DecodeString(r io.Reader) (string, error) {
	data, err := DecodeOpaque(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeUint32 reads a big-endian unsigned 32-bit integer.
func DecodeUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// DecodeInt32 reads a big-endian signed 32-bit integer.
func DecodeInt32(r io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// DecodeInt64 reads a big-endian signed hyper integer.
func DecodeInt64(r io.Reader) (int64, error) {
	var v int64
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// DecodeBool reads an XDR boolean (uint32, 0 is false).
func DecodeBool(r io.Reader) (bool, error) {
	v, err := DecodeUint32(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// DecodeFloat64 reads an XDR double-precision float.
func DecodeFloat64(r io.Reader) (float64, error) {
	var bits uint64
	if err := binary.Read(r, binary.BigEndian, &bits); err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// WriteOpaque writes variable-length opaque data: length, bytes, padding.
func WriteOpaque(buf *bytes.Buffer, data []byte) error {
	length := uint32(len(data))
	if err := WriteUint32(buf, length); err != nil {
		return err
	}
	if _, err := buf.Write(data); err != nil {
		return err
	}
	return writePadding(buf, length)
}

// WriteString writes an XDR string.
func WriteString(buf *bytes.Buffer, s string) error {
	length := uint32(len(s))
	if err := WriteUint32(buf, length); err != nil {
		return err
	}
	if _, err := buf.WriteString(s); err != nil {
		return err
	}
	return writePadding(buf, length)
}

func writePadding(buf *bytes.Buffer, dataLen uint32) error {
	padding := (4 - (dataLen % 4)) % 4
	for i := uint32(0); i < padding; i++ {
		if err := buf.WriteByte(0); err != nil {
			return err
		}
	}
	return nil
}

// WriteUint32 writes a big-endian unsigned 32-bit integer.
func WriteUint32(buf *bytes.Buffer, v uint32) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func WriteInt32(buf *bytes.Buffer, v int32) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteInt64 writes a big-endian signed hyper integer.
func WriteInt64(buf *bytes.Buffer, v int64) error {
	return binary.Write(buf, binary.BigEndian, v)
}

// WriteBool writes an XDR boolean as uint32 0 or 1.
func WriteBool(buf *bytes.Buffer, v bool) error {
	var val uint32
	if v {
		val = 1
	}
	return WriteUint32(buf, val)
}

// WriteFloat64 writes an XDR double-precision float.
func WriteFloat64(buf *bytes.Buffer, v float64) error {
	return binary.Write(buf, binary.BigEndian, math.Float64bits(v))
}
