package wire

import (
	"bytes"
	"fmt"
)

// Envelope is the decoded header of an inbound request: the action tag, the
// client's correlation id, and the undecoded payload bytes.
type Envelope struct {
	Tag           string
	CorrelationID uint32
	Body          []byte
}

// DecodeEnvelope splits a frame into tag, correlation id and payload.
func DecodeEnvelope(frame []byte) (*Envelope, error) {
	r := bytes.NewReader(frame)
	tag, err := DecodeString(r)
	if err != nil {
		return nil, fmt.Errorf("decode tag: %w", err)
	}
	if tag == "" {
		return nil, fmt.Errorf("empty action tag")
	}
	cid, err := DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode correlation id: %w", err)
	}
	body := make([]byte, r.Len())
	copy(body, frame[len(frame)-r.Len():])
	return &Envelope{Tag: tag, CorrelationID: cid, Body: body}, nil
}

// BodyEncoder writes a response payload into the buffer.
type BodyEncoder func(buf *bytes.Buffer) error

// EncodeOK builds a success response: header, arm 0, then the payload.
// A nil encoder produces an empty payload.
func EncodeOK(tag string, cid uint32, encode BodyEncoder) ([]byte, error) {
	return encodeResponse(tag, cid, ArmOK, encode)
}

// EncodeError builds an error response: header, arm 1, error code and
// human-readable message.
func EncodeError(tag string, cid uint32, code, message string) ([]byte, error) {
	return encodeResponse(tag, cid, ArmError, func(buf *bytes.Buffer) error {
		if err := WriteString(buf, code); err != nil {
			return err
		}
		return WriteString(buf, message)
	})
}

// EncodeNull builds a null response: header, arm 2, no payload. Used where
// the protocol answers lookups with null rather than an error.
func EncodeNull(tag string, cid uint32) ([]byte, error) {
	return encodeResponse(tag, cid, ArmNull, nil)
}

// EncodePush builds a server-initiated message under the push correlation id.
func EncodePush(tag string, encode BodyEncoder) ([]byte, error) {
	return encodeResponse(tag, PushCorrelationID, ArmOK, encode)
}

func encodeResponse(tag string, cid uint32, arm uint32, encode BodyEncoder) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := WriteString(buf, tag); err != nil {
		return nil, err
	}
	if err := WriteUint32(buf, cid); err != nil {
		return nil, err
	}
	if err := WriteUint32(buf, arm); err != nil {
		return nil, err
	}
	if encode != nil {
		if err := encode(buf); err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", tag, err)
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// Response is a decoded reply envelope as seen by a client.
type Response struct {
	Tag           string
	CorrelationID uint32
	Arm           uint32
	// ErrCode and ErrMessage are set when Arm is ArmError.
	ErrCode    string
	ErrMessage string
	// Body holds the undecoded payload when Arm is ArmOK.
	Body []byte
}

// IsPush reports whether the response was server-initiated.
func (r *Response) IsPush() bool {
	return r.CorrelationID == PushCorrelationID
}

// DecodeResponse parses a reply frame. Client-side counterpart of
// encodeResponse, shared by the e2e harness.
func DecodeResponse(frame []byte) (*Response, error) {
	r := bytes.NewReader(frame)
	tag, err := DecodeString(r)
	if err != nil {
		return nil, fmt.Errorf("decode tag: %w", err)
	}
	cid, err := DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode correlation id: %w", err)
	}
	arm, err := DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("decode union arm: %w", err)
	}

	resp := &Response{Tag: tag, CorrelationID: cid, Arm: arm}
	switch arm {
	case ArmOK:
		resp.Body = make([]byte, r.Len())
		copy(resp.Body, frame[len(frame)-r.Len():])
	case ArmError:
		if resp.ErrCode, err = DecodeString(r); err != nil {
			return nil, fmt.Errorf("decode error code: %w", err)
		}
		if resp.ErrMessage, err = DecodeString(r); err != nil {
			return nil, fmt.Errorf("decode error message: %w", err)
		}
	case ArmNull:
	default:
		return nil, fmt.Errorf("unknown union arm %d", arm)
	}
	return resp, nil
}
