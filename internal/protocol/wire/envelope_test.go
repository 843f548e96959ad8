package wire

import (
	"bytes"
	"testing"
)

func encodeRequest(t *testing.T, tag string, cid uint32, body func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteString(&buf, tag); err != nil {
		t.Fatal(err)
	}
	if err := WriteUint32(&buf, cid); err != nil {
		t.Fatal(err)
	}
	if body != nil {
		if err := body(&buf); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestDecodeEnvelope(t *testing.T) {
	frame := encodeRequest(t, TagGetAllTables, 7, func(buf *bytes.Buffer) error {
		return WriteInt32(buf, 99)
	})

	env, err := DecodeEnvelope(frame)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.Tag != TagGetAllTables {
		t.Errorf("tag = %q, want %q", env.Tag, TagGetAllTables)
	}
	if env.CorrelationID != 7 {
		t.Errorf("correlation id = %d, want 7", env.CorrelationID)
	}

	v, err := DecodeInt32(bytes.NewReader(env.Body))
	if err != nil || v != 99 {
		t.Errorf("body decode = %d, %v", v, err)
	}
}

func TestDecodeEnvelope_EmptyTag(t *testing.T) {
	frame := encodeRequest(t, "", 1, nil)
	if _, err := DecodeEnvelope(frame); err == nil {
		t.Error("expected error for empty action tag")
	}
}

func TestDecodeEnvelope_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, TagLogin); err != nil {
		t.Fatal(err)
	}
	// Missing correlation id.
	if _, err := DecodeEnvelope(buf.Bytes()); err == nil {
		t.Error("expected error for truncated envelope")
	}
}

func TestEncodeOKDecodeResponse(t *testing.T) {
	frame, err := EncodeOK(TagLogin, 3, func(buf *bytes.Buffer) error {
		return WriteString(buf, "MEMBER")
	})
	if err != nil {
		t.Fatalf("EncodeOK: %v", err)
	}

	resp, err := DecodeResponse(frame)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.Tag != TagLogin || resp.CorrelationID != 3 || resp.Arm != ArmOK {
		t.Errorf("header = %q/%d/%d", resp.Tag, resp.CorrelationID, resp.Arm)
	}
	if resp.IsPush() {
		t.Error("reply with nonzero correlation id must not be a push")
	}

	role, err := DecodeString(bytes.NewReader(resp.Body))
	if err != nil || role != "MEMBER" {
		t.Errorf("body = %q, %v", role, err)
	}
}

func TestEncodeErrorDecodeResponse(t *testing.T) {
	frame, err := EncodeError(TagCreateOrder, 12, "TABLE_UNAVAILABLE", "no table fits the party")
	if err != nil {
		t.Fatalf("EncodeError: %v", err)
	}

	resp, err := DecodeResponse(frame)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.Arm != ArmError {
		t.Fatalf("arm = %d, want ArmError", resp.Arm)
	}
	if resp.ErrCode != "TABLE_UNAVAILABLE" {
		t.Errorf("code = %q", resp.ErrCode)
	}
	if resp.ErrMessage != "no table fits the party" {
		t.Errorf("message = %q", resp.ErrMessage)
	}
}

func TestEncodeNull(t *testing.T) {
	frame, err := EncodeNull(TagGetOrderByCode, 5)
	if err != nil {
		t.Fatalf("EncodeNull: %v", err)
	}

	resp, err := DecodeResponse(frame)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if resp.Arm != ArmNull {
		t.Errorf("arm = %d, want ArmNull", resp.Arm)
	}
	if len(resp.Body) != 0 {
		t.Errorf("null response carries %d body bytes", len(resp.Body))
	}
}

func TestEncodePush(t *testing.T) {
	frame, err := EncodePush(TagServerNotification, func(buf *bytes.Buffer) error {
		return WriteString(buf, "your table is ready")
	})
	if err != nil {
		t.Fatalf("EncodePush: %v", err)
	}

	resp, err := DecodeResponse(frame)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if !resp.IsPush() {
		t.Error("expected push correlation id")
	}
	if resp.Tag != TagServerNotification {
		t.Errorf("tag = %q", resp.Tag)
	}
}

func TestDecodeResponse_UnknownArm(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, TagLogin); err != nil {
		t.Fatal(err)
	}
	if err := WriteUint32(&buf, 1); err != nil {
		t.Fatal(err)
	}
	if err := WriteUint32(&buf, 9); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeResponse(buf.Bytes()); err == nil {
		t.Error("expected error for unknown union arm")
	}
}
