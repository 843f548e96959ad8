package wire

import (
	"bytes"
	"testing"
)

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		encoded int // total encoded length including padding
	}{
		{"empty", "", 4},
		{"one byte pads to four", "a", 8},
		{"aligned needs no padding", "abcd", 8},
		{"five bytes pads to eight", "abcde", 12},
		{"utf8", "caffè", 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteString(&buf, tt.value); err != nil {
				t.Fatalf("WriteString: %v", err)
			}
			if buf.Len() != tt.encoded {
				t.Errorf("encoded length = %d, want %d", buf.Len(), tt.encoded)
			}

			got, err := DecodeString(&buf)
			if err != nil {
				t.Fatalf("DecodeString: %v", err)
			}
			if got != tt.value {
				t.Errorf("got %q, want %q", got, tt.value)
			}
		})
	}
}

func TestOpaqueRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUint32(&buf, MaxMessageSize+1); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeOpaque(&buf); err == nil {
		t.Error("expected error for oversized opaque length")
	}
}

func TestNumericRoundTrips(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteUint32(&buf, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := WriteInt32(&buf, -42); err != nil {
		t.Fatal(err)
	}
	if err := WriteInt64(&buf, -1<<40); err != nil {
		t.Fatal(err)
	}
	if err := WriteBool(&buf, true); err != nil {
		t.Fatal(err)
	}
	if err := WriteFloat64(&buf, 123.25); err != nil {
		t.Fatal(err)
	}

	if v, err := DecodeUint32(&buf); err != nil || v != 0xDEADBEEF {
		t.Errorf("DecodeUint32 = %#x, %v", v, err)
	}
	if v, err := DecodeInt32(&buf); err != nil || v != -42 {
		t.Errorf("DecodeInt32 = %d, %v", v, err)
	}
	if v, err := DecodeInt64(&buf); err != nil || v != -1<<40 {
		t.Errorf("DecodeInt64 = %d, %v", v, err)
	}
	if v, err := DecodeBool(&buf); err != nil || !v {
		t.Errorf("DecodeBool = %v, %v", v, err)
	}
	if v, err := DecodeFloat64(&buf); err != nil || v != 123.25 {
		t.Errorf("DecodeFloat64 = %v, %v", v, err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected buffer fully consumed, %d bytes left", buf.Len())
	}
}
