package protocol

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestFrame_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 70000),
	}

	for _, p := range payloads {
		var buf bytes.Buffer
		buf.Write(EncodeFrame(p))

		out, err := ReadFrame(&buf, 0)
		if err != nil {
			t.Fatalf("ReadFrame(len=%d): %v", len(p), err)
		}
		if !bytes.Equal(out, p) {
			t.Errorf("round trip mismatch for len=%d", len(p))
		}
		if buf.Len() != 0 {
			t.Errorf("%d bytes left unconsumed", buf.Len())
		}
	}
}

func TestFrame_EmptyPayloadIsNotNil(t *testing.T) {
	out, err := ReadFrame(bytes.NewReader(EncodeFrame(nil)), 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("got %v, want empty non-nil slice", out)
	}
}

func TestFrame_HeaderIsBigEndian(t *testing.T) {
	got := EncodeFrame([]byte("abc"))
	want := []byte{0, 0, 0, 3, 'a', 'b', 'c'}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame = %v, want %v", got, want)
	}
}

func TestFrame_ShortReads(t *testing.T) {
	var stream []byte
	stream = AppendFrame(stream, []byte("first"))
	stream = AppendFrame(stream, []byte("second"))

	r := iotest.OneByteReader(bytes.NewReader(stream))
	for _, want := range []string{"first", "second"} {
		out, err := ReadFrame(r, 0)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if string(out) != want {
			t.Errorf("got %q, want %q", out, want)
		}
	}
}

func TestFrame_EOF(t *testing.T) {
	if _, err := ReadFrame(bytes.NewReader(nil), 0); err != io.EOF {
		t.Errorf("empty stream: expected io.EOF, got %v", err)
	}

	// Header only, payload missing.
	if _, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 5}), 0); err != io.ErrUnexpectedEOF {
		t.Errorf("header only: expected io.ErrUnexpectedEOF, got %v", err)
	}

	// Partial header.
	if _, err := ReadFrame(bytes.NewReader([]byte{0, 0}), 0); err != io.ErrUnexpectedEOF {
		t.Errorf("partial header: expected io.ErrUnexpectedEOF, got %v", err)
	}

	// Truncated payload.
	if _, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 5, 'h', 'i'}), 0); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated payload: expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestFrame_MaxPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeFrame([]byte("hi")))
	if _, err := ReadFrame(&buf, 5); err != nil {
		t.Fatalf("small payload: %v", err)
	}

	buf.Write(EncodeFrame(make([]byte, 100)))
	if _, err := ReadFrame(&buf, 5); err != ErrFrameTooLarge {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestMagicV2(t *testing.T) {
	if string(MagicV2[:]) != "  V2" {
		t.Errorf("MagicV2 = %q", MagicV2[:])
	}
}
