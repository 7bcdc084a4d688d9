package chunk

import (
	"bytes"
	"testing"
)

func roundTrip(t *testing.T, n int) []byte {
	t.Helper()
	payload := bytes.Repeat([]byte{0xAB}, n)

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.EndMessage(); err != nil {
		t.Fatalf("end message: %v", err)
	}

	r := NewReader(&buf)
	got, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch for n=%d: got %d bytes, want %d", n, len(got), len(payload))
	}
	return got
}

func TestChunkRoundTripSizes(t *testing.T) {
	for _, n := range []int{0, 1, MaxChunkSize - 1, MaxChunkSize, MaxChunkSize + 1, 2 * MaxChunkSize} {
		roundTrip(t, n)
	}
}

func TestSingleFullChunkUsesOneFrame(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01}, MaxChunkSize)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, _ = w.Write(payload)
	_ = w.EndMessage()

	// header(2) + payload + end marker(2)
	want := 2 + MaxChunkSize + 2
	if buf.Len() != want {
		t.Fatalf("buffered bytes = %d, want %d", buf.Len(), want)
	}
}

func TestTwoMessagesDoNotShareAChunkSequence(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, _ = w.Write([]byte("first"))
	_ = w.EndMessage()
	_, _ = w.Write([]byte("second"))
	_ = w.EndMessage()

	r := NewReader(&buf)
	first, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	if string(first) != "first" {
		t.Fatalf("first = %q", first)
	}
	second, err := r.ReadMessage()
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if string(second) != "second" {
		t.Fatalf("second = %q", second)
	}
}

func TestReadMessageSurfacesShortRead(t *testing.T) {
	// A length header claiming more content than is actually present.
	buf := bytes.NewBuffer([]byte{0x00, 0x05, 0x01, 0x02})
	r := NewReader(buf)
	if _, err := r.ReadMessage(); err == nil {
		t.Fatal("expected error on truncated chunk content")
	}
}
