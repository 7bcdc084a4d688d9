package packstream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

func encodeToBytes(t *testing.T, v value.Value, ver dispatch.Version) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, v, ver); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestIntegerSmallestForm(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want []byte
	}{
		{"tiny positive max", 127, []byte{0x7F}},
		{"tiny positive 1", 1, []byte{0x01}},
		{"tiny negative min", -16, []byte{0xF0}},
		{"just above int8 range", 128, []byte{0xC9, 0x00, 0x80}},
		{"just below tiny range", -17, []byte{0xC8, 0xEF}},
		{"int16 boundary", 32_767, []byte{0xC9, 0x7F, 0xFF}},
		{"int32 boundary", 32_768, []byte{0xCA, 0x00, 0x00, 0x80, 0x00}},
		{"int32 max", 2_147_483_647, []byte{0xCA, 0x7F, 0xFF, 0xFF, 0xFF}},
		{"int64 max", 9_223_372_036_854_775_807, []byte{0xCB, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := encodeToBytes(t, value.Int(tc.in), dispatch.V3)
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("encode(%d) = % X, want % X", tc.in, got, tc.want)
			}
		})
	}
}

func TestRoundTripIntegers(t *testing.T) {
	for _, i := range []int64{-17, -16, 0, 1, 127, 128, -129, 32767, 32768, 2147483647, 9223372036854775807, -9223372036854775808} {
		b := encodeToBytes(t, value.Int(i), dispatch.V3)
		got, consumed, err := Decode(b, dispatch.V3)
		if err != nil {
			t.Fatalf("decode(%d): %v", i, err)
		}
		if consumed != len(b) {
			t.Fatalf("decode(%d): consumed %d, want %d", i, consumed, len(b))
		}
		gi, ok := got.AsInt()
		if !ok || gi != i {
			t.Fatalf("decode(%d) = %v", i, got)
		}
	}
}

func TestStringBoundaries(t *testing.T) {
	for _, n := range []int{0, 15, 16, 255, 256, 65_535, 65_536} {
		s := strings.Repeat("a", n)
		b := encodeToBytes(t, value.String(s), dispatch.V3)
		got, consumed, err := Decode(b, dispatch.V3)
		if err != nil {
			t.Fatalf("decode len=%d: %v", n, err)
		}
		if consumed != len(b) {
			t.Fatalf("decode len=%d: consumed %d, want %d", n, consumed, len(b))
		}
		gs, ok := got.AsString()
		if !ok || gs != s {
			t.Fatalf("decode len=%d: mismatch", n)
		}
		switch {
		case n <= 15:
			if b[0] != tinyStringBase|byte(n) {
				t.Fatalf("len=%d expected tiny string marker, got 0x%02x", n, b[0])
			}
		case n <= 255:
			if b[0] != markerString8 {
				t.Fatalf("len=%d expected string8 marker, got 0x%02x", n, b[0])
			}
		case n <= 65535:
			if b[0] != markerString16 {
				t.Fatalf("len=%d expected string16 marker, got 0x%02x", n, b[0])
			}
		default:
			if b[0] != markerString32 {
				t.Fatalf("len=%d expected string32 marker, got 0x%02x", n, b[0])
			}
		}
	}
}

func TestListAndMapBoundaries(t *testing.T) {
	for _, n := range []int{0, 15, 16, 256} {
		items := make([]value.Value, n)
		for i := range items {
			items[i] = value.Int(int64(i))
		}
		b := encodeToBytes(t, value.List(items), dispatch.V3)
		got, consumed, err := Decode(b, dispatch.V3)
		if err != nil {
			t.Fatalf("list n=%d: %v", n, err)
		}
		if consumed != len(b) {
			t.Fatalf("list n=%d: consumed %d want %d", n, consumed, len(b))
		}
		gl, ok := got.AsList()
		if !ok || len(gl) != n {
			t.Fatalf("list n=%d: got %v", n, got)
		}

		m := value.NewMap()
		for i := 0; i < n; i++ {
			m.Set(strings.Repeat("k", i+1), value.Int(int64(i)))
		}
		mb := encodeToBytes(t, value.MapValue(m), dispatch.V3)
		gotM, consumedM, err := Decode(mb, dispatch.V3)
		if err != nil {
			t.Fatalf("map n=%d: %v", n, err)
		}
		if consumedM != len(mb) {
			t.Fatalf("map n=%d: consumed %d want %d", n, consumedM, len(mb))
		}
		gm, ok := gotM.AsMap()
		if !ok || gm.Len() != n {
			t.Fatalf("map n=%d: got %v", n, gotM)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := value.Duration{Months: 13, Days: 11, Seconds: 46_941, Nanos: 554}
	b := encodeToBytes(t, value.DurationValue(d), dispatch.V3)

	wantHeader := []byte{tinyStructBase | 4, SigDuration}
	if !bytes.HasPrefix(b, wantHeader) {
		t.Fatalf("duration header = % X, want prefix % X", b, wantHeader)
	}

	got, consumed, err := Decode(b, dispatch.V3)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(b) {
		t.Fatalf("consumed %d want %d", consumed, len(b))
	}
	gd, ok := got.AsDuration()
	if !ok || gd != d {
		t.Fatalf("got %+v want %+v", gd, d)
	}
}

func TestTemporalForbiddenBelowV2(t *testing.T) {
	d := value.DurationValue(value.Duration{Seconds: 1})
	if err := Encode(&bytes.Buffer{}, d, dispatch.V1); err == nil {
		t.Fatal("expected EncodeError for Duration at v1")
	}
	var encErr EncodeError
	if err := Encode(&bytes.Buffer{}, d, dispatch.V1); err != nil {
		if !asEncodeError(err, &encErr) {
			t.Fatalf("expected EncodeError, got %T: %v", err, err)
		}
	}
}

func asEncodeError(err error, target *EncodeError) bool {
	e, ok := err.(EncodeError)
	if ok {
		*target = e
	}
	return ok
}

func TestDecodeUnknownSignatureBelowV2IsProtocolError(t *testing.T) {
	b := encodeToBytes(t, value.DurationValue(value.Duration{Seconds: 1}), dispatch.V3)
	_, _, err := Decode(b, dispatch.V1)
	if err == nil {
		t.Fatal("expected error decoding temporal struct at v1")
	}
	if _, ok := err.(UnknownSignatureError); !ok {
		t.Fatalf("expected UnknownSignatureError, got %T: %v", err, err)
	}
}

func TestMapKeysAreStringsByConstruction(t *testing.T) {
	// Map is string-keyed by construction in this package's type system;
	// the invariant is enforced structurally rather than at runtime.
	m := value.NewMap()
	m.Set("ok", value.Int(1))
	if _, _, err := Decode(encodeToBytes(t, value.MapValue(m), dispatch.V3), dispatch.V3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeterministicEncode(t *testing.T) {
	v := value.List([]value.Value{value.String("a"), value.Int(42), value.Bool(true)})
	a := encodeToBytes(t, v, dispatch.V3)
	b := encodeToBytes(t, v, dispatch.V3)
	if !bytes.Equal(a, b) {
		t.Fatalf("encode not deterministic: % X vs % X", a, b)
	}
}

func TestTruncatedInputIsDecodeError(t *testing.T) {
	full := encodeToBytes(t, value.String("hello world"), dispatch.V3)
	_, _, err := Decode(full[:len(full)-1], dispatch.V3)
	if err == nil {
		t.Fatal("expected decode error on truncated input")
	}
	if _, ok := err.(DecodeError); !ok {
		t.Fatalf("expected DecodeError, got %T", err)
	}
}

func TestUnknownMarkerIsDecodeError(t *testing.T) {
	_, _, err := Decode([]byte{0xC6}, dispatch.V3)
	if err == nil {
		t.Fatal("expected decode error for unknown marker")
	}
	if _, ok := err.(DecodeError); !ok {
		t.Fatalf("expected DecodeError, got %T", err)
	}
}
