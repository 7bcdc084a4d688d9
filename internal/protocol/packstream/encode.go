package packstream

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

const maxCollectionSize = 4_294_967_295 // largest count a 32-bit size field can carry
const maxStructFields = 65_535

// Encode writes v to w in PackStream wire format under the rules that
// apply to the negotiated version ver. It picks the narrowest legal
// marker for every integer, string, list, map, and struct.
func Encode(w io.Writer, v value.Value, ver dispatch.Version) error {
	profile, err := dispatch.Lookup(ver)
	if err != nil {
		return encErr("%v", err)
	}

	switch v.Kind() {
	case value.KindNull:
		return writeByte(w, markerNull)
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return writeByte(w, markerTrue)
		}
		return writeByte(w, markerFalse)
	case value.KindInt:
		i, _ := v.AsInt()
		return encodeInt(w, i)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return encodeFloat(w, f)
	case value.KindString:
		s, _ := v.AsString()
		return encodeString(w, s)
	case value.KindList:
		items, _ := v.AsList()
		return encodeList(w, items, ver, profile)
	case value.KindMap:
		m, _ := v.AsMap()
		return encodeMap(w, m, ver, profile)
	case value.KindStruct:
		s, _ := v.AsStruct()
		return encodeStruct(w, s.Signature, s.Fields, ver, profile)
	case value.KindDate:
		if !profile.Temporal {
			return encErr("Date requires protocol version >= 2, got %d", ver)
		}
		d, _ := v.AsDate()
		return encodeStruct(w, SigDate, []value.Value{value.Int(d.Days)}, ver, profile)
	case value.KindLocalTime:
		if !profile.Temporal {
			return encErr("LocalTime requires protocol version >= 2, got %d", ver)
		}
		t, _ := v.AsLocalTime()
		return encodeStruct(w, SigLocalTime, []value.Value{value.Int(t.NanosOfDay)}, ver, profile)
	case value.KindLocalDateTime:
		if !profile.Temporal {
			return encErr("LocalDateTime requires protocol version >= 2, got %d", ver)
		}
		t, _ := v.AsLocalDateTime()
		return encodeStruct(w, SigLocalDateTime, []value.Value{value.Int(t.Seconds), value.Int(t.Nanos)}, ver, profile)
	case value.KindTimeWithZoneOffset:
		if !profile.Temporal {
			return encErr("TimeWithZoneOffset requires protocol version >= 2, got %d", ver)
		}
		t, _ := v.AsTimeWithZoneOffset()
		return encodeStruct(w, SigTimeWithZoneOffset, []value.Value{value.Int(t.NanosOfDay), value.Int(int64(t.OffsetSeconds))}, ver, profile)
	case value.KindDateTimeWithZoneOffset:
		if !profile.Temporal {
			return encErr("DateTimeWithZoneOffset requires protocol version >= 2, got %d", ver)
		}
		t, _ := v.AsDateTimeWithZoneOffset()
		return encodeStruct(w, SigDateTimeWithZoneOffset, []value.Value{value.Int(t.Seconds), value.Int(t.Nanos), value.Int(int64(t.OffsetSeconds))}, ver, profile)
	case value.KindDateTimeWithZoneId:
		if !profile.Temporal {
			return encErr("DateTimeWithZoneId requires protocol version >= 2, got %d", ver)
		}
		t, _ := v.AsDateTimeWithZoneId()
		return encodeStruct(w, SigDateTimeWithZoneId, []value.Value{value.Int(t.Seconds), value.Int(t.Nanos), value.String(t.ZoneID)}, ver, profile)
	case value.KindDuration:
		if !profile.Temporal {
			return encErr("Duration requires protocol version >= 2, got %d", ver)
		}
		d, _ := v.AsDuration()
		return encodeStruct(w, SigDuration, []value.Value{value.Int(d.Months), value.Int(d.Days), value.Int(d.Seconds), value.Int(d.Nanos)}, ver, profile)
	case value.KindPoint2D:
		if !profile.Spatial {
			return encErr("Point2D requires protocol version >= 2, got %d", ver)
		}
		p, _ := v.AsPoint2D()
		return encodeStruct(w, SigPoint2D, []value.Value{value.Int(int64(p.SRID)), value.Float(p.X), value.Float(p.Y)}, ver, profile)
	case value.KindPoint3D:
		if !profile.Spatial {
			return encErr("Point3D requires protocol version >= 2, got %d", ver)
		}
		p, _ := v.AsPoint3D()
		return encodeStruct(w, SigPoint3D, []value.Value{value.Int(int64(p.SRID)), value.Float(p.X), value.Float(p.Y), value.Float(p.Z)}, ver, profile)
	case value.KindNode, value.KindRelationship, value.KindUnboundRelationship, value.KindPath:
		return encErr("%s is decode-only and cannot be encoded", v.Kind())
	default:
		return encErr("unsupported value kind %s", v.Kind())
	}
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// encodeInt picks the narrowest legal form. The tiny form covers
// -16..=127 inclusive, not a symmetric range: positives ride the
// 0x00-0x7F markers directly while negatives get only the 0xF0-0xFF
// tail. The asymmetry is part of the wire format and must not be
// "corrected."
func encodeInt(w io.Writer, i int64) error {
	switch {
	case i >= -16 && i <= 127:
		return writeByte(w, byte(int8(i)))
	case i >= math.MinInt8 && i <= math.MaxInt8:
		return writeBytes(w, markerInt8, byte(int8(i)))
	case i >= math.MinInt16 && i <= math.MaxInt16:
		buf := make([]byte, 3)
		buf[0] = markerInt16
		binary.BigEndian.PutUint16(buf[1:], uint16(int16(i)))
		_, err := w.Write(buf)
		return err
	case i >= math.MinInt32 && i <= math.MaxInt32:
		buf := make([]byte, 5)
		buf[0] = markerInt32
		binary.BigEndian.PutUint32(buf[1:], uint32(int32(i)))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = markerInt64
		binary.BigEndian.PutUint64(buf[1:], uint64(i))
		_, err := w.Write(buf)
		return err
	}
}

func writeBytes(w io.Writer, marker byte, rest ...byte) error {
	buf := make([]byte, 0, 1+len(rest))
	buf = append(buf, marker)
	buf = append(buf, rest...)
	_, err := w.Write(buf)
	return err
}

func encodeFloat(w io.Writer, f float64) error {
	buf := make([]byte, 9)
	buf[0] = markerFloat
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	_, err := w.Write(buf)
	return err
}

func encodeString(w io.Writer, s string) error {
	b := []byte(s)
	n := len(b)
	if n > maxCollectionSize {
		return encErr("string of %d bytes exceeds max collection size", n)
	}
	if err := writeSizedHeader(w, n,
		tinyStringBase, 0x0F,
		markerString8, markerString16, markerString32); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

func encodeList(w io.Writer, items []value.Value, ver dispatch.Version, profile dispatch.Profile) error {
	n := len(items)
	if n > maxCollectionSize {
		return encErr("list of %d elements exceeds max collection size", n)
	}
	if err := writeSizedHeader(w, n,
		tinyListBase, 0x0F,
		markerList8, markerList16, markerList32); err != nil {
		return err
	}
	for _, item := range items {
		if err := Encode(w, item, ver); err != nil {
			return err
		}
	}
	return nil
}

func encodeMap(w io.Writer, m *value.Map, ver dispatch.Version, profile dispatch.Profile) error {
	n := m.Len()
	if n > maxCollectionSize {
		return encErr("map of %d entries exceeds max collection size", n)
	}
	if err := writeSizedHeader(w, n,
		tinyMapBase, 0x0F,
		markerMap8, markerMap16, markerMap32); err != nil {
		return err
	}
	for _, k := range m.Keys() {
		if err := encodeString(w, k); err != nil {
			return err
		}
		val, _ := m.Get(k)
		if err := Encode(w, val, ver); err != nil {
			return err
		}
	}
	return nil
}

func encodeStruct(w io.Writer, sig byte, fields []value.Value, ver dispatch.Version, profile dispatch.Profile) error {
	n := len(fields)
	if n > maxStructFields {
		return encErr("struct of %d fields exceeds max field count %d", n, maxStructFields)
	}
	if err := writeStructHeader(w, n); err != nil {
		return err
	}
	if err := writeByte(w, sig); err != nil {
		return err
	}
	for _, f := range fields {
		if err := Encode(w, f, ver); err != nil {
			return err
		}
	}
	return nil
}

// writeSizedHeader emits the narrowest marker whose size field can
// hold n.
func writeSizedHeader(w io.Writer, n int, tinyBase byte, tinyMaxNibble byte, m8, m16, m32 byte) error {
	switch {
	case n <= int(tinyMaxNibble):
		return writeByte(w, tinyBase|byte(n))
	case n <= math.MaxUint8:
		return writeBytes(w, m8, byte(n))
	case n <= math.MaxUint16:
		buf := make([]byte, 3)
		buf[0] = m16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 5)
		buf[0] = m32
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		_, err := w.Write(buf)
		return err
	}
}

func writeStructHeader(w io.Writer, n int) error {
	switch {
	case n <= 0x0F:
		return writeByte(w, tinyStructBase|byte(n))
	case n <= math.MaxUint8:
		return writeBytes(w, markerStruct8, byte(n))
	default:
		buf := make([]byte, 3)
		buf[0] = markerStruct16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		_, err := w.Write(buf)
		return err
	}
}
