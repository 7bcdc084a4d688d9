package packstream

import (
	"encoding/binary"
	"math"

	"github.com/graphwire/boltcore/internal/protocol/dispatch"
	"github.com/graphwire/boltcore/internal/protocol/value"
)

// Decode reads one value from b starting at offset 0 and returns the
// value along with the number of bytes consumed. Structs recurse with
// the same cursor; there is no intermediate "flat value stream" to
// re-slice.
func Decode(b []byte, ver dispatch.Version) (value.Value, int, error) {
	profile, err := dispatch.Lookup(ver)
	if err != nil {
		return value.Value{}, 0, decErr("%v", err)
	}
	return decode(b, ver, profile)
}

func decode(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) == 0 {
		return value.Value{}, 0, decErr("insufficient bytes: need marker, have 0")
	}
	marker := b[0]

	switch {
	case marker == markerNull:
		return value.Null(), 1, nil
	case marker == markerTrue:
		return value.Bool(true), 1, nil
	case marker == markerFalse:
		return value.Bool(false), 1, nil
	case marker == markerFloat:
		if len(b) < 9 {
			return value.Value{}, 0, decErr("insufficient bytes for float: need 9, have %d", len(b))
		}
		bits := binary.BigEndian.Uint64(b[1:9])
		return value.Float(math.Float64frombits(bits)), 9, nil
	case isTinyInt(marker):
		return value.Int(int64(int8(marker))), 1, nil
	case marker == markerInt8:
		if len(b) < 2 {
			return value.Value{}, 0, decErr("insufficient bytes for int8")
		}
		return value.Int(int64(int8(b[1]))), 2, nil
	case marker == markerInt16:
		if len(b) < 3 {
			return value.Value{}, 0, decErr("insufficient bytes for int16")
		}
		return value.Int(int64(int16(binary.BigEndian.Uint16(b[1:3])))), 3, nil
	case marker == markerInt32:
		if len(b) < 5 {
			return value.Value{}, 0, decErr("insufficient bytes for int32")
		}
		return value.Int(int64(int32(binary.BigEndian.Uint32(b[1:5])))), 5, nil
	case marker == markerInt64:
		if len(b) < 9 {
			return value.Value{}, 0, decErr("insufficient bytes for int64")
		}
		return value.Int(int64(binary.BigEndian.Uint64(b[1:9]))), 9, nil
	case isTinyString(marker):
		return decodeString(b, int(marker&0x0F), 1)
	case marker == markerString8:
		return decodeSized8(b, decodeString)
	case marker == markerString16:
		return decodeSized16(b, decodeString)
	case marker == markerString32:
		return decodeSized32(b, decodeString)
	case isTinyList(marker):
		return decodeList(b, int(marker&0x0F), 1, ver, profile)
	case marker == markerList8:
		return decodeListSized8(b, ver, profile)
	case marker == markerList16:
		return decodeListSized16(b, ver, profile)
	case marker == markerList32:
		return decodeListSized32(b, ver, profile)
	case isTinyMap(marker):
		return decodeMap(b, int(marker&0x0F), 1, ver, profile)
	case marker == markerMap8:
		return decodeMapSized8(b, ver, profile)
	case marker == markerMap16:
		return decodeMapSized16(b, ver, profile)
	case marker == markerMap32:
		return decodeMapSized32(b, ver, profile)
	case isTinyStruct(marker):
		return decodeStruct(b, int(marker&0x0F), 1, ver, profile)
	case marker == markerStruct8:
		return decodeStructSized8(b, ver, profile)
	case marker == markerStruct16:
		return decodeStructSized16(b, ver, profile)
	default:
		return value.Value{}, 0, decErr("unknown marker byte 0x%02x", marker)
	}
}

func isTinyInt(m byte) bool {
	return m <= 0x7F || m >= 0xF0
}

func isTinyString(m byte) bool { return m >= tinyStringBase && m <= tinyStringMax }
func isTinyList(m byte) bool   { return m >= tinyListBase && m <= tinyListMax }
func isTinyMap(m byte) bool    { return m >= tinyMapBase && m <= tinyMapMax }
func isTinyStruct(m byte) bool { return m >= tinyStructBase && m <= tinyStructMax }

func decodeString(b []byte, n int, headerLen int) (value.Value, int, error) {
	if len(b) < headerLen+n {
		return value.Value{}, 0, decErr("insufficient bytes for string: need %d, have %d", headerLen+n, len(b))
	}
	return value.String(string(b[headerLen : headerLen+n])), headerLen + n, nil
}

func decodeSized8(b []byte, f func([]byte, int, int) (value.Value, int, error)) (value.Value, int, error) {
	if len(b) < 2 {
		return value.Value{}, 0, decErr("insufficient bytes for 8-bit size header")
	}
	return f(b, int(b[1]), 2)
}

func decodeSized16(b []byte, f func([]byte, int, int) (value.Value, int, error)) (value.Value, int, error) {
	if len(b) < 3 {
		return value.Value{}, 0, decErr("insufficient bytes for 16-bit size header")
	}
	return f(b, int(binary.BigEndian.Uint16(b[1:3])), 3)
}

func decodeSized32(b []byte, f func([]byte, int, int) (value.Value, int, error)) (value.Value, int, error) {
	if len(b) < 5 {
		return value.Value{}, 0, decErr("insufficient bytes for 32-bit size header")
	}
	return f(b, int(binary.BigEndian.Uint32(b[1:5])), 5)
}

func decodeList(b []byte, n int, headerLen int, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	// Every element takes at least one byte; a count the remaining input
	// cannot possibly satisfy is rejected before any allocation.
	if n > len(b)-headerLen {
		return value.Value{}, 0, decErr("insufficient bytes for list of %d elements", n)
	}
	offset := headerLen
	items := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		v, consumed, err := decode(b[offset:], ver, profile)
		if err != nil {
			return value.Value{}, 0, err
		}
		items = append(items, v)
		offset += consumed
	}
	return value.List(items), offset, nil
}

func decodeListSized8(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 2 {
		return value.Value{}, 0, decErr("insufficient bytes for list8 header")
	}
	return decodeList(b, int(b[1]), 2, ver, profile)
}

func decodeListSized16(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 3 {
		return value.Value{}, 0, decErr("insufficient bytes for list16 header")
	}
	return decodeList(b, int(binary.BigEndian.Uint16(b[1:3])), 3, ver, profile)
}

func decodeListSized32(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 5 {
		return value.Value{}, 0, decErr("insufficient bytes for list32 header")
	}
	return decodeList(b, int(binary.BigEndian.Uint32(b[1:5])), 5, ver, profile)
}

// decodeMap reads n consecutive key/value pairs. Duplicate keys take
// the last occurrence; Map.Set already implements overwrite-in-place.
func decodeMap(b []byte, n int, headerLen int, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if n > (len(b)-headerLen)/2 {
		return value.Value{}, 0, decErr("insufficient bytes for map of %d entries", n)
	}
	offset := headerLen
	m := value.NewMap()
	for i := 0; i < n; i++ {
		keyVal, consumed, err := decode(b[offset:], ver, profile)
		if err != nil {
			return value.Value{}, 0, err
		}
		offset += consumed
		key, ok := keyVal.AsString()
		if !ok {
			return value.Value{}, 0, decErr("map key decoded as non-string kind %s", keyVal.Kind())
		}
		v, consumed, err := decode(b[offset:], ver, profile)
		if err != nil {
			return value.Value{}, 0, err
		}
		offset += consumed
		m.Set(key, v)
	}
	return value.MapValue(m), offset, nil
}

func decodeMapSized8(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 2 {
		return value.Value{}, 0, decErr("insufficient bytes for map8 header")
	}
	return decodeMap(b, int(b[1]), 2, ver, profile)
}

func decodeMapSized16(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 3 {
		return value.Value{}, 0, decErr("insufficient bytes for map16 header")
	}
	return decodeMap(b, int(binary.BigEndian.Uint16(b[1:3])), 3, ver, profile)
}

func decodeMapSized32(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 5 {
		return value.Value{}, 0, decErr("insufficient bytes for map32 header")
	}
	return decodeMap(b, int(binary.BigEndian.Uint32(b[1:5])), 5, ver, profile)
}

func decodeStruct(b []byte, n int, headerLen int, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < headerLen+1 {
		return value.Value{}, 0, decErr("insufficient bytes for struct signature")
	}
	sig := b[headerLen]
	if n > len(b)-headerLen-1 {
		return value.Value{}, 0, decErr("insufficient bytes for struct of %d fields", n)
	}
	offset := headerLen + 1
	fields := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		v, consumed, err := decode(b[offset:], ver, profile)
		if err != nil {
			return value.Value{}, 0, err
		}
		fields = append(fields, v)
		offset += consumed
	}
	v, err := assembleStruct(sig, fields, profile)
	if err != nil {
		return value.Value{}, 0, err
	}
	return v, offset, nil
}

func decodeStructSized8(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 2 {
		return value.Value{}, 0, decErr("insufficient bytes for struct8 header")
	}
	return decodeStruct(b, int(b[1]), 2, ver, profile)
}

func decodeStructSized16(b []byte, ver dispatch.Version, profile dispatch.Profile) (value.Value, int, error) {
	if len(b) < 3 {
		return value.Value{}, 0, decErr("insufficient bytes for struct16 header")
	}
	return decodeStruct(b, int(binary.BigEndian.Uint16(b[1:3])), 3, ver, profile)
}

// assembleStruct classifies a decoded struct by signature into its
// domain variant. A recognized temporal/spatial signature offered below
// the version that introduced it is an UnknownSignatureError; the
// connection must be dropped. Any other signature this function does
// not interpret is returned as a generic Struct.
func assembleStruct(sig byte, fields []value.Value, profile dispatch.Profile) (value.Value, error) {
	requireTemporal := func() error {
		if !profile.Temporal {
			return UnknownSignatureError{Signature: sig}
		}
		return nil
	}
	switch sig {
	case SigDate:
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		days, err := needInt(fields, 0, "Date.days")
		if err != nil {
			return value.Value{}, err
		}
		return value.DateValue(value.Date{Days: days}), nil
	case SigLocalTime:
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		nanos, err := needInt(fields, 0, "LocalTime.nanos_of_day")
		if err != nil {
			return value.Value{}, err
		}
		return value.LocalTimeValue(value.LocalTime{NanosOfDay: nanos}), nil
	case SigLocalDateTime:
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		sec, nanos, err := needInt2(fields, "LocalDateTime")
		if err != nil {
			return value.Value{}, err
		}
		return value.LocalDateTimeValue(value.LocalDateTime{Seconds: sec, Nanos: nanos}), nil
	case SigTimeWithZoneOffset:
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		nanos, offset, err := needInt2(fields, "TimeWithZoneOffset")
		if err != nil {
			return value.Value{}, err
		}
		return value.TimeWithZoneOffsetValue(value.TimeWithZoneOffset{NanosOfDay: nanos, OffsetSeconds: int32(offset)}), nil
	case SigDateTimeWithZoneOffset:
		// Field count is exactly 3: [seconds, nanos, offset_seconds].
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		if len(fields) != 3 {
			return value.Value{}, decErr("DateTimeWithZoneOffset expects 3 fields, got %d", len(fields))
		}
		sec, err := needInt(fields, 0, "DateTimeWithZoneOffset.seconds")
		if err != nil {
			return value.Value{}, err
		}
		nanos, err := needInt(fields, 1, "DateTimeWithZoneOffset.nanos")
		if err != nil {
			return value.Value{}, err
		}
		offset, err := needInt(fields, 2, "DateTimeWithZoneOffset.offset_seconds")
		if err != nil {
			return value.Value{}, err
		}
		return value.DateTimeWithZoneOffsetValue(value.DateTimeWithZoneOffset{Seconds: sec, Nanos: nanos, OffsetSeconds: int32(offset)}), nil
	case SigDateTimeWithZoneId:
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		if len(fields) != 3 {
			return value.Value{}, decErr("DateTimeWithZoneId expects 3 fields, got %d", len(fields))
		}
		sec, err := needInt(fields, 0, "DateTimeWithZoneId.seconds")
		if err != nil {
			return value.Value{}, err
		}
		nanos, err := needInt(fields, 1, "DateTimeWithZoneId.nanos")
		if err != nil {
			return value.Value{}, err
		}
		zoneID, ok := fields[2].AsString()
		if !ok {
			return value.Value{}, decErr("DateTimeWithZoneId.zone_id must be a string")
		}
		return value.DateTimeWithZoneIdValue(value.DateTimeWithZoneId{Seconds: sec, Nanos: nanos, ZoneID: zoneID}), nil
	case SigDuration:
		if err := requireTemporal(); err != nil {
			return value.Value{}, err
		}
		if len(fields) != 4 {
			return value.Value{}, decErr("Duration expects 4 fields, got %d", len(fields))
		}
		months, _ := needInt(fields, 0, "Duration.months")
		days, _ := needInt(fields, 1, "Duration.days")
		sec, _ := needInt(fields, 2, "Duration.seconds")
		nanos, err := needInt(fields, 3, "Duration.nanos")
		if err != nil {
			return value.Value{}, err
		}
		return value.DurationValue(value.Duration{Months: months, Days: days, Seconds: sec, Nanos: nanos}), nil
	case SigPoint2D:
		if !profile.Spatial {
			return value.Value{}, UnknownSignatureError{Signature: sig}
		}
		if len(fields) != 3 {
			return value.Value{}, decErr("Point2D expects 3 fields, got %d", len(fields))
		}
		srid, _ := needInt(fields, 0, "Point2D.srid")
		x, errx := needFloat(fields, 1, "Point2D.x")
		y, erry := needFloat(fields, 2, "Point2D.y")
		if errx != nil {
			return value.Value{}, errx
		}
		if erry != nil {
			return value.Value{}, erry
		}
		return value.Point2DValue(value.Point2D{SRID: uint32(srid), X: x, Y: y}), nil
	case SigPoint3D:
		if !profile.Spatial {
			return value.Value{}, UnknownSignatureError{Signature: sig}
		}
		if len(fields) != 4 {
			return value.Value{}, decErr("Point3D expects 4 fields, got %d", len(fields))
		}
		srid, _ := needInt(fields, 0, "Point3D.srid")
		x, errx := needFloat(fields, 1, "Point3D.x")
		y, erry := needFloat(fields, 2, "Point3D.y")
		z, errz := needFloat(fields, 3, "Point3D.z")
		if errx != nil {
			return value.Value{}, errx
		}
		if erry != nil {
			return value.Value{}, erry
		}
		if errz != nil {
			return value.Value{}, errz
		}
		return value.Point3DValue(value.Point3D{SRID: uint32(srid), X: x, Y: y, Z: z}), nil
	case SigNode:
		if len(fields) != 3 {
			return value.Value{}, decErr("Node expects 3 fields, got %d", len(fields))
		}
		id, err := needInt(fields, 0, "Node.id")
		if err != nil {
			return value.Value{}, err
		}
		labels, err := needStringList(fields, 1, "Node.labels")
		if err != nil {
			return value.Value{}, err
		}
		props, err := needMap(fields, 2, "Node.properties")
		if err != nil {
			return value.Value{}, err
		}
		return value.NodeValue(value.Node{ID: id, Labels: labels, Properties: props}), nil
	case SigRelationship:
		if len(fields) != 5 {
			return value.Value{}, decErr("Relationship expects 5 fields, got %d", len(fields))
		}
		id, _ := needInt(fields, 0, "Relationship.id")
		start, _ := needInt(fields, 1, "Relationship.start_id")
		end, _ := needInt(fields, 2, "Relationship.end_id")
		typ, ok := fields[3].AsString()
		if !ok {
			return value.Value{}, decErr("Relationship.type must be a string")
		}
		props, err := needMap(fields, 4, "Relationship.properties")
		if err != nil {
			return value.Value{}, err
		}
		return value.RelationshipValue(value.Relationship{ID: id, StartID: start, EndID: end, Type: typ, Properties: props}), nil
	case SigUnboundRelationship:
		if len(fields) != 3 {
			return value.Value{}, decErr("UnboundRelationship expects 3 fields, got %d", len(fields))
		}
		id, _ := needInt(fields, 0, "UnboundRelationship.id")
		typ, ok := fields[1].AsString()
		if !ok {
			return value.Value{}, decErr("UnboundRelationship.type must be a string")
		}
		props, err := needMap(fields, 2, "UnboundRelationship.properties")
		if err != nil {
			return value.Value{}, err
		}
		return value.UnboundRelationshipValue(value.UnboundRelationship{ID: id, Type: typ, Properties: props}), nil
	case SigPath:
		if len(fields) != 3 {
			return value.Value{}, decErr("Path expects 3 fields, got %d", len(fields))
		}
		nodeList, ok := fields[0].AsList()
		if !ok {
			return value.Value{}, decErr("Path.nodes must be a list")
		}
		nodes := make([]value.Node, 0, len(nodeList))
		for _, nv := range nodeList {
			n, ok := nv.AsNode()
			if !ok {
				return value.Value{}, decErr("Path.nodes element is not a Node")
			}
			nodes = append(nodes, n)
		}
		relList, ok := fields[1].AsList()
		if !ok {
			return value.Value{}, decErr("Path.relationships must be a list")
		}
		rels := make([]value.UnboundRelationship, 0, len(relList))
		for _, rv := range relList {
			r, ok := rv.AsUnboundRelationship()
			if !ok {
				return value.Value{}, decErr("Path.relationships element is not an UnboundRelationship")
			}
			rels = append(rels, r)
		}
		seqList, ok := fields[2].AsList()
		if !ok {
			return value.Value{}, decErr("Path.sequence must be a list")
		}
		seq := make([]int64, 0, len(seqList))
		for _, sv := range seqList {
			n, ok := sv.AsInt()
			if !ok {
				return value.Value{}, decErr("Path.sequence element is not an int")
			}
			seq = append(seq, n)
		}
		return value.PathValue(value.Path{Nodes: nodes, Relationships: rels, Sequence: seq}), nil
	default:
		// Generic struct: used by the message layer for request/response
		// signatures that packstream itself does not interpret.
		return value.StructValue(&value.Struct{Signature: sig, Fields: fields}), nil
	}
}

func needInt(fields []value.Value, i int, label string) (int64, error) {
	if i >= len(fields) {
		return 0, decErr("%s: missing field", label)
	}
	v, ok := fields[i].AsInt()
	if !ok {
		return 0, decErr("%s: expected int, got %s", label, fields[i].Kind())
	}
	return v, nil
}

func needFloat(fields []value.Value, i int, label string) (float64, error) {
	if i >= len(fields) {
		return 0, decErr("%s: missing field", label)
	}
	v, ok := fields[i].AsFloat()
	if !ok {
		return 0, decErr("%s: expected float, got %s", label, fields[i].Kind())
	}
	return v, nil
}

func needInt2(fields []value.Value, label string) (int64, int64, error) {
	if len(fields) != 2 {
		return 0, 0, decErr("%s expects 2 fields, got %d", label, len(fields))
	}
	a, err := needInt(fields, 0, label+"[0]")
	if err != nil {
		return 0, 0, err
	}
	b, err := needInt(fields, 1, label+"[1]")
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func needStringList(fields []value.Value, i int, label string) ([]string, error) {
	if i >= len(fields) {
		return nil, decErr("%s: missing field", label)
	}
	lst, ok := fields[i].AsList()
	if !ok {
		return nil, decErr("%s: expected list, got %s", label, fields[i].Kind())
	}
	out := make([]string, 0, len(lst))
	for _, item := range lst {
		s, ok := item.AsString()
		if !ok {
			return nil, decErr("%s: element is not a string", label)
		}
		out = append(out, s)
	}
	return out, nil
}

func needMap(fields []value.Value, i int, label string) (*value.Map, error) {
	if i >= len(fields) {
		return nil, decErr("%s: missing field", label)
	}
	m, ok := fields[i].AsMap()
	if !ok {
		return nil, decErr("%s: expected map, got %s", label, fields[i].Kind())
	}
	return m, nil
}
