// Package value holds the closed sum type of values the protocol wire
// carries, and conversions to/from host Go types.
//
// Ownership boundary:
// - the Value tag set and its constructors/accessors
// - Go-type conversion glue (FromGo/ToGo)
//
// It owns no wire format knowledge; that lives in packstream.
package value

import "fmt"

// Kind tags a Value's variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindStruct

	// Graph variants (decode-only).
	KindNode
	KindRelationship
	KindUnboundRelationship
	KindPath

	// Temporal variants (v2+).
	KindDate
	KindLocalTime
	KindLocalDateTime
	KindTimeWithZoneOffset
	KindDateTimeWithZoneOffset
	KindDateTimeWithZoneId
	KindDuration

	// Spatial variants (v2+).
	KindPoint2D
	KindPoint3D
)

// Value is the tagged sum type the wire carries. Exactly one of the
// payload fields below is meaningful for a given Kind; zero values for
// the rest are the Go-idiomatic way of representing "not this variant."
type Value struct {
	kind Kind

	b   bool
	i   int64
	f   float64
	s   string
	lst []Value
	mp  *Map

	strct *Struct
	node  *Node
	rel   *Relationship
	urel  *UnboundRelationship
	path  *Path

	date      Date
	localTime LocalTime
	localDT   LocalDateTime
	timeZO    TimeWithZoneOffset
	dtZO      DateTimeWithZoneOffset
	dtZId     DateTimeWithZoneId
	dur       Duration

	pt2 Point2D
	pt3 Point3D
}

// Kind reports the variant tag of v.
func (v Value) Kind() Kind { return v.kind }

// Map is an insertion-order-preserving string-keyed mapping. Insertion
// order is preserved so that encoding the same Map always produces the
// same bytes.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty, order-preserving Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set inserts or overwrites key. First insertion fixes iteration order.
func (m *Map) Set(key string, v Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Struct is the generic tagged record backing domain structs.
type Struct struct {
	Signature byte
	Fields    []Value
}

// Node is a decode-only graph variant.
type Node struct {
	ID         int64
	Labels     []string
	Properties *Map
}

// Relationship is a decode-only graph variant.
type Relationship struct {
	ID         int64
	StartID    int64
	EndID      int64
	Type       string
	Properties *Map
}

// UnboundRelationship is a decode-only graph variant.
type UnboundRelationship struct {
	ID         int64
	Type       string
	Properties *Map
}

// Path is a decode-only graph variant.
type Path struct {
	Nodes         []Node
	Relationships []UnboundRelationship
	Sequence      []int64
}

// Date is days since the Unix epoch.
type Date struct{ Days int64 }

// LocalTime is nanoseconds since midnight, no zone.
type LocalTime struct{ NanosOfDay int64 }

// LocalDateTime is seconds+nanos since the epoch, no zone.
type LocalDateTime struct {
	Seconds int64
	Nanos   int64
}

// TimeWithZoneOffset is a time-of-day plus a fixed UTC offset.
type TimeWithZoneOffset struct {
	NanosOfDay    int64
	OffsetSeconds int32
}

// DateTimeWithZoneOffset is seconds+nanos since epoch plus a fixed offset.
type DateTimeWithZoneOffset struct {
	Seconds       int64
	Nanos         int64
	OffsetSeconds int32
}

// DateTimeWithZoneId is seconds+nanos since epoch plus an IANA zone id.
type DateTimeWithZoneId struct {
	Seconds int64
	Nanos   int64
	ZoneID  string
}

// Duration stores each unit independently; no cross-unit normalization,
// since a month has no canonical second count.
type Duration struct {
	Months  int64
	Days    int64
	Seconds int64
	Nanos   int64
}

// Point2D is a 2D point tagged with a spatial reference id.
type Point2D struct {
	SRID uint32
	X, Y float64
}

// Point3D is a 3D point tagged with a spatial reference id.
type Point3D struct {
	SRID    uint32
	X, Y, Z float64
}

// Constructors.

func Null() Value                 { return Value{kind: KindNull} }
func Bool(b bool) Value           { return Value{kind: KindBool, b: b} }
func Int(i int64) Value           { return Value{kind: KindInt, i: i} }
func Float(f float64) Value       { return Value{kind: KindFloat, f: f} }
func String(s string) Value       { return Value{kind: KindString, s: s} }
func List(items []Value) Value    { return Value{kind: KindList, lst: items} }
func MapValue(m *Map) Value       { return Value{kind: KindMap, mp: m} }
func StructValue(s *Struct) Value { return Value{kind: KindStruct, strct: s} }

func NodeValue(n Node) Value             { return Value{kind: KindNode, node: &n} }
func RelationshipValue(r Relationship) Value {
	return Value{kind: KindRelationship, rel: &r}
}
func UnboundRelationshipValue(r UnboundRelationship) Value {
	return Value{kind: KindUnboundRelationship, urel: &r}
}
func PathValue(p Path) Value { return Value{kind: KindPath, path: &p} }

func DateValue(d Date) Value             { return Value{kind: KindDate, date: d} }
func LocalTimeValue(t LocalTime) Value   { return Value{kind: KindLocalTime, localTime: t} }
func LocalDateTimeValue(t LocalDateTime) Value {
	return Value{kind: KindLocalDateTime, localDT: t}
}
func TimeWithZoneOffsetValue(t TimeWithZoneOffset) Value {
	return Value{kind: KindTimeWithZoneOffset, timeZO: t}
}
func DateTimeWithZoneOffsetValue(t DateTimeWithZoneOffset) Value {
	return Value{kind: KindDateTimeWithZoneOffset, dtZO: t}
}
func DateTimeWithZoneIdValue(t DateTimeWithZoneId) Value {
	return Value{kind: KindDateTimeWithZoneId, dtZId: t}
}
func DurationValue(d Duration) Value { return Value{kind: KindDuration, dur: d} }

func Point2DValue(p Point2D) Value { return Value{kind: KindPoint2D, pt2: p} }
func Point3DValue(p Point3D) Value { return Value{kind: KindPoint3D, pt3: p} }

// Accessors. Each witnesses the tag and returns (value, ok) rather than
// an error: by the time callers hold a Value, its shape is fixed, so a
// mismatched accessor call is a caller bug, not a wire-level failure.

func (v Value) AsBool() (bool, bool)   { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)   { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsList() ([]Value, bool)  { return v.lst, v.kind == KindList }
func (v Value) AsMap() (*Map, bool)      { return v.mp, v.kind == KindMap }
func (v Value) AsStruct() (*Struct, bool) { return v.strct, v.kind == KindStruct }

func (v Value) AsNode() (Node, bool) {
	if v.kind != KindNode || v.node == nil {
		return Node{}, false
	}
	return *v.node, true
}

func (v Value) AsRelationship() (Relationship, bool) {
	if v.kind != KindRelationship || v.rel == nil {
		return Relationship{}, false
	}
	return *v.rel, true
}

func (v Value) AsUnboundRelationship() (UnboundRelationship, bool) {
	if v.kind != KindUnboundRelationship || v.urel == nil {
		return UnboundRelationship{}, false
	}
	return *v.urel, true
}

func (v Value) AsPath() (Path, bool) {
	if v.kind != KindPath || v.path == nil {
		return Path{}, false
	}
	return *v.path, true
}

func (v Value) AsDate() (Date, bool)     { return v.date, v.kind == KindDate }
func (v Value) AsLocalTime() (LocalTime, bool) { return v.localTime, v.kind == KindLocalTime }
func (v Value) AsLocalDateTime() (LocalDateTime, bool) {
	return v.localDT, v.kind == KindLocalDateTime
}
func (v Value) AsTimeWithZoneOffset() (TimeWithZoneOffset, bool) {
	return v.timeZO, v.kind == KindTimeWithZoneOffset
}
func (v Value) AsDateTimeWithZoneOffset() (DateTimeWithZoneOffset, bool) {
	return v.dtZO, v.kind == KindDateTimeWithZoneOffset
}
func (v Value) AsDateTimeWithZoneId() (DateTimeWithZoneId, bool) {
	return v.dtZId, v.kind == KindDateTimeWithZoneId
}
func (v Value) AsDuration() (Duration, bool) { return v.dur, v.kind == KindDuration }

func (v Value) AsPoint2D() (Point2D, bool) { return v.pt2, v.kind == KindPoint2D }
func (v Value) AsPoint3D() (Point3D, bool) { return v.pt3, v.kind == KindPoint3D }

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindStruct:
		return "Struct"
	case KindNode:
		return "Node"
	case KindRelationship:
		return "Relationship"
	case KindUnboundRelationship:
		return "UnboundRelationship"
	case KindPath:
		return "Path"
	case KindDate:
		return "Date"
	case KindLocalTime:
		return "LocalTime"
	case KindLocalDateTime:
		return "LocalDateTime"
	case KindTimeWithZoneOffset:
		return "TimeWithZoneOffset"
	case KindDateTimeWithZoneOffset:
		return "DateTimeWithZoneOffset"
	case KindDateTimeWithZoneId:
		return "DateTimeWithZoneId"
	case KindDuration:
		return "Duration"
	case KindPoint2D:
		return "Point2D"
	case KindPoint3D:
		return "Point3D"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}
