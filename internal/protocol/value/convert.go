package value

import (
	"fmt"
	"math"
	"time"
)

// ErrUnrepresentable is returned by FromGo when a host value has no
// encoding in the closed Value type set.
type ErrUnrepresentable struct {
	GoType string
}

func (e ErrUnrepresentable) Error() string {
	return fmt.Sprintf("value: cannot represent go type %s", e.GoType)
}

// FromGo converts a host value into the protocol Value sum type. Maps
// must be map[string]any; map keys are strings on the wire, so any
// other key type is unrepresentable.
func FromGo(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return Value{}, ErrUnrepresentable{GoType: fmt.Sprintf("uint overflowing int64 (%d)", v)}
		}
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, ErrUnrepresentable{GoType: fmt.Sprintf("uint64 overflowing int64 (%d)", v)}
		}
		return Int(int64(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case []any:
		items := make([]Value, len(v))
		for i, elem := range v {
			cv, err := FromGo(elem)
			if err != nil {
				return Value{}, err
			}
			items[i] = cv
		}
		return List(items), nil
	case map[string]any:
		m := NewMap()
		for k, elem := range v {
			cv, err := FromGo(elem)
			if err != nil {
				return Value{}, err
			}
			m.Set(k, cv)
		}
		return MapValue(m), nil
	case time.Duration:
		return durationFromGo(v), nil
	case time.Time:
		return dateTimeFromGo(v), nil
	default:
		return Value{}, ErrUnrepresentable{GoType: fmt.Sprintf("%T", in)}
	}
}

// ToGo converts a Value back into a plain Go value suitable for a
// caller that doesn't want to switch on Kind itself. Scalars and
// collections map to their native Go counterparts; LocalDateTime and
// DateTimeWithZoneOffset come back as time.Time; the other temporal,
// spatial, and graph variants come back as this package's exported
// structs.
func (v Value) ToGo() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindList:
		out := make([]any, len(v.lst))
		for i, elem := range v.lst {
			gv, err := elem.ToGo()
			if err != nil {
				return nil, err
			}
			out[i] = gv
		}
		return out, nil
	case KindMap:
		out := make(map[string]any, v.mp.Len())
		for _, k := range v.mp.Keys() {
			elem, _ := v.mp.Get(k)
			gv, err := elem.ToGo()
			if err != nil {
				return nil, err
			}
			out[k] = gv
		}
		return out, nil
	case KindDuration:
		return v.dur, nil
	case KindLocalDateTime:
		return localDateTimeToGo(v.localDT), nil
	case KindDateTimeWithZoneOffset:
		return dateTimeWithZoneOffsetToGo(v.dtZO), nil
	case KindDate:
		return v.date, nil
	case KindLocalTime:
		return v.localTime, nil
	case KindTimeWithZoneOffset:
		return v.timeZO, nil
	case KindDateTimeWithZoneId:
		return v.dtZId, nil
	case KindPoint2D:
		return v.pt2, nil
	case KindPoint3D:
		return v.pt3, nil
	case KindStruct:
		s, _ := v.AsStruct()
		return s, nil
	case KindNode:
		n, _ := v.AsNode()
		return n, nil
	case KindRelationship:
		r, _ := v.AsRelationship()
		return r, nil
	case KindUnboundRelationship:
		r, _ := v.AsUnboundRelationship()
		return r, nil
	case KindPath:
		p, _ := v.AsPath()
		return p, nil
	default:
		return nil, fmt.Errorf("value: no plain go representation for kind %s", v.kind)
	}
}

// seconds = floor(epoch_us / 1e6), nanos = (epoch_us mod 1e6) * 1e3,
// with floor division so nanos stays >= 0 even for instants before the
// epoch.
func dateTimeFromGo(t time.Time) Value {
	us := t.UnixMicro()
	sec, nanos := floorDivMicros(us)
	return DateTimeWithZoneOffsetValue(DateTimeWithZoneOffset{
		Seconds:       sec,
		Nanos:         nanos,
		OffsetSeconds: int32(secondsOfFixedOffset(t)),
	})
}

func floorDivMicros(us int64) (seconds int64, nanos int64) {
	const microsPerSec = 1_000_000
	sec := us / microsPerSec
	rem := us % microsPerSec
	if rem < 0 {
		sec--
		rem += microsPerSec
	}
	return sec, rem * 1_000
}

func secondsOfFixedOffset(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

func durationFromGo(d time.Duration) Value {
	return DurationValue(Duration{
		Months:  0,
		Days:    0,
		Seconds: int64(d / time.Second),
		Nanos:   int64(d % time.Second),
	})
}

func localDateTimeToGo(ldt LocalDateTime) time.Time {
	return time.Unix(ldt.Seconds, ldt.Nanos).UTC()
}

func dateTimeWithZoneOffsetToGo(dt DateTimeWithZoneOffset) time.Time {
	loc := time.FixedZone("", int(dt.OffsetSeconds))
	return time.Unix(dt.Seconds, dt.Nanos).In(loc)
}
