package docstore

import (
	"math"
	"reflect"
	"strings"
	"time"
)

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present.
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// ResolveTimestamps returns a copy of d with every ServerTimestamp replaced by now.
func (d Document) ResolveTimestamps(now time.Time) Document {
	out := d.Clone()
	for k, v := range out {
		if v == ServerTimestamp {
			out[k] = now
		}
	}
	return out
}

// Normalize converts backend-specific scalar types into the Document value set.
func Normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int8:
		return int64(t)
	case uint:
		return fromUnsigned(uint64(t))
	case uint64:
		return fromUnsigned(t)
	case uint32:
		return int64(t)
	case uint16:
		return int64(t)
	case uint8:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC()
	case int64, float64, string, bool, nil:
		return v
	default:
		return normalizeKind(v)
	}
}

// normalizeKind handles named scalar types such as a driver's own int64.
func normalizeKind(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fromUnsigned(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	default:
		return v
	}
}

func fromUnsigned(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

// Field reads a field of a record, resolving FieldID to the identifier.
func (r Record) Field(name string) any {
	if name == FieldID {
		return r.ID
	}
	return r.Data[name]
}

// Matches reports whether the record satisfies every filter of q.
func (q Query) Matches(r Record) bool {
	for _, f := range q.Filters {
		if !Equal(r.Field(f.Field), f.Value) {
			return false
		}
	}
	return true
}

// Less orders two records according to q, ties broken by identifier.
func (q Query) Less(a, b Record) bool {
	for _, o := range q.OrderBy {
		c := Compare(a.Field(o.Field), b.Field(o.Field))
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return a.ID < b.ID
}

// Equal compares two document values, treating all numeric types alike.
func Equal(a, b any) bool {
	if kindOf(a) != kindOf(b) {
		return false
	}
	return Compare(a, b) == 0
}

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindTime
	kindString
	kindOther
)

func kindOf(v any) valueKind {
	switch Normalize(v).(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case int64, float64:
		return kindNumber
	case time.Time:
		return kindTime
	case string:
		return kindString
	default:
		return kindOther
	}
}

// Compare orders values the way Firestore does across types:
// null < bool < number < timestamp < string < anything else.
func Compare(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return 1
	}

	a, b = Normalize(a), Normalize(b)
	switch ka {
	case kindBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case kindNumber:
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case kindString:
		return strings.Compare(a.(string), b.(string))
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		return 0
	}
}
