package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the semantic type tag a dataset reports for a column
type ColumnType string

const (
	ColumnString  ColumnType = "string"
	ColumnDate    ColumnType = "date"
	ColumnNumeric ColumnType = "numeric"
	ColumnOther   ColumnType = "other"
)

// Column describes one column of a tabular dataset
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// ValueKind tags the concrete type carried by a Value
type ValueKind int

const (
	KindNull ValueKind = iota
	KindAll
	KindString
	KindInt
	KindFloat
	KindTime
	KindBool
)

// AllLabel is how the "all" sentinel is displayed
const AllLabel = "ALL"

// Value is a single typed cell or option value.
// The zero Value is null.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Time  time.Time
	Bool  bool
}

// All is the reserved sentinel meaning "no filter on this field".
// It never compares equal to a real string value, even one spelled "ALL".
var All = Value{Kind: KindAll}

// Null returns the null value
func Null() Value { return Value{} }

// String wraps a string
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Int wraps an integer
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float wraps a float; NaN is treated as null
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{Kind: KindFloat, Float: f}
}

// Time wraps a timestamp
func Time(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsAll reports whether v is the "all" sentinel
func (v Value) IsAll() bool { return v.Kind == KindAll }

// IsNumeric reports whether v holds an int or a float
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Number returns the numeric value as float64
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	}
	return 0, false
}

// Label renders the value for display
func (v Value) Label() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindAll:
		return AllLabel
	case KindString:
		return v.Str
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindTime:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 && v.Time.Nanosecond() == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format(time.RFC3339)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// String implements fmt.Stringer
func (v Value) String() string { return v.Label() }

// Key returns a string that is unique per distinct value, including its kind
func (v Value) Key() string {
	switch v.Kind {
	case KindTime:
		return fmt.Sprintf("%d:%d", v.Kind, v.Time.UnixNano())
	default:
		return fmt.Sprintf("%d:%s", v.Kind, v.Label())
	}
}

// Equal compares two values by kind and content
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindTime {
		return v.Time.Equal(o.Time)
	}
	return v == o
}

// Compare orders values by the natural order of their type.
// Sentinel sorts first, null last; ints and floats compare numerically;
// otherwise mixed kinds order by kind.
func (v Value) Compare(o Value) int {
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.Number()
		b, _ := o.Number()
		return compareOrdered(a, b)
	}
	if v.Kind != o.Kind {
		return compareOrdered(kindRank(v.Kind), kindRank(o.Kind))
	}
	switch v.Kind {
	case KindString:
		return strings.Compare(v.Str, o.Str)
	case KindTime:
		return v.Time.Compare(o.Time)
	case KindBool:
		switch {
		case v.Bool == o.Bool:
			return 0
		case !v.Bool:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func kindRank(k ValueKind) int {
	switch k {
	case KindAll:
		return 0
	case KindNull:
		return 100
	default:
		return int(k)
	}
}

func compareOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Contains reports whether vals holds a value equal to v
func Contains(vals []Value, v Value) bool {
	for _, x := range vals {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

// Labels renders each value with Label
func Labels(vals []Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Label()
	}
	return out
}
