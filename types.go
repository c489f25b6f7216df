package bigmat

import (
	"fmt"
	"math"
)

// ElementType identifies the numeric type of every matrix element.
// The set is closed: a matrix is created with one of the four types
// and keeps it for its whole lifetime.
type ElementType int

const (
	// Int8 is a signed 8-bit integer element.
	Int8 ElementType = iota + 1
	// Int16 is a signed 16-bit integer element.
	Int16
	// Int32 is a signed 32-bit integer element.
	Int32
	// Float64 is a 64-bit floating point element.
	Float64
)

// Width returns the element size in bytes.
func (t ElementType) Width() int {
	switch t {
	case Int8:
		return 1
	case Int16:
		return 2
	case Int32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// Valid reports whether t is one of the four supported element types.
func (t ElementType) Valid() bool {
	return t.Width() != 0
}

func (t ElementType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float64:
		return "float64"
	}
	return fmt.Sprintf("ElementType(%d)", int(t))
}

// Layout describes the physical arrangement of a matrix's bytes.
type Layout int

const (
	// Contiguous stores the whole matrix in one buffer of
	// rows*cols*width bytes; column i begins at byte offset
	// i*rows*width.
	Contiguous Layout = iota
	// Separated stores each column in its own independently
	// allocated or mapped buffer of rows*width bytes.
	Separated
)

func (l Layout) String() string {
	switch l {
	case Contiguous:
		return "contiguous"
	case Separated:
		return "separated"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Element is the closed set of Go types a matrix can hold.
type Element interface {
	int8 | int16 | int32 | float64
}

// NA sentinels. Each integer type reserves its minimum value as the
// missing-value marker; Float64 uses NaN.
const (
	NAInt8  int8  = math.MinInt8
	NAInt16 int16 = math.MinInt16
	NAInt32 int32 = math.MinInt32
)

// NAFloat64 returns the Float64 missing-value marker (NaN).
func NAFloat64() float64 { return math.NaN() }

// IsNA reports whether v is the NA sentinel of its element type.
func IsNA[T Element](v T) bool {
	switch x := any(v).(type) {
	case int8:
		return x == NAInt8
	case int16:
		return x == NAInt16
	case int32:
		return x == NAInt32
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// NA returns the missing-value sentinel for T.
func NA[T Element]() T {
	var v T
	switch p := any(&v).(type) {
	case *int8:
		*p = NAInt8
	case *int16:
		*p = NAInt16
	case *int32:
		*p = NAInt32
	case *float64:
		*p = math.NaN()
	}
	return v
}

// Coerce maps an externally supplied value onto T. Values outside T's
// valid range, and NaN for the integer types, become T's NA sentinel.
// They are never wrapped or truncated into a different in-range value.
func Coerce[T Element](v float64) T {
	var out T
	switch p := any(&out).(type) {
	case *int8:
		if math.IsNaN(v) || v < math.MinInt8+1 || v > math.MaxInt8 {
			*p = NAInt8
		} else {
			*p = int8(v)
		}
	case *int16:
		if math.IsNaN(v) || v < math.MinInt16+1 || v > math.MaxInt16 {
			*p = NAInt16
		} else {
			*p = int16(v)
		}
	case *int32:
		if math.IsNaN(v) || v < math.MinInt32+1 || v > math.MaxInt32 {
			*p = NAInt32
		} else {
			*p = int32(v)
		}
	case *float64:
		*p = v
	}
	return out
}
