package bigmat

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// Accessor provides typed element access on top of a matrix's raw
// column bytes. The element type T must match the matrix's element
// width; the check happens once in NewAccessor, after which Get and
// Set are plain slice operations.
//
// An accessor does not own the matrix. It caches the typed column
// views, so it must not be used after the matrix is destroyed.
type Accessor[T Element] struct {
	m    Matrix
	cols [][]T
	rows int
}

// NewAccessor builds a typed accessor over m. It fails with
// ErrTypeMismatch if the byte width of T differs from the width of
// the matrix's element type.
func NewAccessor[T Element](m Matrix) (*Accessor[T], error) {
	var zero T
	if int(unsafe.Sizeof(zero)) != m.Type().Width() {
		return nil, &ErrTypeMismatch{Want: m.Type(), Width: int(unsafe.Sizeof(zero))}
	}

	cols := make([][]T, m.Cols())
	for i := range cols {
		cols[i] = columnView[T](m.Column(i), m.Rows())
	}

	return &Accessor[T]{m: m, cols: cols, rows: m.Rows()}, nil
}

// columnView reinterprets raw column bytes as a typed slice. The
// backing stores hand out columns of exactly rows*width bytes with
// element-aligned bases, so the reinterpretation is safe.
func columnView[T Element](b []byte, rows int) []T {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), rows)
}

// Rows returns the number of rows.
func (a *Accessor[T]) Rows() int { return a.rows }

// Cols returns the number of columns.
func (a *Accessor[T]) Cols() int { return len(a.cols) }

// Col returns the typed view of column j. Writes through the returned
// slice land in the backing store.
func (a *Accessor[T]) Col(j int) []T { return a.cols[j] }

// Get returns the element at row i, column j.
func (a *Accessor[T]) Get(i, j int) T { return a.cols[j][i] }

// Set stores v at row i, column j.
func (a *Accessor[T]) Set(i, j int, v T) { a.cols[j][i] = v }

// SetValue coerces v into T's value domain and stores it at row i,
// column j. NaN and out-of-range values become T's NA sentinel.
func (a *Accessor[T]) SetValue(i, j int, v float64) { a.cols[j][i] = Coerce[T](v) }

// Fill coerces v once and writes it into every element, columns in
// parallel. It stops early if ctx is canceled.
func (a *Accessor[T]) Fill(ctx context.Context, v float64) error {
	cv := Coerce[T](v)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for j := range a.cols {
		col := a.cols[j]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := range col {
				col[i] = cv
			}
			return nil
		})
	}

	return g.Wait()
}

// AccessorFor returns a typed accessor matching the matrix's element
// type, erased to any. It exists for callers that discover the type
// at runtime; statically typed callers should use NewAccessor.
func AccessorFor(m Matrix) (any, error) {
	switch m.Type() {
	case Int8:
		return NewAccessor[int8](m)
	case Int16:
		return NewAccessor[int16](m)
	case Int32:
		return NewAccessor[int32](m)
	case Float64:
		return NewAccessor[float64](m)
	default:
		return nil, fmt.Errorf("%w: unknown element type %d", ErrInvalidShape, m.Type())
	}
}
