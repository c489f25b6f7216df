package bigmat

import "fmt"

// Matrix is the store-independent view of a live matrix handle: its
// shape, element type, physical layout and raw column bytes. All
// three store variants implement it; Accessor and the snapshot
// helpers are built on top of it.
type Matrix interface {
	// Rows returns the row count.
	Rows() int
	// Cols returns the column count.
	Cols() int
	// Type returns the element type fixed at creation.
	Type() ElementType
	// Layout returns the physical layout fixed at creation.
	Layout() Layout
	// Column returns the raw bytes of column i (rows*width bytes).
	// The slice aliases the backing storage: writes through it are
	// writes to the matrix. It is valid until Destroy. No locking is
	// performed; concurrent access discipline is the caller's
	// responsibility.
	Column(i int) []byte
	// RowNames returns the optional row name list (nil if unset).
	RowNames() []string
	// ColumnNames returns the optional column name list (nil if unset).
	ColumnNames() []string
}

// shape is the creation-time geometry every store variant carries.
type shape struct {
	rows     int
	cols     int
	elemType ElementType
	layout   Layout
}

func (s shape) validate() error {
	if s.rows <= 0 || s.cols <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidShape, s.rows, s.cols)
	}
	if !s.elemType.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidShape, s.elemType)
	}
	return nil
}

// columnBytes returns the byte length of one column.
func (s shape) columnBytes() int64 {
	return int64(s.rows) * int64(s.elemType.Width())
}

// totalBytes returns the byte length of the whole matrix.
func (s shape) totalBytes() int64 {
	return s.columnBytes() * int64(s.cols)
}

// handle carries the shape, optional names and the ambient
// logger/metrics wiring common to every store variant.
type handle struct {
	shape
	rowNames []string
	colNames []string
	logger   *Logger
	metrics  MetricsCollector
}

func newHandle(sh shape, o options) (handle, error) {
	if err := sh.validate(); err != nil {
		return handle{}, err
	}
	if o.rowNames != nil && len(o.rowNames) != sh.rows {
		return handle{}, fmt.Errorf("%w: %d row names for %d rows", ErrInvalidShape, len(o.rowNames), sh.rows)
	}
	if o.colNames != nil && len(o.colNames) != sh.cols {
		return handle{}, fmt.Errorf("%w: %d column names for %d columns", ErrInvalidShape, len(o.colNames), sh.cols)
	}
	return handle{
		shape:    sh,
		rowNames: o.rowNames,
		colNames: o.colNames,
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}, nil
}

func (h *handle) Rows() int             { return h.rows }
func (h *handle) Cols() int             { return h.cols }
func (h *handle) Type() ElementType     { return h.elemType }
func (h *handle) Layout() Layout        { return h.layout }
func (h *handle) RowNames() []string    { return h.rowNames }
func (h *handle) ColumnNames() []string { return h.colNames }
