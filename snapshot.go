package bigmat

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/bigmat/resource"
)

// CompressionType defines the compression algorithm used for
// snapshot streams.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 frame compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// SnapshotOptions configures Save and Load.
type SnapshotOptions struct {
	// Compression selects the stream compression. Save and Load
	// must agree; the stream carries no header.
	Compression CompressionType

	// Controller, if set, throttles the snapshot IO against the
	// controller's byte rate.
	Controller *resource.Controller

	// Logger is the logger used for snapshot events.
	Logger *Logger

	// MetricsCollector records snapshot timings and byte counts.
	MetricsCollector MetricsCollector
}

// SnapshotOption modifies SnapshotOptions.
type SnapshotOption func(*SnapshotOptions)

// WithCompression sets the stream compression.
func WithCompression(c CompressionType) SnapshotOption {
	return func(o *SnapshotOptions) { o.Compression = c }
}

// WithSnapshotController sets a resource controller to throttle the
// snapshot IO.
func WithSnapshotController(rc *resource.Controller) SnapshotOption {
	return func(o *SnapshotOptions) { o.Controller = rc }
}

// WithSnapshotLogger sets the snapshot logger.
func WithSnapshotLogger(l *Logger) SnapshotOption {
	return func(o *SnapshotOptions) { o.Logger = l }
}

// WithSnapshotMetricsCollector sets the snapshot metrics collector.
func WithSnapshotMetricsCollector(mc MetricsCollector) SnapshotOption {
	return func(o *SnapshotOptions) { o.MetricsCollector = mc }
}

func applySnapshotOptions(optFns []SnapshotOption) SnapshotOptions {
	o := SnapshotOptions{
		Compression:      CompressionNone,
		Logger:           NoopLogger(),
		MetricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Save streams the raw column bytes of m to w, columns in order. The
// stream is headerless: shape, element type and layout are the
// caller's to remember and to supply again on Load.
func Save(ctx context.Context, w io.Writer, m Matrix, optFns ...SnapshotOption) error {
	o := applySnapshotOptions(optFns)
	start := time.Now()

	n, err := save(ctx, w, m, o)

	o.MetricsCollector.RecordSnapshot(n, time.Since(start), err)
	o.Logger.LogSnapshot(ctx, "save", n, err)
	return err
}

func save(ctx context.Context, w io.Writer, m Matrix, o SnapshotOptions) (int64, error) {
	if o.Controller != nil {
		w = resource.NewRateLimitedWriter(ctx, w, o.Controller)
	}

	var closeCompressor func() error
	switch o.Compression {
	case CompressionNone:
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		w = zw
		closeCompressor = zw.Close
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return 0, err
		}
		w = zw
		closeCompressor = zw.Close
	default:
		return 0, fmt.Errorf("unknown compression type %d", o.Compression)
	}

	var written int64
	for i := 0; i < m.Cols(); i++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, err := w.Write(m.Column(i))
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	if closeCompressor != nil {
		if err := closeCompressor(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Load fills the columns of m from a stream previously produced by
// Save with the same shape, element type, layout and compression. The
// matrix must already exist; Load writes through its columns in
// order.
func Load(ctx context.Context, r io.Reader, m Matrix, optFns ...SnapshotOption) error {
	o := applySnapshotOptions(optFns)
	start := time.Now()

	n, err := load(ctx, r, m, o)

	o.MetricsCollector.RecordSnapshot(n, time.Since(start), err)
	o.Logger.LogSnapshot(ctx, "load", n, err)
	return err
}

func load(ctx context.Context, r io.Reader, m Matrix, o SnapshotOptions) (int64, error) {
	if o.Controller != nil {
		r = resource.NewRateLimitedReader(ctx, r, o.Controller)
	}

	switch o.Compression {
	case CompressionNone:
	case CompressionLZ4:
		r = lz4.NewReader(r)
	case CompressionZSTD:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return 0, err
		}
		defer zr.Close()
		r = zr
	default:
		return 0, fmt.Errorf("unknown compression type %d", o.Compression)
	}

	var read int64
	for i := 0; i < m.Cols(); i++ {
		if err := ctx.Err(); err != nil {
			return read, err
		}
		n, err := io.ReadFull(r, m.Column(i))
		read += int64(n)
		if err != nil {
			return read, fmt.Errorf("column %d: %w", i, err)
		}
	}
	return read, nil
}
