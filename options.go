package bigmat

import (
	"log/slog"

	"github.com/hupe1980/bigmat/internal/fs"
	"github.com/hupe1980/bigmat/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller
	rowNames         []string
	colNames         []string
	preserve         bool
	fsys             fs.FileSystem
}

// withFileSystem swaps the file system used by file-backed stores.
// Unexported: it exists for fault-injection tests.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// Option configures store constructor behavior.
//
// Options exist to avoid exploding the API surface with
// variant-specific constructor signatures.
type Option func(*options)

// WithLogger configures structured logging for store operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithController attaches a resource controller. Local stores reserve
// their heap memory against its budget and fail with ErrAllocation
// when the budget is exhausted.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithRowNames attaches optional row names to the handle. The engine
// stores the list; name-based lookup belongs to the calling layer.
func WithRowNames(names []string) Option {
	return func(o *options) {
		o.rowNames = names
	}
}

// WithColumnNames attaches optional column names to the handle.
func WithColumnNames(names []string) Option {
	return func(o *options) {
		o.colNames = names
	}
}

// WithPreserve controls whether a file-backed store's data files
// survive last-referencer teardown. When true, Destroy at reference
// count zero removes the shared bookkeeping but leaves the files on
// disk for a later create-independent Connect. Ignored by local and
// shared-memory stores.
func WithPreserve(preserve bool) Option {
	return func(o *options) {
		o.preserve = preserve
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fsys:             fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
