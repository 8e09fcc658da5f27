package pgrun

import (
	"github.com/vvka-141/pgrun/internal/logging"
	"github.com/vvka-141/pgrun/internal/retry"
)

// Logger is the pluggable logging interface. The default writes to stderr;
// NullLogger-style implementations can silence the module entirely.
type Logger = logging.Logger

// SleepFunc waits between retry attempts. Production code uses the default
// timer-based wait; tests inject a recorder to avoid wall-clock sleeps.
type SleepFunc = retry.SleepFunc

// Option configures Open and New.
type Option func(*options)

type options struct {
	logger     Logger
	sleep      SleepFunc
	projectDir string
}

func applyOptions(opts []Option) options {
	o := options{
		logger:     logging.NewConsoleLogger(false),
		projectDir: ".",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for retry warnings, error reporting, and
// the startup diagnostic line.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSleep replaces the backoff wait implementation.
// Tests should set a deterministic function.
func WithSleep(sleep SleepFunc) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithProjectDir sets the directory searched for pgrun.yaml.
// Defaults to the current working directory.
func WithProjectDir(dir string) Option {
	return func(o *options) {
		o.projectDir = dir
	}
}
