package pgrun

import "time"

const (
	// StandardMaxAttempts is the total attempt budget of the standard
	// execution profile, used for normal operational statements.
	StandardMaxAttempts = 3

	// StandardInitialDelay is the first backoff delay of the standard profile.
	StandardInitialDelay = 1 * time.Second

	// FastMaxAttempts is the total attempt budget of the fast profile,
	// used for latency-sensitive simple statements.
	FastMaxAttempts = 2

	// FastInitialDelay is the first backoff delay of the fast profile.
	FastInitialDelay = 500 * time.Millisecond

	// MaxErrorPreviewLength is the maximum number of characters of an
	// error message included in log output. This prevents overwhelming
	// the log with large driver errors that embed full statements.
	MaxErrorPreviewLength = 200
)
