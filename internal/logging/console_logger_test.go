package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLoggerTo(&buf, false)

	l.Info("connected to %s", "localhost")

	assert.Equal(t, "connected to localhost\n", buf.String())
}

func TestConsoleLogger_WarnAndErrorPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLoggerTo(&buf, false)

	l.Warn("retrying in %ds", 1)
	l.Error("gave up")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "[WARN] retrying in 1s", lines[0])
	assert.Equal(t, "[ERROR] gave up", lines[1])
}

func TestConsoleLogger_VerboseSuppressed(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLoggerTo(&buf, false)

	l.Verbose("should not appear")

	assert.Empty(t, buf.String())
}

func TestConsoleLogger_VerboseEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLoggerTo(&buf, true)

	l.Verbose("details")

	assert.Equal(t, "[VERBOSE] details\n", buf.String())
}

func TestConsoleLogger_NoFormatArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLoggerTo(&buf, false)

	// A literal percent sign must survive when no args are given.
	l.Info("100% done")

	assert.Equal(t, "100% done\n", buf.String())
}

func TestConsoleLogger_ConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLoggerTo(&buf, false)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Info("line")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 16)
	for _, line := range lines {
		assert.Equal(t, "line", line)
	}
}

func TestNullLogger_DiscardsEverything(t *testing.T) {
	l := NewNullLogger()

	// Must not panic and must accept any signature.
	l.Verbose("v %d", 1)
	l.Info("i")
	l.Warn("w")
	l.Error("e %s", "x")
}
