package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger_TimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("fetched topology")

	line := strings.TrimSpace(buf.String())
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(line) {
		t.Errorf("log line %q does not start with an HH:MM:SS.ms timestamp", line)
	}
	if !strings.Contains(line, "fetched topology") {
		t.Errorf("log line %q missing message", line)
	}
}

func TestCLISetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug line missing after SetLogLevel(LogDebug): %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Inspected 2 devices")

	if !regexp.MustCompile(`Inspected 2 devices \([0-9.]+[µnm]?s\)`).MatchString(buf.String()) {
		t.Errorf("progress line %q missing elapsed time", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("bare context should yield the default logger")
	}

	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("attached logger not returned")
	}
}

func TestRunRender_LogsPipelineTimings(t *testing.T) {
	captureStdout(t)
	var buf bytes.Buffer
	ctx := withLogger(context.Background(), newLogger(&buf, log.DebugLevel))

	c := newTestCLI(t)
	err := c.runRender(ctx, &renderOpts{
		source:  sourceFlags{input: writeSample(t)},
		formats: "dot",
		output:  "-",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pipeline finished", "fetch=", "build=", "render="} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("debug log missing %q:\n%s", want, buf.String())
		}
	}
}
