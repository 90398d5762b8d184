package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func quietSpinner(ctx context.Context, msg string) (*Spinner, *bytes.Buffer) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, msg)
	s.out = &buf
	return s, &buf
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	s, out := quietSpinner(context.Background(), "Fetching topology...")

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop without Start blocked")
	}

	if s.Cancelled() {
		t.Error("explicit Stop reported as cancelled")
	}
	if out.Len() != 0 {
		t.Errorf("unstarted spinner wrote %q", out)
	}
}

func TestSpinner_StopClearsLine(t *testing.T) {
	s, out := quietSpinner(context.Background(), "Building graph...")
	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Building graph...") {
		t.Errorf("spinner never drew its message: %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("line not cleared after Stop: %q", got)
	}
	if s.Cancelled() {
		t.Error("explicit Stop reported as cancelled")
	}
}

func TestSpinner_CancelVersusStop(t *testing.T) {
	t.Run("parent cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s, _ := quietSpinner(ctx, "Fetching topology...")
		s.Start()
		cancel()
		s.Stop()
		if !s.Cancelled() {
			t.Error("cancellation of the parent context not reported")
		}
	})

	t.Run("parent timed out", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		s, _ := quietSpinner(ctx, "Logging in...")
		s.Start()
		<-ctx.Done()
		s.Stop()
		if !s.Cancelled() {
			t.Error("timeout of the parent context not reported")
		}
	})

	t.Run("stopped then cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		s, _ := quietSpinner(ctx, "Fetching topology...")
		s.Start()
		s.Stop()
		cancel()
		if s.Cancelled() {
			t.Error("cancel after Stop reported as cancelled")
		}
	})
}

func TestSpinner_StopWithError(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		out := captureStdout(t)
		s, _ := quietSpinner(context.Background(), "Fetching topology...")
		s.Start()
		s.StopWithError("Fetch failed")
		if !strings.Contains(out.String(), "Fetch failed") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		out := captureStdout(t)
		ctx, cancel := context.WithCancel(context.Background())
		s, _ := quietSpinner(ctx, "Fetching topology...")
		s.Start()
		cancel()
		s.StopWithError("Fetch failed")
		if strings.Contains(out.String(), "Fetch failed") || !strings.Contains(out.String(), "Cancelled") {
			t.Errorf("output = %q, want a cancellation notice", out)
		}
	})
}

func TestSpinner_StopWithSuccess(t *testing.T) {
	out := captureStdout(t)
	s, _ := quietSpinner(context.Background(), "Logging in...")
	s.Start()
	s.StopWithSuccess("Logged in")
	if !strings.Contains(out.String(), "Logged in") {
		t.Errorf("output = %q", out)
	}
}
