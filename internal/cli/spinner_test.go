package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(context.Background(), "Loading finance.csv")
	s.w = &buf
	s.Start()
	time.Sleep(spinnerDelay + 100*time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Loading finance.csv") {
		t.Errorf("output = %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r") {
		t.Error("line not cleared")
	}
}

func TestSpinnerQuickStopDrawsNothing(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(context.Background(), "Loading")
	s.w = &buf
	s.Start()
	s.Stop()
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Loading")
	s.w = &bytes.Buffer{}
	s.Start()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner not cancelled after context timeout")
	}
	s.Stop()
}
