package loupe

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDebugText(t *testing.T) {
	h := newTestViewer(t, nil)
	h.load(t)
	text := h.v.debugText()
	for _, want := range []string{"scale 1.000 angle 0", "origin 187.5,187.5", "inner -187.5,0.0", "pinching false"} {
		if !strings.Contains(text, want) {
			t.Errorf("debugText missing %q:\n%s", want, text)
		}
	}
}

func TestDebugStatsLogged(t *testing.T) {
	var buf bytes.Buffer
	h := newTestViewer(t, func(o *Options) {
		o.Debug = true
		o.Logger = NewLogger(LogOptions{Level: "debug", Writer: &buf})
	})
	h.load(t)
	h.frames(3, 100*time.Millisecond)
	if strings.Contains(buf.String(), "frame stats") {
		t.Fatal("stats logged before the interval elapsed")
	}
	if h.v.debug.renders == 0 {
		t.Error("renders should be counted in debug mode")
	}

	h.frames(1, debugStatsInterval)
	if !strings.Contains(buf.String(), "frame stats") {
		t.Errorf("log = %q, want frame stats", buf.String())
	}
	if h.v.debug.ticks != 0 || h.v.debug.renders != 0 {
		t.Errorf("stats not reset: %+v", h.v.debug)
	}
}
