package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	underlying := errors.New("model missing")
	err := Wrap(ErrNotFound, "separation", "load model", "no checkpoint on disk", underlying)

	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected wrapped error to match ErrNotFound")
	}
	if !errors.Is(err, underlying) {
		t.Fatal("expected wrapped error to match underlying error")
	}
	for _, fragment := range []string{"separation", "load model", "no checkpoint on disk"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing fragment %q", err, fragment)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "dsp", "scan", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
}

func TestFatalClassification(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"validation", Wrap(ErrValidation, "run", "", "bad stage", nil), true},
		{"not found", Wrap(ErrNotFound, "run", "", "input missing", nil), true},
		{"configuration", Wrap(ErrConfiguration, "run", "", "output unwritable", nil), true},
		{"external tool", Wrap(ErrExternalTool, "transcription", "", "whisper crashed", nil), false},
		{"transient", Wrap(ErrTransient, "semantics", "", "tagger busy", nil), false},
		{"timeout", Wrap(ErrTimeout, "director", "", "llm timed out", nil), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fatal(tc.err); got != tc.fatal {
				t.Fatalf("Fatal(%v) = %v, want %v", tc.err, got, tc.fatal)
			}
			if tc.err != nil && Recoverable(tc.err) == tc.fatal {
				t.Fatalf("Recoverable(%v) should be %v", tc.err, !tc.fatal)
			}
		})
	}
}
