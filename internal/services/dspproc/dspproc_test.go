package dspproc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mikup/internal/artifacts"
	"mikup/internal/stems"
)

const summaryOutput = `[Parsed_ebur128_0 @ 0x55d] Summary:

  Integrated loudness:
    I:         -18.4 LUFS
    Threshold: -29.1 LUFS

  Loudness range:
    LRA:        6.2 LU
    Threshold: -39.2 LUFS
    LRA low:   -23.0 LUFS
    LRA high:  -16.8 LUFS

  True peak:
    Peak:      -1.1 dBFS
`

func TestParseEBUR128(t *testing.T) {
	l, err := ParseEBUR128(summaryOutput)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if l.IntegratedLUFS != -18.4 {
		t.Errorf("integrated = %v", l.IntegratedLUFS)
	}
	if l.LoudnessRange != 6.2 {
		t.Errorf("range = %v", l.LoudnessRange)
	}
	if l.TruePeakDBFS != -1.1 {
		t.Errorf("peak = %v", l.TruePeakDBFS)
	}
}

func TestParseEBUR128Incomplete(t *testing.T) {
	if _, err := ParseEBUR128("I: -18.4 LUFS\n"); err == nil {
		t.Fatal("expected error for missing LRA and peak")
	}
}

func TestPacingGaps(t *testing.T) {
	segments := []artifacts.Segment{
		{Start: 0, End: 2},
		{Start: 2.3, End: 4},  // 0.3s pause, below threshold
		{Start: 6.5, End: 8},  // 2.5s gap
		{Start: 9.1, End: 10}, // 1.1s gap
	}
	gaps := PacingGaps(segments, 1.0)
	if len(gaps) != 2 {
		t.Fatalf("gaps = %+v, want 2", gaps)
	}
	if gaps[0].Start != 4 || gaps[0].End != 6.5 || gaps[0].Duration != 2.5 {
		t.Errorf("first gap = %+v", gaps[0])
	}
}

func TestPacingGapsEmpty(t *testing.T) {
	if gaps := PacingGaps(nil, 1.0); gaps == nil || len(gaps) != 0 {
		t.Errorf("gaps = %v, want empty non-nil slice", gaps)
	}
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	dx := filepath.Join(dir, "dx.wav")
	music := filepath.Join(dir, "music.wav")
	for _, p := range []string{dx, music} {
		if err := os.WriteFile(p, []byte("RIFF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	transcription := filepath.Join(dir, "transcription.json")
	content := `{"segments":[{"start":0,"end":2,"text":"four words right here"},{"start":5,"end":6,"text":"more"}]}`
	if err := os.WriteFile(transcription, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) (string, error) {
		return summaryOutput, nil
	})

	set := &stems.Set{Dialogue: stems.Ptr(dx), Music: stems.Ptr(music)}
	metrics, err := svc.Analyze(context.Background(), set, transcription)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if _, ok := metrics["dialogue_loudness"]; !ok {
		t.Error("missing dialogue_loudness")
	}
	if _, ok := metrics["background_loudness"]; !ok {
		t.Error("missing background_loudness")
	}
	if got := metrics["gap_count"]; got != 1 {
		t.Errorf("gap_count = %v, want 1", got)
	}
	if _, ok := metrics["speech_rate_wpm"]; !ok {
		t.Error("missing speech_rate_wpm")
	}
}

func TestAnalyzeRequiresDialogueStem(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.Analyze(context.Background(), &stems.Set{}, "x.json"); err == nil {
		t.Fatal("expected error without a dialogue stem")
	}
}
