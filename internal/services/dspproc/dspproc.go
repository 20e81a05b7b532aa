// Package dspproc extracts acoustic metrics from the separated stems:
// EBU R128 loudness per stem via ffmpeg, plus pacing statistics derived
// from the transcript timeline.
package dspproc

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"mikup/internal/artifacts"
	"mikup/internal/stems"
)

// DefaultCommand is the ffmpeg binary used for loudness measurement.
const DefaultCommand = "ffmpeg"

// Gaps in dialogue shorter than this are ordinary pauses, not pacing
// features.
const minGapSeconds = 1.0

// Config captures the analysis settings.
type Config struct {
	Binary string
}

// Service runs the DSP analysis.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates a DSP analysis service.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner returning the tool's
// combined output (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.commandRunner = runner
}

// Loudness holds the EBU R128 summary for one stem.
type Loudness struct {
	IntegratedLUFS float64 `json:"integrated_lufs"`
	LoudnessRange  float64 `json:"loudness_range"`
	TruePeakDBFS   float64 `json:"true_peak_dbfs"`
}

// Gap is a stretch of the timeline with no dialogue.
type Gap struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Analyze measures loudness for the dialogue and background stems and
// derives pacing gaps from the transcript at transcriptionPath.
func (s *Service) Analyze(ctx context.Context, set *stems.Set, transcriptionPath string) (artifacts.Metrics, error) {
	if set == nil || set.DialoguePath() == "" {
		return nil, fmt.Errorf("dsp: dialogue stem required")
	}

	metrics := artifacts.Metrics{}

	dialogue, err := s.measure(ctx, set.DialoguePath())
	if err != nil {
		return nil, fmt.Errorf("dsp: dialogue loudness: %w", err)
	}
	metrics["dialogue_loudness"] = dialogue

	if backgrounds := set.BackgroundPaths(); len(backgrounds) > 0 {
		background, err := s.measure(ctx, backgrounds[0])
		if err != nil {
			return nil, fmt.Errorf("dsp: background loudness: %w", err)
		}
		metrics["background_loudness"] = background
		metrics["dialogue_background_ratio"] = round2(dialogue.IntegratedLUFS - background.IntegratedLUFS)
	}

	tr, err := artifacts.LoadTranscription(transcriptionPath)
	if err != nil {
		return nil, fmt.Errorf("dsp: transcript: %w", err)
	}
	gaps := PacingGaps(tr.Segments, minGapSeconds)
	metrics["pacing_gaps"] = gaps
	metrics["gap_count"] = len(gaps)
	if wpm := speechRate(tr.Segments); wpm > 0 {
		metrics["speech_rate_wpm"] = wpm
	}

	return metrics, nil
}

// measure runs the ebur128 filter over one file and parses the summary
// ffmpeg prints at the end of its log output.
func (s *Service) measure(ctx context.Context, path string) (Loudness, error) {
	args := []string{
		"-hide_banner", "-nostats",
		"-i", path,
		"-filter_complex", "ebur128=peak=true",
		"-f", "null", "-",
	}
	output, err := s.run(ctx, s.cfg.Binary, args...)
	if err != nil {
		return Loudness{}, err
	}
	return ParseEBUR128(output)
}

func (s *Service) run(ctx context.Context, name string, args ...string) (string, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// ParseEBUR128 extracts the integrated loudness, loudness range, and true
// peak from ffmpeg's ebur128 summary block.
func ParseEBUR128(output string) (Loudness, error) {
	var l Loudness
	var haveI, haveLRA, havePeak bool

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "I:":
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				l.IntegratedLUFS = v
				haveI = true
			}
		case "LRA:":
			// The summary also prints "LRA low:"/"LRA high:"; only the
			// bare LRA line carries the range.
			if len(fields) == 3 && fields[2] == "LU" {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					l.LoudnessRange = v
					haveLRA = true
				}
			}
		case "Peak:":
			if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
				l.TruePeakDBFS = v
				havePeak = true
			}
		}
	}
	if !haveI || !haveLRA || !havePeak {
		return l, fmt.Errorf("ebur128 summary incomplete (I=%v LRA=%v peak=%v)", haveI, haveLRA, havePeak)
	}
	return l, nil
}

// PacingGaps finds stretches of at least minGap seconds between
// consecutive dialogue segments.
func PacingGaps(segments []artifacts.Segment, minGap float64) []Gap {
	gaps := []Gap{}
	for i := 1; i < len(segments); i++ {
		start := segments[i-1].End
		end := segments[i].Start
		if end-start >= minGap {
			gaps = append(gaps, Gap{Start: start, End: end, Duration: round2(end - start)})
		}
	}
	return gaps
}

func speechRate(segments []artifacts.Segment) float64 {
	var words int
	var speech float64
	for _, seg := range segments {
		words += len(strings.Fields(seg.Text))
		speech += seg.End - seg.Start
	}
	if speech <= 0 {
		return 0
	}
	return round2(float64(words) / (speech / 60))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
