package separator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeparateCollectsStems(t *testing.T) {
	workDir := t.TempDir()
	input := "/media/ep01.mkv"

	svc := NewService(Config{Models: []string{"model-a", "model-b"}})
	var invocations [][]string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		invocations = append(invocations, append([]string{name}, args...))
		stemDir := filepath.Join(workDir, "stems")
		for _, f := range []string{
			"ep01_(Vocals)_model.wav",
			"ep01_(Instrumental)_model.wav",
			"ep01_(Other)_model.wav",
		} {
			if err := os.WriteFile(filepath.Join(stemDir, f), []byte("RIFF"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		return nil
	})

	set, err := svc.Separate(context.Background(), input, workDir, false)
	if err != nil {
		t.Fatalf("separate: %v", err)
	}
	if len(invocations) != 2 {
		t.Errorf("invocations = %d, want one per model", len(invocations))
	}
	if set.Dialogue == nil || !strings.Contains(*set.Dialogue, "(Vocals)") {
		t.Errorf("dialogue stem = %v", set.Dialogue)
	}
	if set.Music == nil || set.Effects == nil {
		t.Errorf("set = %+v, want music and effects stems", set)
	}
}

func TestSeparateFastModeSingleModel(t *testing.T) {
	workDir := t.TempDir()
	svc := NewService(Config{Models: []string{"model-a", "model-b"}})
	var count int
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error {
		count++
		path := filepath.Join(workDir, "stems", "ep01_(Vocals)_model.wav")
		return os.WriteFile(path, []byte("RIFF"), 0o644)
	})

	if _, err := svc.Separate(context.Background(), "/media/ep01.mkv", workDir, true); err != nil {
		t.Fatalf("separate: %v", err)
	}
	if count != 1 {
		t.Errorf("fast mode ran %d models, want 1", count)
	}
}

func TestSeparateNoOutputs(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error { return nil })

	if _, err := svc.Separate(context.Background(), "/media/ep01.mkv", t.TempDir(), false); err == nil {
		t.Fatal("expected error when the tool produced no stems")
	}
}

func TestSeparateRequiresInput(t *testing.T) {
	svc := NewService(Config{})
	if _, err := svc.Separate(context.Background(), "", t.TempDir(), false); err == nil {
		t.Fatal("expected error for empty input")
	}
}
