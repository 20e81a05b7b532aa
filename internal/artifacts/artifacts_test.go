package artifacts

import (
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestResolveCreatesDataDir(t *testing.T) {
	outputDir := t.TempDir()
	paths, err := Resolve(outputDir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	info, err := os.Stat(paths.DataDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("data dir not created: %v", err)
	}
	if filepath.Base(paths.State) != StateFile {
		t.Errorf("state path = %s", paths.State)
	}
}

func TestForStageKnownStages(t *testing.T) {
	paths, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m := paths.ForStage("separation")
	if m["stems"] != paths.Stems {
		t.Errorf("separation artifacts = %v", m)
	}
	if paths.ForStage("director") != nil {
		t.Error("director keeps its artifact outside the data dir")
	}
}

func TestLoadTranscriptionShape(t *testing.T) {
	dir := t.TempDir()

	good := writeArtifact(t, dir, "good.json", `{"segments":[{"start":0,"end":1.5,"text":"hi","speaker":"SPEAKER_00"}],"language":"en"}`)
	tr, err := LoadTranscription(good)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "hi" {
		t.Errorf("segments = %+v", tr.Segments)
	}

	cases := map[string]string{
		"segments_object": `{"segments":{}}`,
		"segments_string": `{"segments":"none"}`,
		"no_segments":     `{"language":"en"}`,
		"not_json":        `{{`,
	}
	for name, content := range cases {
		path := writeArtifact(t, dir, name+".json", content)
		if _, err := LoadTranscription(path); err == nil {
			t.Errorf("%s: expected shape error", name)
		}
	}
}

func TestLoadTranscriptionEmptySegments(t *testing.T) {
	dir := t.TempDir()
	path := writeArtifact(t, dir, "empty.json", `{"segments":[]}`)
	tr, err := LoadTranscription(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tr.Segments == nil || len(tr.Segments) != 0 {
		t.Errorf("segments = %v, want empty non-nil slice", tr.Segments)
	}
}

func TestLoadMetrics(t *testing.T) {
	dir := t.TempDir()

	path := writeArtifact(t, dir, "metrics.json", `{"integrated_lufs":-18.2,"pacing_gaps":[{"start":1,"end":2}]}`)
	m, err := LoadMetrics(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.NonEmpty() {
		t.Error("expected non-empty metrics")
	}

	empty := writeArtifact(t, dir, "empty.json", `{}`)
	m, err = LoadMetrics(empty)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if m.NonEmpty() {
		t.Error("empty object should report NonEmpty() == false")
	}

	list := writeArtifact(t, dir, "list.json", `[]`)
	if _, err := LoadMetrics(list); err == nil {
		t.Error("expected error for non-object metrics")
	}
}

func TestLoadSemantics(t *testing.T) {
	dir := t.TempDir()

	path := writeArtifact(t, dir, "tags.json", `[{"label":"rain","score":0.91}]`)
	tags, err := LoadSemantics(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tags) != 1 || tags[0].Label != "rain" {
		t.Errorf("tags = %+v", tags)
	}

	empty := writeArtifact(t, dir, "empty.json", `[]`)
	tags, err = LoadSemantics(empty)
	if err != nil {
		t.Fatalf("load empty list: %v", err)
	}
	if tags == nil {
		t.Error("empty list should load as non-nil slice")
	}

	object := writeArtifact(t, dir, "object.json", `{"label":"rain"}`)
	if _, err := LoadSemantics(object); err == nil {
		t.Error("expected error for non-list semantics")
	}
}
