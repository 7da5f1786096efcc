package task

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	now := time.Unix(1756000000, 0)
	id := NewID(now, "deck.pptx")
	if id != "1756000000_deck.pptx" {
		t.Errorf("got %q", id)
	}
}

func TestProgressMonotone(t *testing.T) {
	tk := New("1_a.pptx", "English➡︎Japanese", "/tmp/a.pptx")
	tk.AdvanceProgress(0.5)
	tk.AdvanceProgress(0.25) // must not regress
	if tk.Progress != 0.5 {
		t.Errorf("progress regressed to %v", tk.Progress)
	}
	tk.AdvanceProgress(1.5) // clamped
	if tk.Progress != 1.0 {
		t.Errorf("progress not clamped: %v", tk.Progress)
	}
}

func TestMarkCompletedInvariants(t *testing.T) {
	tk := New("1_a.pptx", "English➡︎Japanese", "/tmp/a.pptx")
	tk.AdvanceProgress(0.66)
	tk.MarkCompleted("/tmp/out/済.pptx", 2500*time.Millisecond)

	if !tk.Status.Terminal() {
		t.Error("COMPLETED must be terminal")
	}
	if tk.Progress != 1.0 {
		t.Errorf("completed task progress = %v, want 1.0", tk.Progress)
	}
	if tk.OutputFilePath == "" {
		t.Error("completed task must carry an output path")
	}
	if tk.Duration != 2.5 {
		t.Errorf("duration = %v, want 2.5", tk.Duration)
	}
}

func TestMarkErrorInvariants(t *testing.T) {
	tk := New("1_a.pptx", "English➡︎Japanese", "/tmp/a.pptx")
	tk.MarkError("bad zip", time.Second)

	if tk.Status != StatusError {
		t.Errorf("status = %q", tk.Status)
	}
	if tk.Error == "" {
		t.Error("ERROR status requires a message")
	}
	if tk.Duration == 0 {
		t.Error("terminal task must record duration")
	}
}

func TestRecordErrorAccumulates(t *testing.T) {
	tk := New("1_a.pptx", "n", "p")
	tk.RecordError("slide 2: chart busted")
	tk.RecordError("slide 5: notes busted")
	if tk.Error != "slide 2: chart busted; slide 5: notes busted" {
		t.Errorf("got %q", tk.Error)
	}
	if tk.Status != StatusProcessing {
		t.Error("RecordError must not terminate the task")
	}
}

func TestSnapshotJSONShape(t *testing.T) {
	tk := New("1756000000_deck.pptx", "English➡︎Japanese", "/tmp/deck.pptx")
	data, err := json.Marshal(tk.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"task_id", "task_name", "input_file_path", "status", "progress"} {
		if _, ok := m[key]; !ok {
			t.Errorf("snapshot missing %q: %s", key, data)
		}
	}
	if m["status"] != "PROCESSING" {
		t.Errorf("status = %v", m["status"])
	}
	// Optional fields stay absent until set.
	if _, ok := m["output_file_path"]; ok {
		t.Error("output_file_path must be omitted while processing")
	}
}
