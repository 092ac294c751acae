package upload

import (
	"path/filepath"
	"testing"
)

func TestAddCreatesPendingTasks(t *testing.T) {
	s := NewSelectionStore()
	s.Add(
		LocalFile{Name: "a.stl", Path: "/tmp/a.stl", Size: 10},
		LocalFile{Name: "b.gcode", Path: "/tmp/b.gcode", Size: 20},
	)

	tasks := s.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Status() != TaskPending {
			t.Errorf("task %s status = %s, want pending", task.Filename, task.Status())
		}
		if task.ID == "" {
			t.Errorf("task %s has empty id", task.Filename)
		}
	}
	if tasks[0].ID == tasks[1].ID {
		t.Error("task ids are not unique within the batch")
	}
}

func TestAddSameNameReplacesEntry(t *testing.T) {
	s := NewSelectionStore()
	s.Add(LocalFile{Name: "a.stl", Path: "/one/a.stl", Size: 10})
	first := s.Tasks()[0]

	s.Add(LocalFile{Name: "a.stl", Path: "/two/a.stl", Size: 30})

	if s.Len() != 1 {
		t.Fatalf("expected 1 entry after re-adding same name, got %d", s.Len())
	}
	if got := s.Files()[0].Path; got != "/two/a.stl" {
		t.Errorf("path = %s, want the later selection", got)
	}
	if s.Tasks()[0].ID == first.ID {
		t.Error("replacing a selection should mint a fresh task")
	}
}

func TestRemoveDeletesFileAndTask(t *testing.T) {
	s := NewSelectionStore()
	s.Add(
		LocalFile{Name: "a.stl", Path: "/tmp/a.stl"},
		LocalFile{Name: "b.gcode", Path: "/tmp/b.gcode"},
	)
	id := s.Tasks()[0].ID

	if !s.Remove(id) {
		t.Fatal("Remove returned false for existing task")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d after removal, want 1", s.Len())
	}
	if s.TaskByName("a.stl") != nil {
		t.Error("removed task still resolvable by name")
	}
	if s.Remove("no-such-id") {
		t.Error("Remove returned true for unknown id")
	}
}

func TestFilenamesOrderedDistinct(t *testing.T) {
	s := NewSelectionStore()
	s.Add(
		LocalFile{Name: "c.step", Path: "/tmp/c.step"},
		LocalFile{Name: "a.stl", Path: "/tmp/a.stl"},
	)

	names := s.Filenames()
	if len(names) != 2 || names[0] != "c.step" || names[1] != "a.stl" {
		t.Errorf("Filenames = %v, want selection order preserved", names)
	}
}

func TestNewLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "benchy.stl")
	writeFile(t, path, "solid benchy")

	f, err := NewLocalFile(path)
	if err != nil {
		t.Fatalf("NewLocalFile failed: %v", err)
	}
	if f.Name != "benchy.stl" {
		t.Errorf("Name = %s", f.Name)
	}
	if f.Size != int64(len("solid benchy")) {
		t.Errorf("Size = %d", f.Size)
	}

	if _, err := NewLocalFile(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := NewLocalFile(filepath.Join(dir, "missing.stl")); err == nil {
		t.Error("expected error for missing file")
	}
}
