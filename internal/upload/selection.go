package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// LocalFile describes one locally chosen file before it becomes a task.
type LocalFile struct {
	Name string // Basename used as the stored filename
	Path string // Absolute or relative local path
	Size int64
}

// NewLocalFile stats path and builds a LocalFile from it.
func NewLocalFile(path string) (LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return LocalFile{}, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LocalFile{}, fmt.Errorf("%s is a directory; only files can be uploaded", path)
	}
	return LocalFile{
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
	}, nil
}

// SelectionStore holds the user's locally chosen files for a pending
// upload and the task derived from each. Selection order is preserved.
// Not safe for concurrent use on its own; the orchestrator serializes
// all access.
type SelectionStore struct {
	files []LocalFile
	tasks []*Task
}

// NewSelectionStore creates an empty selection.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{}
}

// Add appends files to the selection, deriving one pending task per
// file. Choosing a file whose name is already selected replaces the
// earlier entry: one candidate filename maps to exactly one task.
func (s *SelectionStore) Add(files ...LocalFile) {
	for _, f := range files {
		if idx := s.indexOfName(f.Name); idx >= 0 {
			s.files[idx] = f
			s.tasks[idx] = NewTask(f)
			continue
		}
		s.files = append(s.files, f)
		s.tasks = append(s.tasks, NewTask(f))
	}
}

// Remove deletes the file and its task by task id.
// Returns false when no task has that id.
func (s *SelectionStore) Remove(taskID string) bool {
	for i, t := range s.tasks {
		if t.ID == taskID {
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// Files returns the current selection in order.
func (s *SelectionStore) Files() []LocalFile {
	return append([]LocalFile(nil), s.files...)
}

// Tasks returns the current task list in selection order.
func (s *SelectionStore) Tasks() []*Task {
	return append([]*Task(nil), s.tasks...)
}

// TaskByName returns the task for a filename, or nil.
func (s *SelectionStore) TaskByName(filename string) *Task {
	for _, t := range s.tasks {
		if t.Filename == filename {
			return t
		}
	}
	return nil
}

// Filenames returns the ordered, distinct candidate filename set for
// the conflict check. Add already guarantees name uniqueness; Uniq
// keeps the invariant explicit.
func (s *SelectionStore) Filenames() []string {
	return lo.Uniq(lo.Map(s.files, func(f LocalFile, _ int) string { return f.Name }))
}

// Len returns the number of selected files.
func (s *SelectionStore) Len() int {
	return len(s.files)
}

// Reset discards the selection and all tasks.
func (s *SelectionStore) Reset() {
	s.files = nil
	s.tasks = nil
}

func (s *SelectionStore) indexOfName(name string) int {
	for i, f := range s.files {
		if f.Name == name {
			return i
		}
	}
	return -1
}
