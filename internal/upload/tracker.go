package upload

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/printstash/printstash/internal/models"
)

// Outcome summarizes a terminal batch response projected onto tasks.
// The classification invariant holds: Uploaded + Skipped + Failed
// equals the number of original filenames in the batch.
type Outcome struct {
	Uploaded int
	Skipped  int
	Failed   int

	// Renamed lists server-chosen names for files stored under a
	// disambiguated name. Display-only; the client never predicts or
	// recomputes these.
	Renamed []string
}

// Total returns the number of classified tasks.
func (o Outcome) Total() int {
	return o.Uploaded + o.Skipped + o.Failed
}

// ApplyResult maps a batch response onto each task's status and error.
// Purely a projection: it writes onto the tasks and returns counts.
//
// Every original filename must land in exactly one of the response's
// uploaded/skipped/error categories. A file the response does not
// classify is completed only when its resolution was rename (the server
// stored it under an opaque disambiguated name); anything else is a
// defect, reported in the returned slice and marked failed rather than
// silently resolved.
func ApplyResult(tasks []*Task, resolutions map[string]string, result *models.UploadResult) (Outcome, []string) {
	uploaded := lo.SliceToMap(result.UploadedFiles, func(f models.UploadedFile) (string, struct{}) {
		return f.Filename, struct{}{}
	})
	skipped := lo.SliceToMap(result.SkippedFiles, func(name string) (string, struct{}) {
		return name, struct{}{}
	})

	var outcome Outcome
	var defects []string

	originals := lo.SliceToMap(tasks, func(t *Task) (string, struct{}) {
		return t.Filename, struct{}{}
	})
	for _, f := range result.UploadedFiles {
		if _, ok := originals[f.Filename]; !ok {
			outcome.Renamed = append(outcome.Renamed, f.Filename)
		}
	}

	for _, task := range tasks {
		_, inUploaded := uploaded[task.Filename]
		_, inSkipped := skipped[task.Filename]
		reason, inErrored := attributeError(result.Errors, task.Filename)

		categories := 0
		for _, hit := range []bool{inUploaded, inSkipped, inErrored} {
			if hit {
				categories++
			}
		}

		switch {
		case categories > 1:
			defect := fmt.Sprintf("server classified %q in multiple outcome categories", task.Filename)
			defects = append(defects, defect)
			task.Fail(fmt.Errorf("%s", defect))
			outcome.Failed++
		case inErrored:
			task.Fail(fmt.Errorf("%s", reason))
			outcome.Failed++
		case inSkipped:
			task.SetStatus(TaskSkipped)
			outcome.Skipped++
		case inUploaded:
			task.SetStatus(TaskCompleted)
			outcome.Uploaded++
		case Resolution(resolutions[task.Filename]) == ResolutionRename:
			// Stored under a server-disambiguated name we treat as opaque.
			task.SetStatus(TaskCompleted)
			outcome.Uploaded++
		default:
			defect := fmt.Sprintf("server response did not classify %q", task.Filename)
			defects = append(defects, defect)
			task.Fail(fmt.Errorf("%s", defect))
			outcome.Failed++
		}
	}

	return outcome, defects
}

// attributeError finds the error string for a filename. Error strings
// embed the offending filename by server convention; attribution is
// textual, so the name must appear as a whole token. A bare Contains
// would misattribute when one batch filename is a suffix of another
// (a.stl inside "data.stl: disk full").
func attributeError(errors []string, filename string) (string, bool) {
	for _, e := range errors {
		if containsFilename(e, filename) {
			return e, true
		}
	}
	return "", false
}

// containsFilename reports whether text mentions filename bounded by
// non-name characters (or the ends of the string).
func containsFilename(text, filename string) bool {
	if filename == "" {
		return false
	}
	for start := 0; ; start++ {
		i := strings.Index(text[start:], filename)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(filename)
		if (i == 0 || !isNameByte(text[i-1])) && (end == len(text) || !isNameByte(text[end])) {
			return true
		}
		start = i
	}
}

// isNameByte reports whether b can appear inside a filename token.
// Multi-byte runes are treated as name bytes.
func isNameByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '.', b == '-', b == '_':
		return true
	case b >= 0x80:
		return true
	}
	return false
}
