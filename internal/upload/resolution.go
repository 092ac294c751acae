package upload

import (
	"fmt"

	"github.com/printstash/printstash/internal/models"
)

// Resolution is the user's chosen policy for one conflicting filename.
// There is no default: a conflict without an explicit resolution blocks
// submission.
type Resolution string

const (
	// ResolutionOverwrite replaces the existing stored file.
	ResolutionOverwrite Resolution = "overwrite"
	// ResolutionSkip discards the incoming file and keeps the existing one.
	ResolutionSkip Resolution = "skip"
	// ResolutionRename keeps both; the server persists the incoming file
	// under a disambiguated name of its own choosing.
	ResolutionRename Resolution = "rename"
)

// ParseResolution validates a resolution string from user input.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolutionOverwrite, ResolutionSkip, ResolutionRename:
		return Resolution(s), nil
	}
	return "", fmt.Errorf("invalid resolution %q (expected overwrite, skip or rename)", s)
}

// ResolutionRegistry maps conflicting filenames to chosen resolutions.
// Built incrementally as the user resolves conflicts; read once at
// submission time. Entries for filenames outside the current conflict
// set may exist transiently but are never serialized.
type ResolutionRegistry struct {
	choices map[string]Resolution
}

// NewResolutionRegistry creates an empty registry.
func NewResolutionRegistry() *ResolutionRegistry {
	return &ResolutionRegistry{choices: make(map[string]Resolution)}
}

// Set records the resolution for a filename. Total and idempotent:
// setting twice keeps only the latest value.
func (r *ResolutionRegistry) Set(filename string, resolution Resolution) {
	r.choices[filename] = resolution
}

// Get returns the recorded resolution for a filename.
func (r *ResolutionRegistry) Get(filename string) (Resolution, bool) {
	res, ok := r.choices[filename]
	return res, ok
}

// IsComplete reports whether every conflict's filename has an entry.
// True for an empty conflict set.
func (r *ResolutionRegistry) IsComplete(conflicts []models.FileConflict) bool {
	return len(r.Missing(conflicts)) == 0
}

// Missing returns the conflict filenames that still lack a resolution,
// in conflict order.
func (r *ResolutionRegistry) Missing(conflicts []models.FileConflict) []string {
	var missing []string
	for _, c := range conflicts {
		if _, ok := r.choices[c.Filename]; !ok {
			missing = append(missing, c.Filename)
		}
	}
	return missing
}

// WireFormat returns the filename to resolution map ready for request
// serialization. Keys are restricted to the given conflict set: stale
// entries left over from an earlier selection are never submitted.
func (r *ResolutionRegistry) WireFormat(conflicts []models.FileConflict) map[string]string {
	wire := make(map[string]string, len(conflicts))
	for _, c := range conflicts {
		if res, ok := r.choices[c.Filename]; ok {
			wire[c.Filename] = string(res)
		}
	}
	return wire
}

// Len returns the number of recorded resolutions, inert ones included.
func (r *ResolutionRegistry) Len() int {
	return len(r.choices)
}

// Reset discards all recorded resolutions.
func (r *ResolutionRegistry) Reset() {
	r.choices = make(map[string]Resolution)
}
