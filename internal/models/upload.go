package models

// FileConflict reports that a candidate filename collides with a file
// already stored in the target project. Immutable once produced by the
// conflict check; discarded with the batch.
type FileConflict struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// ConflictCheckRequest is the body for the conflict pre-check call.
type ConflictCheckRequest struct {
	Filenames []string `json:"filenames"`
}

// ConflictCheckResponse lists the colliding filenames. Every input
// filename not present here is implicitly conflict-free.
type ConflictCheckResponse struct {
	Conflicts []FileConflict `json:"conflicts"`
}

// UploadedFile describes one stored file in an upload response. For a
// rename resolution Filename carries the server-disambiguated name,
// which the client treats as opaque.
type UploadedFile struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
}

// UploadResult is the mixed outcome of one batched upload. The server
// applies resolutions per file, so uploaded, skipped and errored
// entries can all appear in the same response. Error strings embed the
// offending filename; attribution happens client-side.
type UploadResult struct {
	UploadedCount int            `json:"uploaded_count"`
	UploadedFiles []UploadedFile `json:"uploaded_files"`
	SkippedFiles  []string       `json:"skipped_files,omitempty"`
	Errors        []string       `json:"errors,omitempty"`
}
