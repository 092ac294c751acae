// Package models defines the wire types exchanged with the printstash server.
package models

import "time"

// Project represents a 3D-printing project stored on the server.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Path        string    `json:"path,omitempty"`
	FileCount   int       `json:"file_count"`
	TotalSize   int64     `json:"total_size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectListResponse is the response from the project list endpoint.
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

// ProjectRequest is the body for project create and update calls.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectFile represents one stored file within a project.
type ProjectFile struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// FileListResponse is the response from the project file list endpoint.
type FileListResponse struct {
	Files []ProjectFile `json:"files"`
	Total int           `json:"total"`
}

// RenameRequest is the body for the file rename call.
type RenameRequest struct {
	NewName string `json:"new_name"`
}

// ScanResult reports the outcome of a server-side library scan.
// The scan itself is opaque to the client; this is display-only.
type ScanResult struct {
	ProjectsScanned int `json:"projects_scanned"`
	FilesIndexed    int `json:"files_indexed"`
}
