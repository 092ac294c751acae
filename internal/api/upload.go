package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/printstash/printstash/internal/models"
)

// FilePart describes one local file included in a batched upload.
type FilePart struct {
	// Name is the filename the server stores the file under
	// (before any rename resolution is applied).
	Name string

	// Path is the local path the bytes are read from.
	Path string

	// Size is the file size in bytes, used for progress reporting.
	Size int64
}

// ProgressFunc receives cumulative bytes sent out of the total payload size.
type ProgressFunc func(sent, total int64)

// countingReader reports bytes as they are consumed from the multipart pipe.
type countingReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.sent += int64(n)
		if cr.progress != nil {
			cr.progress(cr.sent, cr.total)
		}
	}
	return n, err
}

// UploadFiles submits one batched multipart upload: every selected file
// plus the serialized resolution map. Exactly one HTTP request is issued
// per call; there is no retry because the streamed body is not
// replayable and the batch must be all-or-nothing at transport level.
//
// The multipart form carries:
//   - zero or more "resolution_<filename>" fields (overwrite|skip|rename),
//     written before the file parts so the server knows each policy
//     before the bytes arrive
//   - repeated "files" parts with the raw file bytes
//
// The server applies resolutions per file and returns a mixed
// UploadResult; partial success is an expected outcome, not an error.
func (c *Client) UploadFiles(ctx context.Context, projectID string, files []FilePart, resolutions map[string]string, progress ProgressFunc) (*models.UploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeBatchBody(writer, files, resolutions)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	path := "/api/projects/" + url.PathEscape(projectID) + "/files"
	body := &countingReader{r: pr, total: total, progress: progress}
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.Debug().Str("project", projectID).Int("files", len(files)).
		Int("resolutions", len(resolutions)).Msg("submitting upload batch")

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp, nethttp.MethodPost, path)
	}

	var result models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

// writeBatchBody streams the resolution fields and file parts into the
// multipart writer.
func writeBatchBody(writer *multipart.Writer, files []FilePart, resolutions map[string]string) error {
	for filename, resolution := range resolutions {
		if err := writer.WriteField("resolution_"+filename, resolution); err != nil {
			return fmt.Errorf("failed to write resolution field for %s: %w", filename, err)
		}
	}

	for _, f := range files {
		if err := writeFilePart(writer, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFilePart(writer *multipart.Writer, f FilePart) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", f.Path, err)
	}
	defer src.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(f.Name)))
	header.Set("Content-Type", detectContentType(f.Path))

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to stream %s: %w", f.Name, err)
	}
	return nil
}

// detectContentType sniffs the file's MIME type from its content.
// STL/GCODE/STEP files mostly come back as octet-stream or text, which
// is fine; the server treats the header as advisory.
func detectContentType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
