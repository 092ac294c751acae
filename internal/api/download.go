package api

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// DownloadFile streams a stored file to destPath. When showProgress is
// set a byte progress bar is rendered on stderr. The destination is
// written via a temp file and renamed into place so an interrupted
// download never leaves a truncated file behind.
func (c *Client) DownloadFile(ctx context.Context, projectID, name, destPath string, showProgress bool) error {
	path := "/api/projects/" + url.PathEscape(projectID) + "/files/" + url.PathEscape(name)
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, nethttp.MethodGet, path)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("cannot create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".part-")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	var dst io.Writer = tmp
	if showProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading "+name)
		dst = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("download of %s interrupted: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	return os.Rename(tmp.Name(), destPath)
}
