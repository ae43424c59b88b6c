package corpus

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"marginalia/backend/internal/hashutil"
	"marginalia/backend/pkg/logger"
	"marginalia/backend/pkg/safeoutbound"
)

const downloadChunkAccept = "application/zip"

// Downloader fetches dataset archives from the mirror list and
// extracts their PDFs into a flat directory.
type Downloader struct {
	client      *http.Client
	checker     *safeoutbound.Checker
	downloadDir string
	dataDir     string
	skipVerify  bool
}

func NewDownloader(client *http.Client, checker *safeoutbound.Checker, downloadDir, dataDir string, skipVerify bool) *Downloader {
	return &Downloader{
		client:      client,
		checker:     checker,
		downloadDir: downloadDir,
		dataDir:     dataDir,
		skipVerify:  skipVerify,
	}
}

// Fetch downloads, verifies and extracts one dataset. It returns the
// number of PDFs newly extracted into the data directory.
func (d *Downloader) Fetch(ctx context.Context, num int) (int, error) {
	ds, ok := Datasets[num]
	if !ok {
		return 0, fmt.Errorf("dataset %d is not configured", num)
	}

	if err := os.MkdirAll(d.downloadDir, 0o755); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return 0, err
	}

	zipPath := filepath.Join(d.downloadDir, fmt.Sprintf("DataSet_%d.zip", num))

	if d.haveVerifiedArchive(zipPath, ds) {
		logger.Info("dataset archive already downloaded", "dataset", num, "path", zipPath)
	} else if err := d.fetchArchive(ctx, ds, zipPath); err != nil {
		return 0, err
	}

	return d.extractPDFs(zipPath)
}

// haveVerifiedArchive reports whether an existing archive is complete
// enough to keep. A failed checksum deletes the file so fetchArchive
// starts over.
func (d *Downloader) haveVerifiedArchive(zipPath string, ds Dataset) bool {
	info, err := os.Stat(zipPath)
	if err != nil {
		return false
	}
	// Allow 10% variance against the advertised size.
	if info.Size() < ds.SizeMB*1024*1024*9/10 {
		return false
	}
	if d.skipVerify {
		return true
	}
	if err := verifyChecksum(zipPath, ds.SHA256); err != nil {
		logger.Warn("existing archive failed verification, re-downloading", "dataset", ds.Num, "error", err)
		_ = os.Remove(zipPath)
		return false
	}
	return true
}

func (d *Downloader) fetchArchive(ctx context.Context, ds Dataset, zipPath string) error {
	var lastErr error
	for _, url := range ds.URLs {
		if err := d.downloadFile(ctx, url, zipPath); err != nil {
			logger.Warn("mirror failed, trying next", "dataset", ds.Num, "url", url, "error", err)
			lastErr = err
			continue
		}
		if d.skipVerify {
			return nil
		}
		if err := verifyChecksum(zipPath, ds.SHA256); err != nil {
			logger.Warn("downloaded archive failed verification", "dataset", ds.Num, "url", url, "error", err)
			_ = os.Remove(zipPath)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("dataset %d has no mirrors", ds.Num)
	}
	return fmt.Errorf("all mirrors failed for dataset %d: %w", ds.Num, lastErr)
}

// downloadFile streams url into dest, resuming a partial download with
// a Range request when the server supports it.
func (d *Downloader) downloadFile(ctx context.Context, url, dest string) error {
	if !d.checker.IsPublicOutboundURL(ctx, url, DownloadHosts) {
		return fmt.Errorf("blocked non-allowlisted download url %q", url)
	}

	var existing int64
	if info, err := os.Stat(dest); err == nil {
		existing = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", downloadChunkAccept)
	if existing > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(existing, 10)+"-")
		logger.Info("resuming download", "url", url, "offset_bytes", existing)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out *os.File
	switch {
	case resp.StatusCode == http.StatusPartialContent && existing > 0:
		out, err = os.OpenFile(dest, os.O_WRONLY|os.O_APPEND, 0o644)
	case resp.StatusCode == http.StatusOK:
		// Server ignored the Range header, start over.
		out, err = os.Create(dest)
	default:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if err != nil {
		return err
	}
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("download interrupted after %d bytes: %w", written, err)
	}
	logger.Info("download complete", "url", url, "bytes", written)
	return nil
}

// verifyChecksum compares the file's SHA-256 against the expected hex
// digest, case-insensitively.
func verifyChecksum(path, expected string) error {
	actual, err := hashutil.SHA256File(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", strings.ToLower(expected), actual)
	}
	return nil
}

// extractPDFs pulls every PDF out of the archive into the flat data
// directory, keeping the original basename and skipping files that
// already exist.
func (d *Downloader) extractPDFs(zipPath string) (int, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	count := 0
	for _, member := range zr.File {
		if !strings.EqualFold(filepath.Ext(member.Name), ".pdf") {
			continue
		}
		name := filepath.Base(filepath.FromSlash(member.Name))
		if name == "" || name == "." {
			continue
		}
		dest := filepath.Join(d.dataDir, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}

		if err := extractMember(member, dest); err != nil {
			logger.Warn("failed to extract member", "name", member.Name, "error", err)
			continue
		}
		count++
	}
	logger.Info("extracted pdfs", "archive", filepath.Base(zipPath), "count", count)
	return count, nil
}

func extractMember(member *zip.File, dest string) error {
	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
