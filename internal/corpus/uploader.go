package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"marginalia/backend/pkg/logger"
	"marginalia/backend/pkg/safeoutbound"
)

const blobEndpoint = "https://blob.vercel-storage.com"

// UploadHosts is the only host the uploader will talk to.
var UploadHosts = safeoutbound.NewHostSet("blob.vercel-storage.com")

// ManifestEntry records one uploaded PDF. The JSON shape matches what
// the server's manifest sync consumes.
type ManifestEntry struct {
	Pathname string `json:"pathname"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// Uploader pushes extracted PDFs to blob storage and keeps a manifest
// of what has been uploaded so reruns only send new files.
type Uploader struct {
	client       *http.Client
	checker      *safeoutbound.Checker
	token        string
	dataDir      string
	manifestPath string

	// The blob API rate limits aggressively, so uploads are paced and
	// the number of in-flight requests is capped.
	limiter     *rate.Limiter
	concurrency int
}

func NewUploader(client *http.Client, checker *safeoutbound.Checker, token, dataDir, manifestPath string) *Uploader {
	return &Uploader{
		client:       client,
		checker:      checker,
		token:        token,
		dataDir:      dataDir,
		manifestPath: manifestPath,
		limiter:      rate.NewLimiter(rate.Limit(2), 1),
		concurrency:  4,
	}
}

// LoadManifest reads a manifest file. A missing file is an empty
// manifest, not an error.
func LoadManifest(path string) ([]ManifestEntry, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return entries, nil
}

// UploadAll sends every PDF in the data directory that the manifest
// does not already list. It returns how many uploads succeeded and
// how many failed; individual failures do not abort the run.
func (u *Uploader) UploadAll(ctx context.Context) (uploaded, failed int, err error) {
	if u.token == "" {
		return 0, 0, fmt.Errorf("blob token is not configured")
	}

	existing, err := LoadManifest(u.manifestPath)
	if err != nil {
		return 0, 0, err
	}
	manifest := make(map[string]ManifestEntry, len(existing))
	for _, e := range existing {
		manifest[e.Pathname] = e
	}

	paths, err := filepath.Glob(filepath.Join(u.dataDir, "*.pdf"))
	if err != nil {
		return 0, 0, err
	}
	sort.Strings(paths)

	var pending []string
	for _, p := range paths {
		if _, ok := manifest[filepath.Base(p)]; !ok {
			pending = append(pending, p)
		}
	}
	logger.Info("uploading corpus", "total", len(paths), "pending", len(pending))
	if len(pending) == 0 {
		return 0, 0, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for _, path := range pending {
		g.Go(func() error {
			if err := u.limiter.Wait(ctx); err != nil {
				return err
			}

			entry, err := u.uploadOne(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("upload failed", "file", filepath.Base(path), "error", err)
				failed++
				return nil
			}
			manifest[entry.Pathname] = *entry
			uploaded++
			// Persist progress so an interrupted run keeps its work.
			if uploaded%10 == 0 {
				if err := saveManifest(u.manifestPath, manifest); err != nil {
					logger.Warn("failed to checkpoint manifest", "error", err)
				}
			}
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		err = waitErr
	}
	if saveErr := saveManifest(u.manifestPath, manifest); saveErr != nil && err == nil {
		err = saveErr
	}
	return uploaded, failed, err
}

func (u *Uploader) uploadOne(ctx context.Context, path string) (*ManifestEntry, error) {
	filename := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	target := blobEndpoint + "/" + url.PathEscape(filename)
	if !u.checker.IsPublicOutboundURL(ctx, target, UploadHosts) {
		return nil, fmt.Errorf("blocked non-allowlisted upload url %q", target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+u.token)
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("x-api-version", "7")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("blob store returned %d: %s", resp.StatusCode, snippet)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode blob response: %w", err)
	}

	return &ManifestEntry{
		Pathname: filename,
		URL:      result.URL,
		Size:     int64(len(data)),
	}, nil
}

func saveManifest(path string, manifest map[string]ManifestEntry) error {
	entries := make([]ManifestEntry, 0, len(manifest))
	for _, e := range manifest {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Pathname < entries[j].Pathname })

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
