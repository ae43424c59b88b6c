package corpus

import "context"

// Exported for tests in the corpus_test package.
var (
	VerifyChecksum = verifyChecksum
	SaveManifest   = saveManifest
)

func (d *Downloader) ExtractPDFs(zipPath string) (int, error) {
	return d.extractPDFs(zipPath)
}

func (d *Downloader) DownloadFile(ctx context.Context, url, dest string) error {
	return d.downloadFile(ctx, url, dest)
}

func (u *Uploader) SetPacingForTest(concurrency int) {
	u.concurrency = concurrency
	u.limiter.SetLimit(1000)
}
