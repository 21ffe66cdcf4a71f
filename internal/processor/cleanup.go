package processor

import (
	"context"
	"os"
	"path/filepath"
)

// cleanupTempDir removes the extraction directory that holds wavPath. Failures
// are logged, never returned.
func (p *implProcessor) cleanupTempDir(ctx context.Context, wavPath string) {
	dir := filepath.Dir(wavPath)
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp dir %s: %v", dir, err)
		return
	}
	p.logger.Debug(ctx, "Cleaned up temp dir: %s", dir)
}
