package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/rs/zerolog/log"
)

// MediaFetcher streams a resolved direct URL to a local file. Mirrors serve
// a single progressive stream; there is no range-request support to lean on,
// so the download is a plain sequential copy with a progress bar.
type MediaFetcher struct {
	client *HTTPClient
	quiet  bool
}

// NewMediaFetcher creates a fetcher over the shared HTTP client.
func NewMediaFetcher(client *HTTPClient, quiet bool) *MediaFetcher {
	return &MediaFetcher{client: client, quiet: quiet}
}

// Fetch downloads directURL to outputPath, writing through a temporary
// .part file so an interrupted run never leaves a truncated file at the
// final path.
func (f *MediaFetcher) Fetch(ctx context.Context, directURL, outputPath string) error {
	if err := validateOutputDir(outputPath); err != nil {
		return err
	}

	resp, err := f.client.Get(ctx, directURL, map[string]string{
		"Accept": "video/mp4,video/*;q=0.9,*/*;q=0.8",
	})
	if err != nil {
		return fmt.Errorf("failed to fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("media URL returned status %d", resp.StatusCode)
	}

	partPath := outputPath + ".part"
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	var reader io.Reader = resp.Body
	var bar *pb.ProgressBar
	if !f.quiet {
		bar = newProgressBar(resp.ContentLength)
		reader = bar.NewProxyReader(resp.Body)
	}

	written, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if bar != nil {
		bar.Finish()
	}

	if copyErr != nil {
		os.Remove(partPath)
		return fmt.Errorf("download interrupted after %d bytes: %w", written, copyErr)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to finalize output file: %w", closeErr)
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	log.Info().Str("path", outputPath).Int64("bytes", written).Msg("media saved")
	return nil
}

// newProgressBar builds the download bar. An unknown Content-Length still
// gets a byte counter, just without a percentage.
func newProgressBar(total int64) *pb.ProgressBar {
	var bar *pb.ProgressBar
	if total > 0 {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }}`
		bar = pb.ProgressBarTemplate(tmpl).Start64(total)
	} else {
		tmpl := `{{string . "prefix"}}{{counters . }} {{speed . }}`
		bar = pb.ProgressBarTemplate(tmpl).Start64(0)
	}
	bar.Set(pb.Bytes, true)
	bar.Set("prefix", "Downloading: ")
	return bar
}

// validateOutputDir checks the destination directory exists and is writable.
func validateOutputDir(outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	dir := filepath.Dir(outputPath)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}

	testFile := filepath.Join(dir, ".clipgate_write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("cannot write to output directory: %v", err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}
