package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads pages and files for the scraper and source downloads.
type Fetcher interface {
	// Download fetches the URL and returns the response body decoded to UTF-8.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// FetchPage fetches an HTML page and returns it as a string.
	FetchPage(ctx context.Context, url string) (string, error)
}
