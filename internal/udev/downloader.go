package udev

import (
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultDownloadTimeout bounds the rules file fetch. The file is tiny,
// but slow links behind captive portals have been seen to stall for minutes.
const DefaultDownloadTimeout = 5 * time.Minute

// Downloader fetches the udev rules file over HTTP.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a Downloader with the default timeout.
func NewDownloader() *Downloader {
	return NewDownloaderWithTimeout(DefaultDownloadTimeout)
}

// NewDownloaderWithTimeout creates a Downloader with a custom timeout.
func NewDownloaderWithTimeout(timeout time.Duration) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Download fetches url into destination.
func (d *Downloader) Download(url, destination string) error {
	resp, err := d.client.Get(url)
	if err != nil {
		return NewDownloadError(err, url, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewDownloadError(nil, url, resp.StatusCode)
	}

	out, err := os.Create(destination)
	if err != nil {
		return NewDownloadError(err, url, 0)
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return NewDownloadError(err, url, 0)
	}

	return nil
}
