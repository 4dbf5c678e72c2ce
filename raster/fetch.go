package raster

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetcher downloads remote inputs to local files.
type Fetcher struct {
	Client   *http.Client
	Attempts uint
	Delay    time.Duration
}

// NewFetcher creates a fetcher with three attempts one second apart.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 5 * time.Minute},
		Attempts: 3,
		Delay:    time.Second,
	}
}

// Fetch downloads src into dir, keeping the URL's base name so the file
// type can still be detected from its extension. Transport errors and 5xx
// responses are retried.
func (f *Fetcher) Fetch(ctx context.Context, src, dir string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", src, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}
	dst := filepath.Join(dir, name)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := f.Attempts
	if attempts == 0 {
		attempts = 1
	}

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("unexpected status: %d", resp.StatusCode)
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}

			out, err := os.Create(dst)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if _, err := io.Copy(out, resp.Body); err != nil {
				out.Close()
				return err
			}
			return out.Close()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(f.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", strings.TrimSpace(src), err)
	}
	return dst, nil
}
