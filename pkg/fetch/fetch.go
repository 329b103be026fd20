// Package fetch retrieves source archives for the installer.
package fetch

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arthur-debert/formulary/pkg/errors"
	"github.com/arthur-debert/formulary/pkg/logging"
	"github.com/spf13/afero"
)

// Fetcher returns the bytes stored at a URL.
type Fetcher interface {
	Fetch(rawURL string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(rawURL string) ([]byte, error)

func (f FetcherFunc) Fetch(rawURL string) ([]byte, error) { return f(rawURL) }

// HTTP fetches http and https URLs.
type HTTP struct {
	Client *http.Client
	Agent  string
}

// NewHTTP creates an HTTP fetcher. A zero timeout waits forever.
func NewHTTP(timeout time.Duration, agent string) *HTTP {
	return &HTTP{
		Client: &http.Client{Timeout: timeout},
		Agent:  agent,
	}
}

func (h *HTTP) Fetch(rawURL string) ([]byte, error) {
	logger := logging.GetLogger("fetch.http")

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "invalid archive url %s", rawURL)
	}
	if h.Agent != "" {
		req.Header.Set("User-Agent", h.Agent)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "failed to download %s", rawURL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf(errors.ErrFetchFailed, "download of %s returned %s", rawURL, resp.Status).
			WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "failed to read body of %s", rawURL)
	}
	logger.Debug().Str("url", rawURL).Int("bytes", len(data)).Msg("Downloaded archive")
	return data, nil
}

// File reads file:// URLs and bare paths from a filesystem.
type File struct {
	Fs afero.Fs
}

func (f *File) Fetch(rawURL string) ([]byte, error) {
	path := rawURL
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFetchFailed, "invalid archive url %s", rawURL)
		}
		path = u.Path
	}

	data, err := afero.ReadFile(f.Fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFetchFailed, "failed to read archive %s", path)
	}
	return data, nil
}

// Dispatcher routes a URL to the fetcher registered for its scheme.
type Dispatcher struct {
	schemes map[string]Fetcher
}

// NewDispatcher routes http and https to web, file URLs and bare paths to local.
func NewDispatcher(web, local Fetcher) *Dispatcher {
	return &Dispatcher{schemes: map[string]Fetcher{
		"http":  web,
		"https": web,
		"file":  local,
		"":      local,
	}}
}

// Default builds the dispatcher the CLI uses.
func Default(fs afero.Fs, timeout time.Duration, agent string) *Dispatcher {
	return NewDispatcher(NewHTTP(timeout, agent), &File{Fs: fs})
}

func (d *Dispatcher) Fetch(rawURL string) ([]byte, error) {
	scheme := ""
	if i := strings.Index(rawURL, "://"); i > 0 {
		scheme = strings.ToLower(rawURL[:i])
	}
	f, ok := d.schemes[scheme]
	if !ok || f == nil {
		return nil, errors.Newf(errors.ErrFetchFailed, "unsupported url scheme %q in %s", scheme, rawURL)
	}
	return f.Fetch(rawURL)
}
