package gelbooru

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
)

// downloadClient serves downloads that are not tied to a Client.
var downloadClient = resty.New()

// DownloadOptions configures where a download's bytes come from.
type DownloadOptions struct {
	// Client reuses an API client's connections instead of the
	// package's own transport.
	Client *Client
}

// Download streams the post's file to the given path. An empty path
// defaults to the post's file name; a path without an extension gets the
// post's one appended. The file is created only once the server has
// answered OK, so a refused download leaves nothing behind; a transfer
// failing mid-copy leaves the partial file and surfaces the transport
// error.
func (p Post) Download(ctx context.Context, path string, options ...DownloadOptions) error {
	body, err := p.fetch(ctx, options...)
	if err != nil {
		return err
	}
	defer body.Close()

	file, err := os.Create(p.targetPath(path))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, body)
	return err
}

// DownloadTo streams the post's file to the given sink.
func (p Post) DownloadTo(ctx context.Context, w io.Writer, options ...DownloadOptions) error {
	body, err := p.fetch(ctx, options...)
	if err != nil {
		return err
	}
	defer body.Close()

	_, err = io.Copy(w, body)
	return err
}

func (p Post) fetch(ctx context.Context, options ...DownloadOptions) (io.ReadCloser, error) {
	httpc := downloadClient
	if len(options) > 0 && options[0].Client != nil {
		httpc = options[0].Client.http
	}

	resp, err := httpc.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(p.FileURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		resp.RawBody().Close()
		return nil, fmt.Errorf("%w: %d", ErrNotOK, resp.StatusCode())
	}

	return resp.RawBody(), nil
}

func (p Post) targetPath(path string) string {
	if path == "" {
		return p.FileName
	}
	if filepath.Ext(path) == "" {
		return path + p.Extension()
	}
	return path
}
