// Package downloader batch-downloads every post matching a tag search.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dictor/gelbooru"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const defaultPageSize = 100

// Options configures a Downloader.
type Options struct {
	// Tags and ExcludeTags form the search every page is fetched
	// with.
	Tags        []string
	ExcludeTags []string

	// OutputDir receives the downloaded files, named the way the
	// server names them. It is created if missing.
	OutputDir string

	// LastID stops the run once post ids drop below it. Zero never
	// stops.
	LastID int

	// PageSize is the number of posts fetched per page. Defaults to
	// 100.
	PageSize int

	// Threads bounds the number of parallel downloads. Defaults to 1.
	Threads uint

	// Logger defaults to the logrus standard logger.
	Logger *logrus.Logger
}

// Downloader pages through a post search and downloads every file into a
// directory, skipping the ones already there.
type Downloader struct {
	client  *gelbooru.Client
	options Options
	log     *logrus.Logger
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
}

// New creates a Downloader on top of an existing API client.
func New(client *gelbooru.Client, options Options) *Downloader {
	if options.OutputDir == "" {
		options.OutputDir = "."
	}
	if options.PageSize <= 0 {
		options.PageSize = defaultPageSize
	}
	if options.Threads == 0 {
		options.Threads = 1
	}
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger()
	}

	return &Downloader{
		client:  client,
		options: options,
		log:     options.Logger,
		sem:     semaphore.NewWeighted(int64(options.Threads)),
	}
}

// Download runs the search-and-download loop until the search is
// exhausted, LastID is reached or ctx is cancelled. Cancelling stops the
// run cleanly with a nil error, transfers aborted by it included. Single
// files failing does not stop the run; the returned error sums them up.
func (d *Downloader) Download(ctx context.Context) error {
	if err := os.MkdirAll(d.options.OutputDir, 0o755); err != nil {
		return err
	}

	var downloaded, failed int32
	var attempted, skipped int

pages:
	for page := 0; ; page++ {
		if ctx.Err() != nil {
			break
		}

		d.log.WithField("page", page).Debug("downloader: fetching page")

		posts, err := d.client.SearchPosts(ctx, d.options.Tags, gelbooru.SearchOptions{
			ExcludeTags: d.options.ExcludeTags,
			Limit:       d.options.PageSize,
			Page:        page,
		})
		if errors.Is(err, context.Canceled) {
			break
		}
		if err != nil {
			d.wg.Wait()
			return err
		}

		if len(posts) == 0 {
			break
		}

		for _, post := range posts {
			if post.ID < d.options.LastID {
				d.log.WithField("id", post.ID).Info("downloader: reached last id")
				break pages
			}

			if d.exists(post.FileName) {
				skipped++
				d.log.WithField("file", post.FileName).Debug("downloader: already present")
				continue
			}

			if err := d.sem.Acquire(ctx, 1); err != nil {
				break pages
			}

			attempted++
			d.wg.Add(1)

			go func(post gelbooru.Post) {
				defer d.wg.Done()
				defer d.sem.Release(1)

				path := filepath.Join(d.options.OutputDir, post.FileName)
				err := post.Download(ctx, path, gelbooru.DownloadOptions{Client: d.client})
				if errors.Is(err, context.Canceled) {
					// An aborted transfer is the caller stopping the
					// run, not a failure.
					return
				}
				if err != nil {
					atomic.AddInt32(&failed, 1)
					d.log.WithError(err).WithField("file", post.FileName).Error("downloader: download failed")
					return
				}

				d.log.WithFields(logrus.Fields{
					"file": post.FileName,
					"done": atomic.AddInt32(&downloaded, 1),
				}).Info("downloader: downloaded")
			}(post)
		}
	}

	d.wg.Wait()

	d.log.WithFields(logrus.Fields{
		"downloaded": atomic.LoadInt32(&downloaded),
		"skipped":    skipped,
		"failed":     atomic.LoadInt32(&failed),
	}).Info("downloader: finished")

	if n := atomic.LoadInt32(&failed); n > 0 {
		return fmt.Errorf("%d of %d downloads failed", n, attempted)
	}

	return nil
}

func (d *Downloader) exists(file string) bool {
	_, err := os.Stat(filepath.Join(d.options.OutputDir, file))
	return err == nil
}
