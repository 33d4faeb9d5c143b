package imaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/snapkeep/printworks/internal/model"
	"github.com/snapkeep/printworks/pkg/httpclient"
	"github.com/snapkeep/printworks/pkg/workerpool"
)

// LocalImage is one downloaded photo on disk. It is owned exclusively by the
// pipeline run that created it and is removed at cleanup whatever happens.
type LocalImage struct {
	Path string
	Name string
}

// Downloader fetches one image. Returns the raw bytes and the content type.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPDownloader fetches images over HTTP with retries.
type HTTPDownloader struct {
	Timeout time.Duration
}

func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	resp, err := httpclient.Get(url).
		WithContext(ctx).
		Timeout(timeout).
		Retry(3, time.Second).
		Send()
	if err != nil {
		return nil, "", err
	}
	if err := resp.Throw(); err != nil {
		return nil, "", err
	}
	return resp.Raw, resp.ContentType(), nil
}

// Acquirer downloads every eligible photo of an order concurrently.
type Acquirer struct {
	policy      *Policy
	urls        URLBuilder
	dl          Downloader
	concurrency int
	log         *slog.Logger
}

// NewAcquirer wires the fan-out. concurrency bounds how many photos are
// downloaded at once.
func NewAcquirer(policy *Policy, urls URLBuilder, dl Downloader, concurrency int, log *slog.Logger) *Acquirer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Acquirer{policy: policy, urls: urls, dl: dl, concurrency: concurrency, log: log}
}

// Acquire downloads every photo the user is still eligible for into dir and
// returns the local images in a stable order.
//
// The fan-out has join semantics: it returns only after every photo has
// resolved. A failed photo never vanishes silently — all failures are
// aggregated into the returned error.
func (a *Acquirer) Acquire(ctx context.Context, user *model.User, order *model.Order, dir string) ([]LocalImage, error) {
	photos := a.eligible(user, order)
	if len(photos) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imaging: create dir %s: %w", dir, err)
	}

	// Names are assigned sequentially before the fan-out so they are
	// deterministic and collision-free.
	names := a.assignNames(user, photos)

	type result struct {
		image LocalImage
		err   error
	}
	results := make([]result, len(photos))

	pool := workerpool.New(a.concurrency)
	defer pool.Shutdown()

	for i, photo := range photos {
		i, photo := i, photo
		pool.Submit(func() {
			img, err := a.fetchOne(ctx, photo, dir, names[i])
			results[i] = result{image: img, err: err}
		})
	}
	pool.Join()

	var images []LocalImage
	var errs []error
	for i, res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("photo %s: %w", photos[i].SourceURL, res.err))
			continue
		}
		images = append(images, res.image)
	}

	a.log.Info("acquired images",
		"user", user.Username, "requested", len(photos), "saved", len(images))

	if len(errs) > 0 {
		return images, fmt.Errorf("imaging: %d of %d photos failed: %w",
			len(errs), len(photos), errors.Join(errs...))
	}
	return images, nil
}

// eligible returns the order's photos whose origin service the user still
// has linked, iterating the closed service set in a fixed order.
func (a *Acquirer) eligible(user *model.User, order *model.Order) []model.Photo {
	groups := order.PhotosByService()

	var out []model.Photo
	for _, service := range model.KnownServices {
		if !user.HasService(service) {
			continue
		}
		out = append(out, groups[service]...)
	}
	return out
}

func (a *Acquirer) fetchOne(ctx context.Context, photo model.Photo, dir, name string) (LocalImage, error) {
	ins := a.policy.Plan(photo.Width, photo.Height, photo.Product)
	target := a.urls.DerivedURL(photo.SourceURL, ins)

	data, contentType, err := a.dl.Download(ctx, target)
	if err != nil {
		return LocalImage{}, err
	}

	filename := name + extensionFor(contentType, photo.SourceURL)
	full := filepath.Join(dir, filename)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return LocalImage{}, fmt.Errorf("write %s: %w", full, err)
	}

	return LocalImage{Path: full, Name: filename}, nil
}

// assignNames produces the legacy-compatible base name for each photo:
// <username>-<source basename without extension>, deduplicated with a
// numeric suffix.
func (a *Acquirer) assignNames(user *model.User, photos []model.Photo) []string {
	used := map[string]int{}
	names := make([]string, len(photos))

	for i, photo := range photos {
		base := legacyBaseName(user.Username, photo.SourceURL)
		used[base]++
		if n := used[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}
		names[i] = base
	}
	return names
}

func legacyBaseName(username, sourceURL string) string {
	base := path.Base(sourceURL)
	if idx := strings.IndexByte(base, '?'); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	return username + "-" + base
}

// extensionFor normalizes the file extension to the detected image mime
// type, falling back to the source URL's extension, then to .jpg.
func extensionFor(contentType, sourceURL string) string {
	switch {
	case strings.Contains(contentType, "image/jpeg"),
		strings.Contains(contentType, "image/jpg"):
		return ".jpg"
	case strings.Contains(contentType, "image/png"):
		return ".png"
	}

	src := sourceURL
	if idx := strings.IndexByte(src, '?'); idx >= 0 {
		src = src[:idx]
	}
	if ext := path.Ext(src); ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
		if ext == ".jpeg" {
			return ".jpg"
		}
		return ext
	}
	return ".jpg"
}
