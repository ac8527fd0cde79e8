// Package fetch downloads a WordNet archive and extracts its XML payload.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/oewn/pkg/logging"
	"github.com/japaniel/oewn/pkg/progress"
	"github.com/japaniel/oewn/pkg/wnerr"
)

const (
	defaultUserAgent = "oewn-cli"
	partialName      = "download.part"
)

// Fetcher retrieves archives over HTTP(S) or from the local filesystem.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	// Member is the preferred XML member name inside tar and zip archives.
	Member string
	// ProgressInterval bounds how often progress is reported per phase.
	ProgressInterval time.Duration
	Logger           *zap.Logger
}

// New returns a Fetcher with an HTTP client using timeout.
func New(timeout time.Duration, member string) *Fetcher {
	return &Fetcher{
		Client:           &http.Client{Timeout: timeout},
		UserAgent:        defaultUserAgent,
		Member:           member,
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Scoped creates a temporary directory under parent (the system temp dir
// when empty), fetches source into it and calls fn with the extracted XML
// path. The directory is removed when Scoped returns, whatever the outcome.
func (f *Fetcher) Scoped(ctx context.Context, source, parent string, sink progress.Sink, fn func(xmlPath string) error) error {
	dir, err := os.MkdirTemp(parent, ".oewn-fetch-*")
	if err != nil {
		return wnerr.Archive("create temp dir", err)
	}
	defer os.RemoveAll(dir)

	xmlPath, err := f.Fetch(ctx, source, dir, sink)
	if err != nil {
		return err
	}
	return fn(xmlPath)
}

// Fetch downloads source into destDir, validates it and extracts the single
// XML member. It returns the path of the extracted file. The downloaded
// archive itself is always removed.
func (f *Fetcher) Fetch(ctx context.Context, source, destDir string, sink progress.Sink) (string, error) {
	log := logging.OrNop(f.Logger)
	sink = progress.Throttle(sink, f.ProgressInterval)
	archive := filepath.Join(destDir, partialName)
	defer os.Remove(archive)

	start := time.Now()
	n, err := f.download(ctx, source, archive, sink)
	if err != nil {
		return "", err
	}
	log.Info("archive downloaded", zap.String("source", source), zap.Int64("bytes", n), zap.Duration("took", time.Since(start)))

	xmlPath, err := f.extract(ctx, archive, destDir, sink)
	if err != nil {
		return "", err
	}
	log.Info("archive extracted", zap.String("path", xmlPath))
	return xmlPath, nil
}

func (f *Fetcher) download(ctx context.Context, source, dest string, sink progress.Sink) (int64, error) {
	body, total, err := f.open(ctx, source)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, wnerr.Archive("create download file", err)
	}

	pr := &progressReader{r: &ctxReader{ctx: ctx, r: body}, sink: sink, phase: progress.PhaseDownload, total: total}
	n, err := io.Copy(out, pr)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		if pr.readErr != nil {
			return n, wnerr.Transport("read body", pr.readErr)
		}
		return n, wnerr.Archive("write download file", err)
	}
	sink.Report(progress.Update{Phase: progress.PhaseDownload, Current: n, Total: n})
	return n, nil
}

// open returns the source byte stream and its length, or -1 when unknown.
func (f *Fetcher) open(ctx context.Context, source string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.get(ctx, source)
	}
	path := source
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, wnerr.Transport("open source", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, wnerr.Transport("stat source", err)
	}
	return file, info.Size(), nil
}

func (f *Fetcher) get(ctx context.Context, source string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, 0, wnerr.Transport("build request", err)
	}
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, wnerr.Transport("get "+source, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, wnerr.Transport("get "+source, fmt.Errorf("%w: %s", wnerr.ErrBadStatus, resp.Status))
	}
	return resp.Body, resp.ContentLength, nil
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// progressReader counts bytes and remembers read errors so callers can tell
// them apart from write errors after io.Copy.
type progressReader struct {
	r       io.Reader
	sink    progress.Sink
	phase   progress.Phase
	total   int64
	n       int64
	readErr error
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.n += int64(n)
	if n > 0 {
		p.sink.Report(progress.Update{Phase: p.phase, Current: p.n, Total: p.total})
	}
	if err != nil && err != io.EOF {
		p.readErr = err
	}
	return n, err
}

func safeName(name, fallback string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" || base == "" {
		return fallback
	}
	return base
}
