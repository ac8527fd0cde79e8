package fetch

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/japaniel/oewn/pkg/progress"
	"github.com/japaniel/oewn/pkg/wnerr"
)

const fallbackName = "payload.xml"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
)

func (f *Fetcher) extract(ctx context.Context, archive, destDir string, sink progress.Sink) (string, error) {
	head := make([]byte, 4)
	file, err := os.Open(archive)
	if err != nil {
		return "", wnerr.Archive("open archive", err)
	}
	n, _ := io.ReadFull(file, head)
	file.Close()
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return f.extractGzip(ctx, archive, destDir, sink)
	case bytes.HasPrefix(head, zipMagic):
		return f.extractZip(ctx, archive, destDir, sink)
	}
	return "", wnerr.Archive("detect format", wnerr.ErrUnsupportedArchive)
}

func (f *Fetcher) extractGzip(ctx context.Context, archive, destDir string, sink progress.Sink) (string, error) {
	file, err := os.Open(archive)
	if err != nil {
		return "", wnerr.Archive("open archive", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return "", wnerr.Archive("read gzip header", fmt.Errorf("%w: %v", wnerr.ErrCorruptArchive, err))
	}
	defer zr.Close()

	br := bufio.NewReaderSize(zr, 1024)
	if peek, _ := br.Peek(262); len(peek) >= 262 && string(peek[257:262]) == "ustar" {
		file.Close()
		return f.extractTar(ctx, archive, destDir, sink)
	}

	name := f.Member
	if name == "" {
		name = strings.TrimSuffix(zr.Name, ".gz")
	}
	return f.writeMember(ctx, br, filepath.Join(destDir, safeName(name, fallbackName)), progress.Unknown, sink)
}

// extractTar reads the tar stream twice: once to choose the member, once to
// copy it.
func (f *Fetcher) extractTar(ctx context.Context, archive, destDir string, sink progress.Sink) (string, error) {
	var names []string
	err := walkTar(archive, func(h *tar.Header, _ io.Reader) (bool, error) {
		if h.Typeflag == tar.TypeReg {
			names = append(names, h.Name)
		}
		return false, nil
	})
	if err != nil {
		return "", err
	}
	want, err := pickMember(names, f.Member)
	if err != nil {
		return "", err
	}

	var out string
	err = walkTar(archive, func(h *tar.Header, r io.Reader) (bool, error) {
		if h.Typeflag != tar.TypeReg || h.Name != want {
			return false, nil
		}
		var werr error
		out, werr = f.writeMember(ctx, r, filepath.Join(destDir, safeName(h.Name, fallbackName)), h.Size, sink)
		return true, werr
	})
	return out, err
}

func walkTar(archive string, fn func(*tar.Header, io.Reader) (stop bool, err error)) error {
	file, err := os.Open(archive)
	if err != nil {
		return wnerr.Archive("open archive", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return wnerr.Archive("read gzip header", fmt.Errorf("%w: %v", wnerr.ErrCorruptArchive, err))
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wnerr.Archive("read tar", fmt.Errorf("%w: %v", wnerr.ErrCorruptArchive, err))
		}
		stop, err := fn(h, tr)
		if err != nil || stop {
			return err
		}
	}
}

func (f *Fetcher) extractZip(ctx context.Context, archive, destDir string, sink progress.Sink) (string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", wnerr.Archive("open zip", fmt.Errorf("%w: %v", wnerr.ErrCorruptArchive, err))
	}
	defer zr.Close()

	var names []string
	for _, zf := range zr.File {
		if !zf.FileInfo().IsDir() {
			names = append(names, zf.Name)
		}
	}
	want, err := pickMember(names, f.Member)
	if err != nil {
		return "", err
	}

	for _, zf := range zr.File {
		if zf.Name != want {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", wnerr.Archive("open zip member", fmt.Errorf("%w: %v", wnerr.ErrCorruptArchive, err))
		}
		defer rc.Close()
		return f.writeMember(ctx, rc, filepath.Join(destDir, safeName(zf.Name, fallbackName)), int64(zf.UncompressedSize64), sink)
	}
	return "", wnerr.Archive("select member", wnerr.ErrMissingMember)
}

// pickMember chooses the member named want, or else the only *.xml member.
func pickMember(names []string, want string) (string, error) {
	var xml []string
	for _, n := range names {
		if want != "" && (n == want || safeName(n, "") == want) {
			return n, nil
		}
		if strings.HasSuffix(strings.ToLower(n), ".xml") {
			xml = append(xml, n)
		}
	}
	switch len(xml) {
	case 0:
		return "", wnerr.Archive("select member", wnerr.ErrMissingMember)
	case 1:
		return xml[0], nil
	}
	return "", wnerr.Archive("select member", fmt.Errorf("%w: %s", wnerr.ErrAmbiguousMember, strings.Join(xml, ", ")))
}

// writeMember copies r to dest. Decompression failures are reported as a
// corrupt archive; an empty member counts as missing.
func (f *Fetcher) writeMember(ctx context.Context, r io.Reader, dest string, total int64, sink progress.Sink) (string, error) {
	out, err := os.Create(dest)
	if err != nil {
		return "", wnerr.Archive("create member file", err)
	}
	pr := &progressReader{r: &ctxReader{ctx: ctx, r: r}, sink: sink, phase: progress.PhaseExtract, total: total}
	n, err := io.Copy(out, pr)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = wnerr.ErrMissingMember
	}
	if err != nil {
		os.Remove(dest)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return "", wnerr.Archive("extract", err)
		case pr.readErr != nil:
			return "", wnerr.Archive("extract", fmt.Errorf("%w: %v", wnerr.ErrCorruptArchive, pr.readErr))
		}
		return "", wnerr.Archive("extract", err)
	}
	sink.Report(progress.Update{Phase: progress.PhaseExtract, Current: n, Total: n})
	return dest, nil
}
