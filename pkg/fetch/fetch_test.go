package fetch

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/oewn/internal/testfixture"
	"github.com/japaniel/oewn/pkg/progress"
	"github.com/japaniel/oewn/pkg/wnerr"
)

func serve(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher() *Fetcher {
	f := New(0, "")
	f.ProgressInterval = 0
	return f
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tarGzArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetchGzipOverHTTP(t *testing.T) {
	srv := serve(t, http.StatusOK, testfixture.Gzip(t))

	var updates []progress.Update
	sink := func(u progress.Update) { updates = append(updates, u) }

	path, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/wn.xml.gz", t.TempDir(), sink)
	require.NoError(t, err)
	assert.Equal(t, fallbackName, filepath.Base(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testfixture.LMF, string(got))

	_, err = os.Stat(filepath.Join(filepath.Dir(path), partialName))
	assert.True(t, os.IsNotExist(err), "downloaded archive should be removed")

	last := map[progress.Phase]progress.Update{}
	for _, u := range updates {
		last[u.Phase] = u
	}
	require.Contains(t, last, progress.PhaseDownload)
	require.Contains(t, last, progress.PhaseExtract)
	assert.Equal(t, int64(len(testfixture.LMF)), last[progress.PhaseExtract].Current)
	assert.Equal(t, last[progress.PhaseExtract].Current, last[progress.PhaseExtract].Total)
	assert.Equal(t, last[progress.PhaseDownload].Current, last[progress.PhaseDownload].Total)
}

func TestFetchUsesMemberNameForPlainGzip(t *testing.T) {
	srv := serve(t, http.StatusOK, testfixture.Gzip(t))
	f := newTestFetcher()
	f.Member = "english-wordnet-2024.xml"

	path, err := f.Fetch(context.Background(), srv.URL, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "english-wordnet-2024.xml", filepath.Base(path))
}

func TestFetchBadStatus(t *testing.T) {
	srv := serve(t, http.StatusNotFound, []byte("not here"))

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, wnerr.Is(err, wnerr.KindTransport))
	assert.ErrorIs(t, err, wnerr.ErrBadStatus)
}

func TestFetchUnsupportedArchive(t *testing.T) {
	srv := serve(t, http.StatusOK, []byte("this is not an archive at all"))

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, wnerr.Is(err, wnerr.KindArchive))
	assert.ErrorIs(t, err, wnerr.ErrUnsupportedArchive)
}

func TestFetchTruncatedGzip(t *testing.T) {
	full := testfixture.Gzip(t)
	srv := serve(t, http.StatusOK, full[:len(full)/2])
	dir := t.TempDir()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, dir, nil)
	require.Error(t, err)
	assert.True(t, wnerr.Is(err, wnerr.KindArchive))
	assert.ErrorIs(t, err, wnerr.ErrCorruptArchive)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial output may remain")
}

func TestFetchZip(t *testing.T) {
	cases := []struct {
		name    string
		files   map[string]string
		want    string
		wantErr error
	}{
		{
			name:  "single xml member",
			files: map[string]string{"README.md": "hello", "wn/english-wordnet.xml": testfixture.LMF},
			want:  "english-wordnet.xml",
		},
		{
			name:    "no xml member",
			files:   map[string]string{"README.md": "hello"},
			wantErr: wnerr.ErrMissingMember,
		},
		{
			name:    "two xml members",
			files:   map[string]string{"a.xml": "<a/>", "b.xml": "<b/>"},
			wantErr: wnerr.ErrAmbiguousMember,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, zipArchive(t, tc.files))
			path, err := newTestFetcher().Fetch(context.Background(), srv.URL, t.TempDir(), nil)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, wnerr.Is(err, wnerr.KindArchive))
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, filepath.Base(path))
			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, testfixture.LMF, string(got))
		})
	}
}

func TestFetchZipPrefersNamedMember(t *testing.T) {
	srv := serve(t, http.StatusOK, zipArchive(t, map[string]string{"a.xml": "<a/>", "b.xml": "<b/>"}))
	f := newTestFetcher()
	f.Member = "b.xml"

	path, err := f.Fetch(context.Background(), srv.URL, t.TempDir(), nil)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<b/>", string(got))
}

func TestFetchTarGz(t *testing.T) {
	srv := serve(t, http.StatusOK, tarGzArchive(t, map[string]string{
		"english-wordnet/LICENSE":   "CC BY 4.0",
		"english-wordnet/oewn.xml":  testfixture.LMF,
		"english-wordnet/README.md": "readme",
	}))

	path, err := newTestFetcher().Fetch(context.Background(), srv.URL, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, "oewn.xml", filepath.Base(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testfixture.LMF, string(got))
}

func TestFetchLocalPath(t *testing.T) {
	src := filepath.Join(t.TempDir(), "wn.xml.gz")
	require.NoError(t, os.WriteFile(src, testfixture.Gzip(t), 0o644))

	for _, source := range []string{src, "file://" + src} {
		path, err := newTestFetcher().Fetch(context.Background(), source, t.TempDir(), nil)
		require.NoError(t, err, source)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, testfixture.LMF, string(got))
	}
}

func TestFetchMissingLocalPath(t *testing.T) {
	_, err := newTestFetcher().Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.gz"), t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, wnerr.Is(err, wnerr.KindTransport))
}

func TestScopedRemovesTempDir(t *testing.T) {
	srv := serve(t, http.StatusOK, testfixture.Gzip(t))
	parent := t.TempDir()

	var seen string
	err := newTestFetcher().Scoped(context.Background(), srv.URL, parent, nil, func(xmlPath string) error {
		seen = xmlPath
		_, err := os.Stat(xmlPath)
		return err
	})
	require.NoError(t, err)
	assert.NotEmpty(t, seen)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScopedCancelled(t *testing.T) {
	srv := serve(t, http.StatusOK, testfixture.Gzip(t))
	parent := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := newTestFetcher().Scoped(ctx, srv.URL, parent, nil, func(string) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPickMember(t *testing.T) {
	got, err := pickMember([]string{"dir/x.XML", "notes.txt"}, "")
	require.NoError(t, err)
	assert.Equal(t, "dir/x.XML", got)

	got, err = pickMember([]string{"dir/a.xml", "dir/b.xml"}, "a.xml")
	require.NoError(t, err)
	assert.Equal(t, "dir/a.xml", got)
}
