package engine

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/logger"
)

func testBlob(t *testing.T, size int) ([]byte, string) {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:])
}

func rangeServer(data []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "blob", time.Now(), bytes.NewReader(data))
	}))
}

func newTestDownloader() *Downloader {
	d := NewDownloader(logger.Discard(), NewFileWriter(), nil)
	d.backoff = func(int) time.Duration { return time.Millisecond }
	return d
}

func newTestJob(url, dest string, data []byte, checksum string, threads int) *domain.Job {
	return &domain.Job{
		ID: "job-test",
		Plugin: domain.Plugin{
			ID:          "demo_plugin",
			Size:        int64(len(data)),
			Checksum:    checksum,
			DownloadURL: url,
		},
		DestPath: dest,
		Threads:  threads,
	}
}

func TestDownloadChunkedMatchesSource(t *testing.T) {
	for _, threads := range []int{1, 2, 4, 8} {
		data, checksum := testBlob(t, 1000)
		srv := rangeServer(data)

		dest := filepath.Join(t.TempDir(), "plugin.bin")
		job := newTestJob(srv.URL, dest, data, checksum, threads)

		err := newTestDownloader().Download(context.Background(), job)
		require.NoError(t, err, "threads=%d", threads)

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, data, got, "threads=%d", threads)
		assert.Equal(t, int64(len(data)), job.TotalBytes.Load())

		srv.Close()
	}
}

func TestDownloadFallsBackWithoutRangeSupport(t *testing.T) {
	data, checksum := testBlob(t, 4096)

	// plain handler: ignores Range, always 200 with the whole body
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, data, checksum, 8)

	err := newTestDownloader().Download(context.Background(), job)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDownloadIntegrityMismatchDeletesFile(t *testing.T) {
	data, _ := testBlob(t, 2048)
	srv := rangeServer(data)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, data, strings.Repeat("ab", 32), 4)

	err := newTestDownloader().Download(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIntegrityMismatch)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial file must not be left behind")
}

func TestDownloadCancelLeavesNoFile(t *testing.T) {
	data, checksum := testBlob(t, 1<<20)

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") == "bytes=0-0" {
			http.ServeContent(w, r, "blob", time.Now(), bytes.NewReader(data))
			return
		}
		// stall the real transfer until the test cancels
		<-release
		http.ServeContent(w, r, "blob", time.Now(), bytes.NewReader(data))
	}))
	defer srv.Close()
	defer close(release)

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, data, checksum, 4)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := newTestDownloader().Download(ctx, job)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadCancelled)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "cancelled download must clean up")
}

func TestDownloadRetriesFailedChunk(t *testing.T) {
	data, checksum := testBlob(t, 8192)

	var failures atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// fail the first non-probe range request once
		if r.Header.Get("Range") != "bytes=0-0" && failures.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, "blob", time.Now(), bytes.NewReader(data))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, data, checksum, 4)

	err := newTestDownloader().Download(context.Background(), job)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.GreaterOrEqual(t, failures.Load(), int32(1))
}

func TestDownloadCancelDuringRetryBackoff(t *testing.T) {
	data, checksum := testBlob(t, 8192)

	// probe succeeds, every real range request fails, so all chunks sit in
	// retry backoff when the cancel lands
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") == "bytes=0-0" {
			http.ServeContent(w, r, "blob", time.Now(), bytes.NewReader(data))
			return
		}
		http.Error(w, "flaky", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, data, checksum, 4)

	d := NewDownloader(logger.Discard(), NewFileWriter(), nil)
	d.backoff = func(int) time.Duration { return time.Minute }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := d.Download(ctx, job)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadCancelled)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadEmptyResource(t *testing.T) {
	data, checksum := testBlob(t, 0)
	srv := rangeServer(data)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, data, checksum, 8)

	err := newTestDownloader().Download(context.Background(), job)
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestDownloadEmptyResourceChecksumMismatch(t *testing.T) {
	srv := rangeServer(nil)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "plugin.bin")
	job := newTestJob(srv.URL, dest, nil, strings.Repeat("cd", 32), 8)

	err := newTestDownloader().Download(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrIntegrityMismatch)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestParseContentRangeTotal(t *testing.T) {
	assert.Equal(t, int64(1024), parseContentRangeTotal("bytes 0-0/1024"))
	assert.Equal(t, int64(0), parseContentRangeTotal("bytes */0"))
	assert.Equal(t, int64(-1), parseContentRangeTotal("bytes 0-0/*"))
	assert.Equal(t, int64(-1), parseContentRangeTotal("garbage"))
}
