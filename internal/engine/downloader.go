package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/logger"
)

const (
	maxChunkAttempts = 3
	progressInterval = 500 * time.Millisecond
)

// Downloader fetches plugin archives with concurrent byte-range workers,
// reassembling directly into the destination file.
type Downloader struct {
	log    *logger.Logger
	httpc  *http.Client
	writer *FileWriter
	sink   *ProgressSink

	// backoff computes the delay before retrying a failed chunk; replaced
	// in tests.
	backoff func(attempt int) time.Duration
}

func NewDownloader(log *logger.Logger, writer *FileWriter, sink *ProgressSink) *Downloader {
	return &Downloader{
		log:    log,
		httpc:  &http.Client{Timeout: 0}, // long transfers; cancellation comes from ctx
		writer: writer,
		sink:   sink,
		backoff: func(attempt int) time.Duration {
			// 2s, 4s, 8s
			return time.Duration(1<<attempt) * 2 * time.Second
		},
	}
}

// Download fetches job.Plugin's archive to job.DestPath. On any failure or
// cancellation the partial destination file is removed; on success the
// file's SHA-256 has been verified against the catalog checksum.
func (d *Downloader) Download(ctx context.Context, job *domain.Job) error {
	err := d.download(ctx, job)
	if err != nil {
		d.writer.Discard(job.DestPath)
		if ctx.Err() != nil && !errors.Is(err, domain.ErrIntegrityMismatch) {
			return fmt.Errorf("%w: %s", domain.ErrDownloadCancelled, job.Plugin.ID)
		}
		return err
	}
	return nil
}

func (d *Downloader) download(ctx context.Context, job *domain.Job) error {
	// total is -1 when neither the server nor the probe can tell us the
	// size ahead of time.
	total, ranged, err := d.probe(ctx, job.Plugin.DownloadURL)
	if err != nil {
		return err
	}

	if total < 0 && job.Plugin.Size > 0 {
		total = job.Plugin.Size
	}
	if total > 0 {
		job.TotalBytes.Store(total)
	}
	job.BytesWritten.Store(0)
	job.StartedAt = time.Now()

	// Empty resource: nothing to transfer, but the integrity contract
	// still applies.
	if total == 0 {
		if err := d.writer.PreAllocate(job.DestPath, 0); err != nil {
			return err
		}
		if err := d.writer.Close(job.DestPath); err != nil {
			return err
		}
		return d.verify(job)
	}

	stopProgress := d.startProgressLoop(ctx, job)
	defer stopProgress()

	threads := job.Threads
	if threads < 1 {
		threads = 1
	}

	if !ranged || total < 0 || threads == 1 {
		if !ranged && threads > 1 {
			d.log.Info("server for %s does not support range requests, using a single stream", job.Plugin.ID)
		}
		err = d.singleStream(ctx, job)
	} else {
		if err := d.writer.PreAllocate(job.DestPath, total); err != nil {
			return err
		}
		err = d.runChunkPool(ctx, job, Partition(total, threads))
	}
	if err != nil {
		return err
	}

	if err := d.writer.Close(job.DestPath); err != nil {
		return err
	}

	return d.verify(job)
}

// probe issues a 1-byte range request to learn the total size and whether
// the server honors ranges. A 200 response means ranges are not supported;
// the body is discarded either way.
func (d *Downloader) probe(ctx context.Context, url string) (total int64, ranged bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := d.httpc.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		return parseContentRangeTotal(resp.Header.Get("Content-Range")), true, nil
	case http.StatusRequestedRangeNotSatisfiable:
		// an empty resource cannot satisfy bytes=0-0; Content-Range still
		// carries the (zero) total
		return parseContentRangeTotal(resp.Header.Get("Content-Range")), true, nil
	case http.StatusOK:
		return resp.ContentLength, false, nil
	default:
		return 0, false, fmt.Errorf("%w: server returned status %d", domain.ErrNetworkUnavailable, resp.StatusCode)
	}
}

// parseContentRangeTotal extracts N from "bytes 0-0/N" or "bytes */N";
// -1 when the server reports an unknown total ("bytes 0-0/*").
func parseContentRangeTotal(header string) int64 {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 {
		return -1
	}
	n, err := strconv.ParseInt(header[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// singleStream downloads the whole resource with one sequential request,
// used when the server rejects ranges, the size is unknown, or only one
// worker was requested.
func (d *Downloader) singleStream(ctx context.Context, job *domain.Job) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.Plugin.DownloadURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}

	resp, err := d.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: server returned status %d", domain.ErrNetworkUnavailable, resp.StatusCode)
	}

	if job.TotalBytes.Load() <= 0 && resp.ContentLength > 0 {
		job.TotalBytes.Store(resp.ContentLength)
	}

	buf := make([]byte, 64<<10)
	var offset int64
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if werr := d.writer.WriteAt(job.DestPath, buf[:n], offset); werr != nil {
				return werr
			}
			offset += int64(n)
			job.BytesWritten.Add(int64(n))
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("%w: %v", domain.ErrNetworkUnavailable, rerr)
		}
	}
}

// verify streams the finished file through SHA-256 and compares it to the
// catalog checksum. A mismatch deletes the file; a catalog without a
// checksum skips the check.
func (d *Downloader) verify(job *domain.Job) error {
	want := strings.ToLower(job.Plugin.Checksum)
	if want == "" {
		d.log.Debug("no checksum published for %s, skipping verification", job.Plugin.ID)
		return nil
	}

	f, err := os.Open(job.DestPath)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("%w: %s: got %s want %s", domain.ErrIntegrityMismatch, job.Plugin.ID, got, want)
	}

	return nil
}

// startProgressLoop emits aggregate progress at a bounded interval rather
// than per byte. The returned stop function is safe to call more than
// once.
func (d *Downloader) startProgressLoop(ctx context.Context, job *domain.Job) func() {
	if d.sink == nil {
		return func() {}
	}

	done := make(chan struct{})
	var once func()

	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.sink.Emit(domain.ProgressEvent{
					JobID: job.ID,
					Phase: domain.PhaseDownloading,
					Done:  job.BytesWritten.Load(),
					Total: job.TotalBytes.Load(),
				})
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var closed bool
	once = func() {
		if !closed {
			closed = true
			close(done)
		}
	}
	return once
}
