package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cloudpe/pemarket/internal/domain"
)

// runChunkPool downloads every chunk with a fixed pool of range workers.
// Each chunk retries independently of its siblings; the job fails only
// when a chunk exhausts its attempts.
func (d *Downloader) runChunkPool(ctx context.Context, job *domain.Job, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	workerCount := job.Threads
	if workerCount > len(chunks) {
		workerCount = len(chunks)
	}

	// Buffer covers the initial dispatch plus re-queued retries.
	jobs := make(chan *Chunk, len(chunks)+workerCount)
	results := make(chan chunkResult, len(chunks)+workerCount)

	var wg sync.WaitGroup

	// Scheduled retries can outlive the collector loop when the job is
	// cancelled mid-backoff. jobs must stay open until every re-queue has
	// either sent or seen quit, so the teardown order is: quit, wait for
	// retries, then close.
	quit := make(chan struct{})
	var retries sync.WaitGroup

	defer func() {
		close(quit)
		retries.Wait()
		close(jobs)
		wg.Wait()
	}()

	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.chunkWorker(ctx, job, jobs, results)
		}()
	}

	for _, c := range chunks {
		c.Status = ChunkPending
		jobs <- c
	}

	completed := 0
	var finalErr error

	for completed < len(chunks) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-results:
			if res.err != nil {
				res.chunk.Attempts++
				if res.chunk.Attempts < maxChunkAttempts {
					delay := d.backoff(res.chunk.Attempts)
					d.log.Warn("[retry] chunk %d of %s: attempt %d/%d: %v",
						res.chunk.Index, job.Plugin.ID, res.chunk.Attempts, maxChunkAttempts, res.err)

					// Re-queue off this loop so result collection never
					// blocks on a full jobs channel.
					c := res.chunk
					retries.Add(1)
					go func() {
						defer retries.Done()
						select {
						case <-quit:
							return
						case <-time.After(delay):
						}
						select {
						case <-quit:
						case jobs <- c:
						}
					}()
					continue
				}

				res.chunk.Status = ChunkFailed
				d.log.Error("chunk %d of %s permanently failed: %v", res.chunk.Index, job.Plugin.ID, res.err)
				finalErr = fmt.Errorf("%w: chunk %d failed after %d attempts: %v",
					domain.ErrNetworkUnavailable, res.chunk.Index, res.chunk.Attempts, res.err)
			} else {
				res.chunk.Status = ChunkDone
			}
			completed++
		}
	}

	return finalErr
}

func (d *Downloader) chunkWorker(ctx context.Context, job *domain.Job, jobs <-chan *Chunk, results chan<- chunkResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-jobs:
			if !ok {
				return
			}
			err := d.fetchChunk(ctx, job, c)
			select {
			case results <- chunkResult{chunk: c, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// fetchChunk requests the chunk's exact byte range and writes it straight
// into the destination at its own offset. On failure any bytes already
// counted for this chunk are rolled back so aggregate progress stays
// honest across retries.
func (d *Downloader) fetchChunk(ctx context.Context, job *domain.Job, c *Chunk) (err error) {
	c.Status = ChunkInFlight
	c.Received = 0

	defer func() {
		if err != nil && c.Received > 0 {
			job.BytesWritten.Add(-c.Received)
			c.Received = 0
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.Plugin.DownloadURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", c.Offset, c.Offset+c.Length-1))

	resp, err := d.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("range request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: expected 206, got %d", domain.ErrRangeNotSupported, resp.StatusCode)
	}

	buf := make([]byte, 64<<10)
	body := io.LimitReader(resp.Body, c.Length)

	for c.Received < c.Length {
		n, rerr := body.Read(buf)
		if n > 0 {
			if werr := d.writer.WriteAt(job.DestPath, buf[:n], c.Offset+c.Received); werr != nil {
				return fmt.Errorf("write error: %w", werr)
			}
			c.Received += int64(n)
			job.BytesWritten.Add(int64(n))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("read error: %w", rerr)
		}
	}

	if c.Received != c.Length {
		return fmt.Errorf("short read: got %d of %d bytes", c.Received, c.Length)
	}

	return nil
}
