package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
)

// WriteFunc is a callback that writes one row inside a transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers write operations and commits them in batches, one
// transaction per batch, on a single committer goroutine. Once a batch
// fails, later batches are discarded so Committed always counts a prefix
// of the submitted writes.
type BatchWriter struct {
	mu     sync.Mutex
	buf    []WriteFunc
	cap    int
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context

	commitCh chan []WriteFunc
	db       *sql.DB

	// OnCommit is called on the committer goroutine after every successful
	// batch with the running total of committed writes.
	OnCommit func(total int64)
	OnError  func(error)

	committed atomic.Int64

	// lastErr stores the first asynchronous error seen by the writer. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

// NewBatchWriter creates a new BatchWriter that commits a transaction every
// bufferSize writes. Cancelling ctx aborts the batch in flight and makes
// pending batches fail.
func NewBatchWriter(ctx context.Context, db *sql.DB, bufferSize int) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	bw := &BatchWriter{
		buf:      make([]WriteFunc, 0, bufferSize),
		cap:      bufferSize,
		ctx:      ctx,
		commitCh: make(chan []WriteFunc, 2), // Buffer a couple of batches
		db:       db,
	}

	bw.wg.Add(1)
	go bw.committer()
	return bw
}

// Submit enqueues a write function. It blocks while the committer is two
// batches behind.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.cap {
		bw.flushLocked()
	}
	return nil
}

// Committed returns the number of writes in committed batches.
func (bw *BatchWriter) Committed() int64 { return bw.committed.Load() }

// Err returns the first error seen so far.
func (bw *BatchWriter) Err() error {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

// flushLocked assumes bw.mu is held.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.cap)

	select {
	case bw.commitCh <- batch:
	case <-bw.ctx.Done():
		bw.record(fmt.Errorf("batch writer: dropping batch of %d items: %w", len(batch), bw.ctx.Err()))
	}
}

func (bw *BatchWriter) record(err error) {
	bw.errMu.Lock()
	first := bw.lastErr == nil
	if first {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		if bw.Err() != nil {
			continue
		}
		if err := bw.executeBatch(batch); err != nil {
			bw.record(err)
			continue
		}
		total := bw.committed.Add(int64(len(batch)))
		if bw.OnCommit != nil {
			bw.OnCommit(total)
		}
	}
}

func (bw *BatchWriter) executeBatch(batch []WriteFunc) error {
	tx, err := bw.db.BeginTx(bw.ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	for _, w := range batch {
		if err := w(bw.ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	return nil
}

// Close flushes the remaining writes, waits for the committer and returns
// the first error seen.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if len(bw.buf) > 0 {
		bw.flushLocked()
	}
	bw.mu.Unlock()

	close(bw.commitCh) // Stop committer loop
	bw.wg.Wait()

	return bw.Err()
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
