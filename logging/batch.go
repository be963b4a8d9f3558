// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// Batching defaults used by the application: 100 entries or 50ms.
const (
	DefaultBatchSize     = 100
	DefaultFlushInterval = 50 * time.Millisecond
)

// BatchWriter accumulates writes and forwards them to the underlying writer
// in one call. Each Write is assumed to be one encoded entry, as slog
// handlers emit them.
type BatchWriter struct {
	mu      sync.Mutex
	out     io.Writer
	buf     bytes.Buffer
	pending int
	size    int
	err     error

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewBatchWriter starts a writer that flushes every size entries and at
// least every interval.
func NewBatchWriter(out io.Writer, size int, interval time.Duration) *BatchWriter {
	bw := &BatchWriter{
		out:    out,
		size:   size,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	bw.wg.Add(1)
	go bw.flusher()
	return bw
}

// Write buffers p. The first error from the underlying writer is returned
// by every later call.
func (bw *BatchWriter) Write(p []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if bw.err != nil {
		return 0, bw.err
	}
	bw.buf.Write(p)
	bw.pending++
	if bw.pending >= bw.size {
		bw.flushLocked()
	}
	return len(p), nil
}

func (bw *BatchWriter) flusher() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ticker.C:
			_ = bw.Flush()
		case <-bw.done:
			return
		}
	}
}

// Flush writes pending entries now.
func (bw *BatchWriter) Flush() error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	bw.flushLocked()
	return bw.err
}

func (bw *BatchWriter) flushLocked() {
	if bw.pending == 0 || bw.err != nil {
		return
	}
	if _, err := bw.out.Write(bw.buf.Bytes()); err != nil {
		bw.err = err
	}
	bw.buf.Reset()
	bw.pending = 0
}

// Pending returns the number of buffered entries.
func (bw *BatchWriter) Pending() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.pending
}

// Close stops the flush timer and writes whatever is left.
func (bw *BatchWriter) Close() error {
	bw.ticker.Stop()
	close(bw.done)
	bw.wg.Wait()
	return bw.Flush()
}
