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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// SyncBuffer is a bytes.Buffer safe for concurrent writers.
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Bytes returns a copy of the buffered data.
func (b *SyncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

// Reset discards the buffered data.
func (b *SyncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// NewTestLogger creates a debug-level JSON [Logger] writing to memory.
func NewTestLogger(opts ...Option) (*Logger, *SyncBuffer) {
	buf := &SyncBuffer{}
	base := []Option{WithJSONHandler(), WithOutput(buf), WithLevel(LevelDebug)}
	return MustNew(append(base, opts...)...), buf
}

// ParseJSONLogEntries parses every line in data.
func ParseJSONLogEntries(data []byte) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, fmt.Errorf("parse log line: %w", err)
		}
		entry := LogEntry{Attrs: make(map[string]any, len(raw))}
		for k, v := range raw {
			switch k {
			case "time":
			case "level":
				entry.Level, _ = v.(string)
			case "msg":
				entry.Message, _ = v.(string)
			default:
				entry.Attrs[k] = v
			}
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// FindEntry returns the first entry with the given message, failing t if
// there is none.
func FindEntry(t testing.TB, buf *SyncBuffer, msg string) LogEntry {
	t.Helper()

	entries, err := ParseJSONLogEntries(buf.Bytes())
	require.NoError(t, err)
	for _, e := range entries {
		if e.Message == msg {
			return e
		}
	}
	require.Failf(t, "log entry not found", "msg=%q in %d entries", msg, len(entries))
	return LogEntry{}
}
