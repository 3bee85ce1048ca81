package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"nuncle.ai/internal/sim/host"
)

// segmentLayout names a segment by the UTC start of its rotation window.
// The fixed width keeps lexical and chronological order the same.
const segmentLayout = "20060102-1504"

// Options controls how a stream splits and prunes its segments.
type Options struct {
	// Rotate is the segment length. Windows are aligned to UTC multiples
	// of it. Zero means one hour.
	Rotate time.Duration
	// Keep is how many segments survive a rotation, the new one included.
	// Zero keeps everything.
	Keep int
	// Now is the clock used to pick the window. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Rotate <= 0 {
		o.Rotate = time.Hour
	}
	if o.Keep < 0 {
		o.Keep = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Stream appends one JSON document per line to zstd segments named
// <prefix>-<window>.jsonl.zst under dir.
type Stream[T any] struct {
	dir    string
	prefix string
	opts   Options

	mu      sync.Mutex
	window  string
	f       *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
	written uint64
	pruned  int
}

func NewStream[T any](dir, prefix string, opts Options) *Stream[T] {
	return &Stream[T]{dir: dir, prefix: prefix, opts: opts.withDefaults()}
}

// Append writes v to the segment of the current window, opening a new
// segment (and pruning old ones) when the window has moved on.
func (s *Stream[T]) Append(v T) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", s.prefix, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	window := s.opts.Now().UTC().Truncate(s.opts.Rotate).Format(segmentLayout)
	if window != s.window {
		if err := s.openLocked(window); err != nil {
			return err
		}
	}
	line = append(line, '\n')
	if _, err := s.buf.Write(line); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.written++
	return nil
}

// Stats reports lines appended and segments pruned since the stream opened.
func (s *Stream[T]) Stats() (written uint64, pruned int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written, s.pruned
}

func (s *Stream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Stream[T]) openLocked(window string) error {
	if err := s.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.jsonl.zst", s.prefix, window))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	s.f, s.enc, s.buf = f, enc, bufio.NewWriterSize(enc, 64*1024)
	s.window = window
	return s.pruneLocked()
}

func (s *Stream[T]) pruneLocked() error {
	if s.opts.Keep == 0 {
		return nil
	}
	files, err := ListFiles(s.dir, s.prefix)
	if err != nil {
		return err
	}
	for len(files) > s.opts.Keep {
		if err := os.Remove(files[0]); err != nil && !os.IsNotExist(err) {
			return err
		}
		files = files[1:]
		s.pruned++
	}
	return nil
}

func (s *Stream[T]) closeLocked() error {
	var err error
	if s.buf != nil {
		err = s.buf.Flush()
	}
	if s.enc != nil {
		if cerr := s.enc.Close(); err == nil {
			err = cerr
		}
	}
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
	}
	s.f, s.enc, s.buf = nil, nil, nil
	s.window = ""
	return err
}

// TickLogger keeps the per-tick replay record under <data>/events. Ticks
// must arrive in increasing order; a host restarted against the same data
// dir starts a fresh logger, so ordering is only checked per process.
type TickLogger struct {
	s    *Stream[host.TickLogEntry]
	last uint64
}

func NewTickLogger(dataDir string, opts Options) *TickLogger {
	return &TickLogger{s: NewStream[host.TickLogEntry](filepath.Join(dataDir, "events"), "events", opts)}
}

func (l *TickLogger) WriteTick(e host.TickLogEntry) error {
	if e.Tick <= l.last {
		return fmt.Errorf("events: tick %d after %d", e.Tick, l.last)
	}
	if err := l.s.Append(e); err != nil {
		return err
	}
	l.last = e.Tick
	return nil
}

func (l *TickLogger) Stats() (uint64, int) { return l.s.Stats() }
func (l *TickLogger) Close() error         { return l.s.Close() }

// AuditLogger records every command line under <data>/audit, refused ones
// included.
type AuditLogger struct{ s *Stream[host.AuditEntry] }

func NewAuditLogger(dataDir string, opts Options) *AuditLogger {
	return &AuditLogger{s: NewStream[host.AuditEntry](filepath.Join(dataDir, "audit"), "audit", opts)}
}

func (l *AuditLogger) WriteAudit(e host.AuditEntry) error { return l.s.Append(e) }

func (l *AuditLogger) Close() error { return l.s.Close() }
