package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrQueueFull      = errors.New("journal queue full")
	ErrClosed         = errors.New("journal writer closed")
	ErrNotStarted     = errors.New("journal writer not started")
	ErrAlreadyStarted = errors.New("journal writer already started")
)

// Writer appends text lines to a journal file from a buffered queue. Lines
// are terminated with a newline by the writer; callers pass bare records.
type Writer struct {
	cfg Config
	ch  chan string
	wg  sync.WaitGroup
	err atomic.Value

	started uint32
	closed  uint32
}

// NewWriter creates a journal writer and ensures the target directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	w := &Writer{
		cfg: cfg,
		ch:  make(chan string, cfg.QueueSize),
	}
	return w, nil
}

// Start runs the writer loop in a new goroutine.
func (w *Writer) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return ErrAlreadyStarted
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

// Close stops the writer and flushes any buffered data.
func (w *Writer) Close() error {
	if atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		close(w.ch)
	}
	w.wg.Wait()
	return w.Err()
}

// Err returns the first error observed by the writer, if any.
func (w *Writer) Err() error {
	if v := w.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// TryAppend enqueues a line without blocking.
func (w *Writer) TryAppend(line string) error {
	if atomic.LoadUint32(&w.closed) != 0 {
		return ErrClosed
	}
	if atomic.LoadUint32(&w.started) == 0 {
		return ErrNotStarted
	}
	if err := w.Err(); err != nil {
		return err
	}
	select {
	case w.ch <- line:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Writer) run(ctx context.Context) {
	var (
		out         *fileWriter
		flushC      <-chan time.Time
		syncC       <-chan time.Time
		flushTicker *time.Ticker
		syncTicker  *time.Ticker
	)

	if w.cfg.FlushInterval > 0 {
		flushTicker = time.NewTicker(w.cfg.FlushInterval)
		flushC = flushTicker.C
	}
	if w.cfg.SyncInterval > 0 {
		syncTicker = time.NewTicker(w.cfg.SyncInterval)
		syncC = syncTicker.C
	}

	defer func() {
		if flushTicker != nil {
			flushTicker.Stop()
		}
		if syncTicker != nil {
			syncTicker.Stop()
		}
		if err := w.closeFile(out); err != nil && w.Err() == nil {
			w.setErr(err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.drainNonBlocking(&out)
			return
		case line, ok := <-w.ch:
			if !ok {
				return
			}
			if err := w.writeLine(&out, line); err != nil {
				w.setErr(err)
				return
			}
		case <-flushC:
			if err := w.flushFile(out); err != nil {
				w.setErr(err)
				return
			}
		case <-syncC:
			if err := w.syncFile(out); err != nil {
				w.setErr(err)
				return
			}
		}
	}
}

func (w *Writer) drainNonBlocking(out **fileWriter) {
	for {
		select {
		case line, ok := <-w.ch:
			if !ok {
				return
			}
			if err := w.writeLine(out, line); err != nil {
				w.setErr(err)
				return
			}
		default:
			return
		}
	}
}

func (w *Writer) writeLine(out **fileWriter, line string) error {
	lineSize := int64(len(line)) + 1
	if w.shouldRotate(*out, lineSize) {
		if err := w.closeFile(*out); err != nil {
			return err
		}
		if err := w.rotate(); err != nil {
			return err
		}
		*out = nil
	}
	if *out == nil {
		opened, err := w.openFile()
		if err != nil {
			return err
		}
		*out = opened
	}
	if _, err := (*out).buf.WriteString(line); err != nil {
		return err
	}
	if err := (*out).buf.WriteByte('\n'); err != nil {
		return err
	}
	(*out).size += lineSize
	return nil
}

func (w *Writer) shouldRotate(out *fileWriter, nextSize int64) bool {
	if out == nil || w.cfg.MaxBytes <= 0 {
		return false
	}
	return out.size+nextSize > w.cfg.MaxBytes
}

func (w *Writer) rotate() error {
	ts := time.Now().UTC().Format("20060102-150405")
	rotated := fmt.Sprintf("%s.%s", w.cfg.Path, ts)
	if err := os.Rename(w.cfg.Path, rotated); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (w *Writer) openFile() (*fileWriter, error) {
	file, err := os.OpenFile(w.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	out := &fileWriter{
		file: file,
		buf:  bufio.NewWriterSize(file, w.cfg.BufferSize),
		size: info.Size(),
	}
	if out.size == 0 && w.cfg.Header != "" {
		if _, err := out.buf.WriteString(w.cfg.Header + "\n"); err != nil {
			_ = file.Close()
			return nil, err
		}
		out.size = int64(len(w.cfg.Header)) + 1
	}
	return out, nil
}

func (w *Writer) flushFile(out *fileWriter) error {
	if out == nil {
		return nil
	}
	return out.buf.Flush()
}

func (w *Writer) syncFile(out *fileWriter) error {
	if out == nil {
		return nil
	}
	if err := out.buf.Flush(); err != nil {
		return err
	}
	return out.file.Sync()
}

func (w *Writer) closeFile(out *fileWriter) error {
	if out == nil {
		return nil
	}
	if err := out.buf.Flush(); err != nil {
		_ = out.file.Close()
		return err
	}
	if err := out.file.Sync(); err != nil {
		_ = out.file.Close()
		return err
	}
	return out.file.Close()
}

func (w *Writer) setErr(err error) {
	if err == nil {
		return
	}
	if w.err.Load() != nil {
		return
	}
	w.err.Store(err)
}

type fileWriter struct {
	file *os.File
	buf  *bufio.Writer
	size int64
}
