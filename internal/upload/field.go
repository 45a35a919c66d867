// Package upload holds the state of an image field that can be filled by
// typing a URL or by uploading a file.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mitaan/mitaan/internal/contentapi"
	"go.uber.org/zap"
)

// State is the visual state of a field.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUploading:
		return "uploading"
	case StateDone:
		return "uploaded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Uploader sends a file to the backend and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*contentapi.UploadResult, error)
}

// tickets numbers uploads across every field, so a result can only ever
// match the upload that produced it.
var tickets atomic.Uint64

// Field is an image URL field. It is not safe for concurrent use; Begin and
// Resolve are called from the UI loop while Ticket.Run may run elsewhere.
type Field struct {
	value  string
	state  State
	err    error
	seq    uint64
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewField returns a field holding value.
func NewField(value string, logger *zap.Logger) *Field {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Field{value: value, logger: logger}
}

func (f *Field) Value() string { return f.value }
func (f *Field) State() State  { return f.state }

// Err returns the last upload failure while the field is in StateFailed.
func (f *Field) Err() error { return f.err }

// SetText replaces the value with typed text. Typing is allowed while an
// upload is in flight; a later successful upload still replaces it.
func (f *Field) SetText(v string) {
	f.value = v
	if f.state == StateFailed || f.state == StateDone {
		f.state = StateIdle
		f.err = nil
	}
}

// Ticket is one upload attempt.
type Ticket struct {
	seq  uint64
	ctx  context.Context
	path string
	up   Uploader
}

// Result is the outcome of a Ticket.
type Result struct {
	seq  uint64
	Path string
	URL  string
	Err  error
}

// Begin starts an upload of the file at path. Any earlier upload still in
// flight is cancelled and its result will be discarded.
func (f *Field) Begin(ctx context.Context, up Uploader, path string) *Ticket {
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.seq = tickets.Add(1)
	f.state = StateUploading
	f.err = nil
	return &Ticket{seq: f.seq, ctx: ctx, path: path, up: up}
}

// Run opens the file and uploads it.
func (t *Ticket) Run() Result {
	res := Result{seq: t.seq, Path: t.path}
	file, err := os.Open(t.path)
	if err != nil {
		res.Err = fmt.Errorf("open upload: %w", err)
		return res
	}
	defer file.Close()

	out, err := t.up.Upload(t.ctx, filepath.Base(t.path), file)
	if err != nil {
		res.Err = err
		return res
	}
	res.URL = out.URL
	return res
}

// Resolve applies a result. Only the most recently started upload is
// applied; it reports whether r was. A failure leaves the value unchanged.
func (f *Field) Resolve(r Result) bool {
	if r.seq != f.seq {
		f.logger.Debug("discarding superseded upload", zap.String("path", r.Path))
		return false
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	if r.Err != nil {
		f.state = StateFailed
		f.err = r.Err
		f.logger.Warn("upload failed", zap.String("path", r.Path), zap.Error(r.Err))
		return true
	}
	f.value = r.URL
	f.state = StateDone
	f.logger.Info("upload complete", zap.String("path", r.Path), zap.String("url", r.URL))
	return true
}

// Abort cancels any upload in flight and returns the field to idle.
func (f *Field) Abort() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.seq = tickets.Add(1)
	if f.state == StateUploading {
		f.state = StateIdle
	}
}
