package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitaan/mitaan/internal/apitest"
	"github.com/mitaan/mitaan/internal/contentapi"
	"github.com/mitaan/mitaan/internal/credstore"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubUploader struct {
	url string
	err error
}

func (s stubUploader) Upload(ctx context.Context, _ string, r io.Reader) (*contentapi.UploadResult, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &contentapi.UploadResult{URL: s.url}, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestUploadReplacesValue(t *testing.T) {
	srv := apitest.New(t)
	client := contentapi.New(srv.URL, credstore.NewMemoryStore())
	if err := client.Login(context.Background(), apitest.Username, apitest.Password); err != nil {
		t.Fatal(err)
	}

	f := NewField("https://old.example/a.png", nil)
	ticket := f.Begin(context.Background(), client, writeFile(t, "cover.png", pngHeader))
	if f.State() != StateUploading {
		t.Fatalf("state = %s, want uploading", f.State())
	}
	if !f.Resolve(ticket.Run()) {
		t.Fatal("result not applied")
	}
	if f.State() != StateDone || f.Value() != "https://cdn.test/1.png" {
		t.Errorf("field = %q (%s)", f.Value(), f.State())
	}
}

func TestFailureLeavesValueAndLogs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := NewField("https://keep.example/x.png", zap.New(core))

	ticket := f.Begin(context.Background(), stubUploader{err: errors.New("rejected")}, writeFile(t, "x.png", pngHeader))
	f.Resolve(ticket.Run())

	if f.Value() != "https://keep.example/x.png" {
		t.Errorf("value changed to %q", f.Value())
	}
	if f.State() != StateFailed || f.Err() == nil {
		t.Errorf("state = %s, err = %v", f.State(), f.Err())
	}
	if logs.FilterMessage("upload failed").Len() != 1 {
		t.Errorf("failure not logged: %v", logs.All())
	}
}

func TestMissingFileFails(t *testing.T) {
	f := NewField("", nil)
	ticket := f.Begin(context.Background(), stubUploader{url: "u"}, filepath.Join(t.TempDir(), "nope.png"))
	f.Resolve(ticket.Run())
	if f.State() != StateFailed || f.Value() != "" {
		t.Errorf("field = %q (%s)", f.Value(), f.State())
	}
}

func TestLatestUploadWins(t *testing.T) {
	f := NewField("", nil)
	path := writeFile(t, "a.png", pngHeader)

	first := f.Begin(context.Background(), stubUploader{url: "https://cdn.test/first.png"}, path)
	second := f.Begin(context.Background(), stubUploader{url: "https://cdn.test/second.png"}, path)
	if first.ctx.Err() == nil {
		t.Error("superseded upload was not cancelled")
	}

	if !f.Resolve(second.Run()) {
		t.Fatal("latest result rejected")
	}
	if f.Resolve(first.Run()) {
		t.Error("superseded result applied")
	}
	if f.Value() != "https://cdn.test/second.png" {
		t.Errorf("value = %q", f.Value())
	}
}

func TestTypingDuringUpload(t *testing.T) {
	f := NewField("", nil)
	ticket := f.Begin(context.Background(), stubUploader{url: "https://cdn.test/u.png"}, writeFile(t, "u.png", pngHeader))
	f.SetText("https://typed.example/t.png")
	if f.State() != StateUploading {
		t.Errorf("typing changed state to %s", f.State())
	}
	f.Resolve(ticket.Run())
	if f.Value() != "https://cdn.test/u.png" {
		t.Errorf("value = %q", f.Value())
	}
}

func TestAbortDiscardsResult(t *testing.T) {
	f := NewField("v", nil)
	ticket := f.Begin(context.Background(), stubUploader{url: "https://cdn.test/u.png"}, writeFile(t, "u.png", pngHeader))
	f.Abort()
	if f.State() != StateIdle {
		t.Errorf("state = %s", f.State())
	}
	if f.Resolve(ticket.Run()) || f.Value() != "v" {
		t.Errorf("aborted upload applied: %q", f.Value())
	}
}

func TestResultOfAnotherFieldIgnored(t *testing.T) {
	path := writeFile(t, "a.png", pngHeader)
	closed := NewField("", nil)
	stale := closed.Begin(context.Background(), stubUploader{url: "https://cdn.test/stale.png"}, path)
	closed.Abort()

	f := NewField("", nil)
	live := f.Begin(context.Background(), stubUploader{url: "https://cdn.test/live.png"}, path)

	if f.Resolve(stale.Run()) {
		t.Fatal("result from another field applied")
	}
	if f.State() != StateUploading || live.ctx.Err() != nil {
		t.Fatalf("live upload disturbed: state = %s, ctx err = %v", f.State(), live.ctx.Err())
	}
	if !f.Resolve(live.Run()) || f.Value() != "https://cdn.test/live.png" {
		t.Errorf("field = %q (%s)", f.Value(), f.State())
	}
}
