package transcription

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/earlysvahn/whisper-transcribe-api/internal/events"
	"github.com/earlysvahn/whisper-transcribe-api/internal/observability/metrics"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt"
)

// fakeEngine implements stt.Engine for testing.
type fakeEngine struct {
	ready  bool
	result *stt.Result
	err    error

	calls       int
	gotPath     string
	gotLanguage string
	gotTask     stt.Task
}

func (f *fakeEngine) Transcribe(_ context.Context, path string, language string, task stt.Task) (*stt.Result, error) {
	f.calls++
	f.gotPath = path
	f.gotLanguage = language
	f.gotTask = task
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeEngine) Ready() bool  { return f.ready }
func (f *fakeEngine) Close() error { return nil }

func ptr(v float64) *float64 { return &v }

func helloWorldResult() *stt.Result {
	return &stt.Result{
		Segments: []stt.Segment{
			{Start: 0.0, End: 1.5, Text: " hello ", Confidence: ptr(-0.2344)},
			{Start: 1.5, End: 3.0, Text: " world", Confidence: ptr(-0.1)},
		},
		Language:            "en",
		LanguageProbability: ptr(0.954321),
		Duration:            3.0,
	}
}

func newTestService(t *testing.T, engine stt.Engine) *Service {
	t.Helper()
	svc := New(engine, "fake", events.New(&events.Config{Enabled: false}), metrics.DefaultMetrics, zerolog.Nop())
	svc.tempDir = t.TempDir()
	return svc
}

func tempFileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	return len(entries)
}

func wavRequest() Request {
	return Request{
		Content:        []byte("RIFF fake audio"),
		Filename:       "speech.wav",
		ContentType:    "audio/wav",
		OutputLanguage: "en",
	}
}

func TestResolveTask(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		input    string
		wantTask stt.Task
		wantHint string
	}{
		{"english output auto-detect", "en", "", stt.TaskTranslate, ""},
		{"english output explicit input", "en", "sv", stt.TaskTranslate, "sv"},
		{"english output english input still translates", "en", "en", stt.TaskTranslate, "en"},
		{"non-english output no input assumes output", "sv", "", stt.TaskTranscribe, "sv"},
		{"non-english output explicit input wins", "sv", "en", stt.TaskTranscribe, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, hint := resolveTask(tt.output, tt.input)
			if task != tt.wantTask {
				t.Errorf("task = %s, want %s", task, tt.wantTask)
			}
			if hint != tt.wantHint {
				t.Errorf("hint = %q, want %q", hint, tt.wantHint)
			}
		})
	}
}

func TestTranscribe_Success(t *testing.T) {
	engine := &fakeEngine{ready: true, result: helloWorldResult()}
	svc := newTestService(t, engine)

	res, err := svc.Transcribe(context.Background(), wavRequest())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if res.Text != "hello world" {
		t.Errorf("text = %q, want %q", res.Text, "hello world")
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if res.Segments[0].Start != 0.0 || res.Segments[0].End != 1.5 {
		t.Errorf("segment 0 times = (%v, %v)", res.Segments[0].Start, res.Segments[0].End)
	}
	if res.Segments[0].Text != "hello" {
		t.Errorf("segment 0 text = %q, want trimmed %q", res.Segments[0].Text, "hello")
	}
	if res.Segments[0].Confidence == nil || *res.Segments[0].Confidence != -0.234 {
		t.Errorf("segment 0 confidence = %v, want -0.234", res.Segments[0].Confidence)
	}
	if res.DetectedLanguage != "en" {
		t.Errorf("detected language = %q, want en", res.DetectedLanguage)
	}
	if res.LanguageProbability == nil || *res.LanguageProbability != 0.954 {
		t.Errorf("language probability = %v, want 0.954", res.LanguageProbability)
	}
	if res.Duration != 3.0 {
		t.Errorf("duration = %v, want 3.0", res.Duration)
	}
	if res.Task != "translate" {
		t.Errorf("task = %q, want translate", res.Task)
	}
	if res.OutputLanguage != "en" {
		t.Errorf("output language = %q, want en", res.OutputLanguage)
	}

	// Default english output without a hint: translate with auto-detection.
	if engine.gotTask != stt.TaskTranslate || engine.gotLanguage != "" {
		t.Errorf("engine invoked with task=%s hint=%q", engine.gotTask, engine.gotLanguage)
	}

	// Temp file carries the upload's extension and is gone afterwards.
	if filepath.Ext(engine.gotPath) != ".wav" {
		t.Errorf("temp file path %q missing .wav suffix", engine.gotPath)
	}
	if n := tempFileCount(t, svc.tempDir); n != 0 {
		t.Errorf("expected empty temp dir after success, found %d entries", n)
	}
}

func TestTranscribe_InvalidOutputLanguage_NoTempFile(t *testing.T) {
	engine := &fakeEngine{ready: true, result: helloWorldResult()}
	svc := newTestService(t, engine)

	req := wavRequest()
	req.OutputLanguage = "xx"

	_, err := svc.Transcribe(context.Background(), req)
	assertAPIError(t, err, http.StatusBadRequest, "Unsupported output language 'xx'")

	if engine.calls != 0 {
		t.Errorf("engine should not be invoked, got %d calls", engine.calls)
	}
	if n := tempFileCount(t, svc.tempDir); n != 0 {
		t.Errorf("no temp file may be created before validation, found %d entries", n)
	}
}

func TestTranscribe_InvalidInputLanguage_NoTempFile(t *testing.T) {
	engine := &fakeEngine{ready: true, result: helloWorldResult()}
	svc := newTestService(t, engine)

	req := wavRequest()
	req.Language = "zz"

	_, err := svc.Transcribe(context.Background(), req)
	assertAPIError(t, err, http.StatusBadRequest, "Unsupported input language 'zz'")

	if engine.calls != 0 {
		t.Errorf("engine should not be invoked, got %d calls", engine.calls)
	}
	if n := tempFileCount(t, svc.tempDir); n != 0 {
		t.Errorf("no temp file may be created before validation, found %d entries", n)
	}
}

func TestTranscribe_UnsupportedMediaType_NoTempFile(t *testing.T) {
	engine := &fakeEngine{ready: true, result: helloWorldResult()}
	svc := newTestService(t, engine)

	req := wavRequest()
	req.ContentType = "text/plain"
	req.Filename = "notes.txt"

	_, err := svc.Transcribe(context.Background(), req)
	assertAPIError(t, err, http.StatusBadRequest, "Unsupported file type")

	if n := tempFileCount(t, svc.tempDir); n != 0 {
		t.Errorf("no temp file may be created before validation, found %d entries", n)
	}
}

func TestTranscribe_EngineNotReady(t *testing.T) {
	engine := &fakeEngine{ready: false}
	svc := newTestService(t, engine)

	_, err := svc.Transcribe(context.Background(), wavRequest())
	assertAPIError(t, err, http.StatusServiceUnavailable, "Model not loaded yet")
}

func TestTranscribe_NilEngine(t *testing.T) {
	svc := New(nil, "none", events.New(&events.Config{Enabled: false}), metrics.DefaultMetrics, zerolog.Nop())

	_, err := svc.Transcribe(context.Background(), wavRequest())
	assertAPIError(t, err, http.StatusServiceUnavailable, "Model not loaded yet")
}

func TestTranscribe_EngineFailure_TempFileDeleted(t *testing.T) {
	engine := &fakeEngine{ready: true, err: errors.New("cuda out of memory")}
	svc := newTestService(t, engine)

	_, err := svc.Transcribe(context.Background(), wavRequest())
	assertAPIError(t, err, http.StatusInternalServerError, "cuda out of memory")

	if engine.gotPath == "" {
		t.Fatal("engine was never invoked")
	}
	if _, statErr := os.Stat(engine.gotPath); !os.IsNotExist(statErr) {
		t.Errorf("temp file %s should be deleted after engine failure", engine.gotPath)
	}
	if n := tempFileCount(t, svc.tempDir); n != 0 {
		t.Errorf("expected empty temp dir after failure, found %d entries", n)
	}
}

func TestTranscribe_NonEnglishOutput_UsesTranscribeTask(t *testing.T) {
	engine := &fakeEngine{ready: true, result: &stt.Result{
		Segments: []stt.Segment{{Start: 0, End: 1.2, Text: " hej"}},
		Language: "sv",
		Duration: 1.2,
	}}
	svc := newTestService(t, engine)

	req := wavRequest()
	req.OutputLanguage = "sv"

	res, err := svc.Transcribe(context.Background(), req)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if engine.gotTask != stt.TaskTranscribe || engine.gotLanguage != "sv" {
		t.Errorf("engine invoked with task=%s hint=%q, want transcribe/sv", engine.gotTask, engine.gotLanguage)
	}
	if res.Task != "transcribe" {
		t.Errorf("task = %q, want transcribe", res.Task)
	}
	if res.Segments[0].Confidence != nil {
		t.Errorf("confidence should stay nil when the engine reports none")
	}
	if res.LanguageProbability != nil {
		t.Errorf("language probability should stay nil when detection did not run")
	}
}

func TestTranscribe_MissingFilename_StillWorks(t *testing.T) {
	engine := &fakeEngine{ready: true, result: helloWorldResult()}
	svc := newTestService(t, engine)

	req := wavRequest()
	req.Filename = ""
	req.ContentType = "audio/mpeg"

	if _, err := svc.Transcribe(context.Background(), req); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if n := tempFileCount(t, svc.tempDir); n != 0 {
		t.Errorf("expected empty temp dir, found %d entries", n)
	}
}

func assertAPIError(t *testing.T, err error, wantStatus int, wantDetail string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.Status != wantStatus {
		t.Errorf("status = %d, want %d", apiErr.Status, wantStatus)
	}
	if !strings.Contains(apiErr.Detail, wantDetail) {
		t.Errorf("detail %q does not contain %q", apiErr.Detail, wantDetail)
	}
}
