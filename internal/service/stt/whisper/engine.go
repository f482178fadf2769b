// Package whisper provides an stt.Engine backed by faster-whisper.
//
// The model runs in a long-lived Python worker process. The worker loads
// the model once at startup (probing for CUDA and falling back to CPU with
// int8 precision) and then serves transcription requests as JSON lines over
// stdin/stdout. The engine serializes requests on the pipe, so concurrent
// callers never interleave on the worker.
package whisper

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt"
)

//go:embed assets/worker.py
var workerScript []byte

const (
	defaultModelSize    = "base"
	defaultPythonBin    = "python3"
	defaultVadMinSilMs  = 500
	workerScriptPattern = "whisper-worker-*.py"
)

// Config holds faster-whisper engine configuration.
type Config struct {
	ModelSize       string // tiny, base, small, medium, large-v3
	CacheDir        string // model download root; "" uses the engine default
	Device          string // auto, cpu, cuda
	ComputeType     string // "" lets the worker pick (float16 on cuda, int8 on cpu)
	PythonBin       string
	VadMinSilenceMs int
}

func (c *Config) applyDefaults() {
	if c.ModelSize == "" {
		c.ModelSize = defaultModelSize
	}
	if c.Device == "" {
		c.Device = "auto"
	}
	if c.PythonBin == "" {
		c.PythonBin = defaultPythonBin
	}
	if c.VadMinSilenceMs == 0 {
		c.VadMinSilenceMs = defaultVadMinSilMs
	}
}

// Engine is a faster-whisper backed stt.Engine.
type Engine struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex // serializes requests on the worker pipe
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	ready atomic.Bool

	// reported by the worker after the hardware probe
	device      string
	computeType string
}

// New creates an engine. The model is not loaded until Start is called.
func New(cfg Config, log zerolog.Logger) *Engine {
	cfg.applyDefaults()
	return &Engine{
		cfg: cfg,
		log: log.With().Str("component", "whisper-engine").Logger(),
	}
}

// Start spawns the worker process and blocks until the model is loaded.
// It is meant to run once, typically from a startup goroutine so health
// reporting can observe the unready state.
func (e *Engine) Start(ctx context.Context) error {
	scriptPath, err := writeWorkerScript()
	if err != nil {
		return fmt.Errorf("write worker script: %w", err)
	}
	defer os.Remove(scriptPath)

	args := []string{
		scriptPath,
		"--model-size", e.cfg.ModelSize,
		"--device", e.cfg.Device,
		"--vad-min-silence-ms", strconv.Itoa(e.cfg.VadMinSilenceMs),
	}
	if e.cfg.CacheDir != "" {
		args = append(args, "--cache-dir", e.cfg.CacheDir)
	}
	if e.cfg.ComputeType != "" {
		args = append(args, "--compute-type", e.cfg.ComputeType)
	}

	cmd := exec.CommandContext(ctx, e.cfg.PythonBin, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker stdout: %w", err)
	}

	e.log.Info().
		Str("modelSize", e.cfg.ModelSize).
		Str("device", e.cfg.Device).
		Str("python", e.cfg.PythonBin).
		Msg("Starting whisper worker")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.stdout = bufio.NewReader(stdout)

	// The first line on stdout is the ready event, emitted after the model
	// has been loaded and the hardware probe resolved.
	line, err := e.stdout.ReadString('\n')
	if err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("worker exited before ready: %w", err)
	}

	var ready readyEvent
	if err := json.Unmarshal([]byte(line), &ready); err != nil || ready.Event != "ready" {
		_ = cmd.Process.Kill()
		return fmt.Errorf("unexpected worker greeting: %q", line)
	}

	e.device = ready.Device
	e.computeType = ready.ComputeType
	e.ready.Store(true)

	e.log.Info().
		Str("modelSize", e.cfg.ModelSize).
		Str("device", ready.Device).
		Str("computeType", ready.ComputeType).
		Msg("Whisper model loaded")
	return nil
}

// Ready reports whether the worker has loaded the model.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// Device returns the device the worker selected ("" before Start completes).
func (e *Engine) Device() string { return e.device }

// Transcribe sends one request to the worker and waits for its response.
func (e *Engine) Transcribe(ctx context.Context, path string, language string, task stt.Task) (*stt.Result, error) {
	if !e.ready.Load() {
		return nil, fmt.Errorf("whisper worker not ready")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := encodeRequest(path, language, task)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.stdin.Write(req); err != nil {
		e.ready.Store(false)
		return nil, fmt.Errorf("whisper worker write: %w", err)
	}

	line, err := e.stdout.ReadString('\n')
	if err != nil {
		e.ready.Store(false)
		return nil, fmt.Errorf("whisper worker read: %w", err)
	}

	return parseResponse([]byte(line))
}

// Close stops the worker process.
func (e *Engine) Close() error {
	e.ready.Store(false)
	if e.stdin != nil {
		_ = e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		return e.cmd.Wait()
	}
	return nil
}

// --- worker wire protocol ---

type readyEvent struct {
	Event       string `json:"event"`
	Device      string `json:"device"`
	ComputeType string `json:"compute_type"`
}

type workerRequest struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
	Task     string `json:"task"`
}

type workerSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogProb *float64 `json:"avg_logprob"`
}

type workerResponse struct {
	Error               string          `json:"error"`
	Language            string          `json:"language"`
	LanguageProbability *float64        `json:"language_probability"`
	Duration            float64         `json:"duration"`
	Segments            []workerSegment `json:"segments"`
}

func encodeRequest(path, language string, task stt.Task) ([]byte, error) {
	payload, err := json.Marshal(workerRequest{
		Path:     path,
		Language: language,
		Task:     string(task),
	})
	if err != nil {
		return nil, fmt.Errorf("encode worker request: %w", err)
	}
	return append(payload, '\n'), nil
}

func parseResponse(line []byte) (*stt.Result, error) {
	var resp workerResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode worker response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("whisper inference: %s", resp.Error)
	}

	segments := make([]stt.Segment, len(resp.Segments))
	for i, s := range resp.Segments {
		segments[i] = stt.Segment{
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
			Confidence: s.AvgLogProb,
		}
	}

	return &stt.Result{
		Segments:            segments,
		Language:            resp.Language,
		LanguageProbability: resp.LanguageProbability,
		Duration:            resp.Duration,
	}, nil
}

func writeWorkerScript() (string, error) {
	f, err := os.CreateTemp("", workerScriptPattern)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(workerScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return filepath.Clean(f.Name()), nil
}
