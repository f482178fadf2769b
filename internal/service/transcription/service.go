// Package transcription coordinates validation, temp-file handling,
// inference and result aggregation for one uploaded file.
package transcription

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/earlysvahn/whisper-transcribe-api/internal/events"
	"github.com/earlysvahn/whisper-transcribe-api/internal/models"
	"github.com/earlysvahn/whisper-transcribe-api/internal/observability/metrics"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt"
)

// Request is one validated-or-not transcription request. Content is the
// full upload; it lives only for the duration of the call.
type Request struct {
	Content        []byte
	Filename       string
	ContentType    string
	Language       string // optional input language hint
	OutputLanguage string // required, defaulted to "en" by the handler
	RequestID      string
}

// Service orchestrates transcription requests against a single engine.
type Service struct {
	engine    stt.Engine
	provider  string
	publisher *events.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger

	// tempDir overrides the OS temp directory; used by tests to observe
	// temp-file lifetime.
	tempDir string
}

// New creates a Service. engine may be nil while initialization is still
// running; requests are rejected with 503 until it is set and ready.
func New(engine stt.Engine, provider string, publisher *events.Publisher, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		engine:    engine,
		provider:  provider,
		publisher: publisher,
		metrics:   m,
		log:       log.With().Str("component", "transcription").Logger(),
	}
}

// Ready reports whether the engine is loaded and accepting requests.
func (s *Service) Ready() bool {
	return s.engine != nil && s.engine.Ready()
}

// Transcribe validates the request, runs inference and assembles the
// response. The temp file holding the upload is deleted on every exit path.
func (s *Service) Transcribe(ctx context.Context, req Request) (*models.TranscriptionResult, error) {
	// Validate parameters first, before any processing. Language checks
	// come before the media-type check, which comes before any disk I/O.
	if err := ValidateLanguages(req.OutputLanguage, req.Language); err != nil {
		s.metrics.RecordValidationError("language")
		return nil, err
	}

	if !s.Ready() {
		return nil, Unavailable("Model not loaded yet")
	}

	if err := ValidateMediaType(req.ContentType, req.Filename); err != nil {
		s.metrics.RecordValidationError("media_type")
		return nil, err
	}

	path, err := s.writeScopedFile(req)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to persist upload")
		return nil, Internal("Transcription failed: " + err.Error())
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("Failed to remove temp file")
		}
	}()

	start := time.Now()
	task, hint := resolveTask(req.OutputLanguage, req.Language)

	s.log.Info().
		Str("requestId", req.RequestID).
		Str("task", string(task)).
		Str("languageHint", hint).
		Str("outputLanguage", req.OutputLanguage).
		Msg("Starting inference")

	res, err := s.engine.Transcribe(ctx, path, hint, task)
	if err != nil {
		s.metrics.RecordEngineError(s.provider)
		s.metrics.RecordTranscription(string(task), false, 0, 0)
		s.log.Error().Err(err).Str("requestId", req.RequestID).Msg("Inference failed")
		return nil, Internal("Transcription failed: " + err.Error())
	}

	result := assemble(res, req.OutputLanguage, task)
	result.ProcessingTime = round2(time.Since(start).Seconds())

	s.metrics.RecordTranscription(string(task), true, res.Duration, time.Since(start).Seconds())
	s.log.Info().
		Str("requestId", req.RequestID).
		Str("detectedLanguage", result.DetectedLanguage).
		Float64("duration", result.Duration).
		Float64("processingTime", result.ProcessingTime).
		Int("segments", len(result.Segments)).
		Msg("Transcription completed")

	s.publishCompleted(req.RequestID, result)

	return result, nil
}

// resolveTask picks the engine task and language hint from the desired
// output language.
//
// English output uses the translate task: the engine transcribes English
// audio as-is and translates everything else. Any other output language uses
// the transcribe task; without an explicit input hint the output language
// doubles as the assumed spoken language. When an explicit input hint
// differs from a non-English output the hint wins, which asks the engine to
// transcribe in the hinted language rather than the requested output. That
// quirk is kept on purpose.
func resolveTask(outputLanguage, inputLanguage string) (stt.Task, string) {
	if outputLanguage == "en" {
		// Empty hint lets the engine auto-detect.
		return stt.TaskTranslate, inputLanguage
	}
	if inputLanguage != "" {
		return stt.TaskTranscribe, inputLanguage
	}
	return stt.TaskTranscribe, outputLanguage
}

// writeScopedFile persists the upload to a temp file suffixed with the
// original filename's extension so the engine can sniff the container.
func (s *Service) writeScopedFile(req Request) (string, error) {
	suffix := filepath.Ext(req.Filename)
	f, err := os.CreateTemp(s.tempDir, "upload-*"+suffix)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(req.Content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func assemble(res *stt.Result, outputLanguage string, task stt.Task) *models.TranscriptionResult {
	segments := make([]models.TranscriptSegment, 0, len(res.Segments))
	var fullText strings.Builder

	for _, seg := range res.Segments {
		text := strings.TrimSpace(seg.Text)
		segments = append(segments, models.TranscriptSegment{
			Start:      round2(seg.Start),
			End:        round2(seg.End),
			Text:       text,
			Confidence: round3p(seg.Confidence),
		})
		if fullText.Len() > 0 {
			fullText.WriteByte(' ')
		}
		fullText.WriteString(text)
	}

	return &models.TranscriptionResult{
		Text:                fullText.String(),
		DetectedLanguage:    res.Language,
		OutputLanguage:      outputLanguage,
		LanguageProbability: round3p(res.LanguageProbability),
		Duration:            round2(res.Duration),
		Segments:            segments,
		Task:                string(task),
	}
}

func (s *Service) publishCompleted(requestID string, result *models.TranscriptionResult) {
	if s.publisher == nil {
		return
	}
	ev := models.TranscriptionCompleted{
		EventType:         "interaction.transcription.completed",
		RequestID:         requestID,
		Timestamp:         time.Now().UnixMilli(),
		Task:              result.Task,
		DetectedLanguage:  result.DetectedLanguage,
		OutputLanguage:    result.OutputLanguage,
		DurationSeconds:   result.Duration,
		ProcessingSeconds: result.ProcessingTime,
		Text:              result.Text,
	}
	// Publish failures are logged by the publisher; they never fail the request.
	if err := s.publisher.PublishCompleted(context.Background(), requestID, ev); err != nil {
		s.log.Warn().Err(err).Str("requestId", requestID).Msg("Failed to publish completion event")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3p(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*1000) / 1000
	return &r
}
