// Package google provides a Google Cloud Speech-to-Text stt.Engine.
//
// It uses the synchronous Recognize API on the uploaded file's bytes, so it
// only serves transcribe-mode requests; Google STT has no translate task.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	"github.com/rs/zerolog"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt"
)

// ErrTranslateUnsupported is returned for translate-mode requests.
var ErrTranslateUnsupported = errors.New("google engine does not support translation")

const defaultLanguageCode = "en"

// Engine implements stt.Engine using Google Cloud Speech-to-Text.
type Engine struct {
	client *speech.Client
	log    zerolog.Logger
}

// New creates the engine and dials the Speech-to-Text API.
func New(ctx context.Context, log zerolog.Logger) (*Engine, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Engine{
		client: c,
		log:    log.With().Str("component", "google-engine").Logger(),
	}, nil
}

// Transcribe runs a synchronous recognition on the file at path.
func (e *Engine) Transcribe(ctx context.Context, path string, language string, task stt.Task) (*stt.Result, error) {
	if task == stt.TaskTranslate {
		return nil, ErrTranslateUnsupported
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	lang := language
	if lang == "" {
		// Recognize requires a language; there is no auto-detection for
		// the primary code, only alternatives.
		lang = defaultLanguageCode
	}

	resp, err := e.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:          lang,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	result := &stt.Result{Language: lang}
	var prevEnd float64
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]

		end := prevEnd
		if r.ResultEndTime != nil {
			end = r.ResultEndTime.AsDuration().Seconds()
		}
		conf := float64(alt.Confidence)
		result.Segments = append(result.Segments, stt.Segment{
			Start:      prevEnd,
			End:        end,
			Text:       alt.Transcript,
			Confidence: &conf,
		})
		prevEnd = end

		if r.LanguageCode != "" {
			result.Language = r.LanguageCode
		}
	}
	result.Duration = prevEnd

	return result, nil
}

// Ready reports whether the client was constructed.
func (e *Engine) Ready() bool { return e.client != nil }

// Close releases the underlying gRPC connection.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
