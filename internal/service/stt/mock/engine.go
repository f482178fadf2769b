// Package mock provides a canned stt.Engine for development and testing
// without a Python runtime or cloud credentials. It cycles through a set of
// sample transcripts so repeated requests look realistic.
package mock

import (
	"context"
	"sync"

	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt"
)

// SampleTranscript is one canned transcription result.
type SampleTranscript struct {
	Segments            []stt.Segment
	Language            string
	LanguageProbability float64
}

func ptr(v float64) *float64 { return &v }

// DefaultTranscripts provides sample results for simulation.
var DefaultTranscripts = []SampleTranscript{
	{
		Segments: []stt.Segment{
			{Start: 0.0, End: 2.1, Text: " I want to cancel my subscription", Confidence: ptr(-0.21)},
			{Start: 2.1, End: 3.4, Text: " effective immediately", Confidence: ptr(-0.35)},
		},
		Language:            "en",
		LanguageProbability: 0.97,
	},
	{
		Segments: []stt.Segment{
			{Start: 0.0, End: 1.8, Text: " Can you help me with my account", Confidence: ptr(-0.18)},
		},
		Language:            "en",
		LanguageProbability: 0.94,
	},
	{
		Segments: []stt.Segment{
			{Start: 0.0, End: 1.2, Text: " Tack så mycket", Confidence: ptr(-0.29)},
			{Start: 1.2, End: 2.6, Text: " vi hörs snart igen", Confidence: ptr(-0.33)},
		},
		Language:            "sv",
		LanguageProbability: 0.91,
	},
}

// Engine implements stt.Engine with canned responses.
type Engine struct {
	mu      sync.Mutex
	next    int
	scripts []SampleTranscript
}

// New creates a mock engine cycling through DefaultTranscripts.
func New() *Engine {
	return &Engine{scripts: DefaultTranscripts}
}

// NewWithTranscripts creates a mock engine with a fixed set of results.
func NewWithTranscripts(scripts []SampleTranscript) *Engine {
	return &Engine{scripts: scripts}
}

// Transcribe returns the next canned transcript. The language hint, when
// given, overrides the canned detected language (mirroring how a real
// engine skips detection when told the language).
func (e *Engine) Transcribe(_ context.Context, _ string, language string, _ stt.Task) (*stt.Result, error) {
	e.mu.Lock()
	script := e.scripts[e.next%len(e.scripts)]
	e.next++
	e.mu.Unlock()

	res := &stt.Result{
		Segments:            script.Segments,
		Language:            script.Language,
		LanguageProbability: ptr(script.LanguageProbability),
	}
	if len(script.Segments) > 0 {
		res.Duration = script.Segments[len(script.Segments)-1].End
	}
	if language != "" {
		res.Language = language
		res.LanguageProbability = nil
	}
	return res, nil
}

// Ready always reports true; there is no model to load.
func (e *Engine) Ready() bool { return true }

// Close is a no-op.
func (e *Engine) Close() error { return nil }
