// Package stt defines the interface for speech-to-text engines.
package stt

import "context"

// Task selects what the engine does with the audio.
type Task string

const (
	// TaskTranscribe produces text in the spoken language.
	TaskTranscribe Task = "transcribe"

	// TaskTranslate produces English text regardless of the spoken language.
	TaskTranslate Task = "translate"
)

// Segment is one time-aligned span of recognized speech.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64

	// End is the segment end time in seconds.
	End float64

	// Text is the recognized text for this span.
	Text string

	// Confidence is the engine-reported score for the segment, when the
	// engine provides one. faster-whisper reports the average
	// log-probability of the decoded tokens.
	Confidence *float64
}

// Result is a complete transcription of one audio file.
type Result struct {
	// Segments are ordered by ascending start time.
	Segments []Segment

	// Language is the detected (or caller-provided) language code.
	Language string

	// LanguageProbability is the engine's confidence in the detected
	// language, when auto-detection ran.
	LanguageProbability *float64

	// Duration is the total audio duration in seconds.
	Duration float64
}

// Engine is a speech-to-text backend operating on audio files.
//
// Implementations are constructed once at process startup and reused for
// every request. Transcribe must be safe for concurrent callers; engines
// that wrap a single inference worker serialize internally.
type Engine interface {
	// Transcribe runs inference on the file at path. language is an
	// optional hint ("" enables auto-detection where supported).
	Transcribe(ctx context.Context, path string, language string, task Task) (*Result, error)

	// Ready reports whether the engine has finished loading its model.
	Ready() bool

	// Close releases the engine's resources.
	Close() error
}
