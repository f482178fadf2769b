// Package models defines the response payloads and event shapes for
// transcription results.
package models

// TranscriptSegment is one time-aligned span of the transcript as returned
// to the caller. Start and end are rounded to 2 decimals, confidence to 3.
type TranscriptSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

// TranscriptionResult is the complete response for one uploaded file.
type TranscriptionResult struct {
	Text                string              `json:"text"`
	DetectedLanguage    string              `json:"detected_language"`
	OutputLanguage      string              `json:"output_language"`
	LanguageProbability *float64            `json:"language_probability"`
	Duration            float64             `json:"duration"`
	ProcessingTime      float64             `json:"processing_time"`
	Segments            []TranscriptSegment `json:"segments"`
	Task                string              `json:"task"`
}

// TranscriptionCompleted is the event published after a successful
// transcription.
type TranscriptionCompleted struct {
	EventType         string  `json:"eventType"`
	RequestID         string  `json:"requestId"`
	Timestamp         int64   `json:"timestamp"`
	Task              string  `json:"task"`
	DetectedLanguage  string  `json:"detectedLanguage"`
	OutputLanguage    string  `json:"outputLanguage"`
	DurationSeconds   float64 `json:"durationSeconds"`
	ProcessingSeconds float64 `json:"processingSeconds"`
	Text              string  `json:"text"`
}
