package events

import (
	"context"
	"testing"

	"github.com/earlysvahn/whisper-transcribe-api/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writer != nil {
				t.Error("expected nil writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:   false,
		Brokers:   []string{"localhost:9092"},
		Topic:     "test.completed",
		Principal: "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topic != "test.completed" {
		t.Errorf("expected topic 'test.completed', got %s", p.topic)
	}
}

func TestPublishCompleted_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, Topic: "test.completed"})

	ev := models.TranscriptionCompleted{
		EventType:        "interaction.transcription.completed",
		RequestID:        "req-1",
		Task:             "translate",
		DetectedLanguage: "en",
		OutputLanguage:   "en",
		Text:             "hello world",
	}

	// Log-only mode never errors.
	if err := p.PublishCompleted(context.Background(), "req-1", ev); err != nil {
		t.Fatalf("expected nil error in disabled mode, got %v", err)
	}
}

func TestClose_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Fatalf("expected nil error closing disabled publisher, got %v", err)
	}
}
