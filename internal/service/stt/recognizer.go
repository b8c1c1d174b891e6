// Package stt defines the interface for speech recognizers.
package stt

import "context"

// Request describes one recognition of a normalized audio file.
type Request struct {
	// AudioPath is a mono 16 kHz 16-bit PCM WAV file.
	AudioPath string
	// ModelPath is the recognizer model artifact. Backends without local
	// models ignore it.
	ModelPath string
	// Language is a language hint such as "zh".
	Language string
}

// Recognizer turns a normalized audio file into text.
//
// An empty transcript after a successful run is returned as ("", nil); the
// caller decides whether that is actionable.
type Recognizer interface {
	Transcribe(ctx context.Context, req Request) (string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}
