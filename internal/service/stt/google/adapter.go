// Package google provides a Google Cloud Speech-to-Text recognizer.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/service/stt"
)

// Config holds recognition settings.
type Config struct {
	LanguageCode  string
	SampleRateHz  int32
	AudioEncoding string
}

// DefaultConfig matches the output of the audio normalizer.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  "zh-CN",
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
	}
}

// recognizeClient is the subset of *speech.Client used here.
type recognizeClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// Adapter implements stt.Recognizer using synchronous Google recognition.
type Adapter struct {
	client recognizeClient
	cfg    Config
}

// New creates a new Google recognizer.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, failure.New(failure.KindConfig, "google.New", err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Name implements stt.Recognizer.
func (a *Adapter) Name() string { return "google" }

// Transcribe implements stt.Recognizer. The model path is not used.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	const op = "google.Transcribe"

	audio, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return "", failure.New(failure.KindRecognition, op, fmt.Errorf("read audio: %w", err))
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        parseAudioEncoding(a.cfg.AudioEncoding),
			SampleRateHertz: a.cfg.SampleRateHz,
			LanguageCode:    languageCode(req.Language, a.cfg.LanguageCode),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", failure.New(failure.KindCancelled, op, ctxErr)
		}
		return "", failure.New(failure.KindRecognition, op, err)
	}

	return joinResults(resp), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func joinResults(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// languageCode expands short hints to BCP-47 tags Google accepts.
func languageCode(hint, fallback string) string {
	switch hint {
	case "":
		return fallback
	case "zh":
		return "zh-CN"
	case "en":
		return "en-US"
	default:
		return hint
	}
}

func parseAudioEncoding(s string) speechpb.RecognitionConfig_AudioEncoding {
	switch s {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}

var _ stt.Recognizer = (*Adapter)(nil)
