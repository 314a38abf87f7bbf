package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// GoogleSpeech implements domain.Transcriber via Google Cloud
// Speech-to-Text batch recognition.
type GoogleSpeech struct {
	client   *speech.Client
	language string
}

func NewGoogleSpeech(ctx context.Context, language string) (*GoogleSpeech, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	return &GoogleSpeech{client: client, language: language}, nil
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: 16000,
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: transcription: %v", domain.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: transcribing audio: %v", domain.ErrUpstreamUnavailable, err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) > 0 {
			parts = append(parts, alternatives[0].GetTranscript())
		}
	}
	return strings.Join(parts, " "), nil
}
