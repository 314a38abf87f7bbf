package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// maxCachedReplies bounds the synthesized-audio cache. Assistant
// replies repeat often enough (greetings, confirmations) that a small
// cache saves real synthesis calls.
const maxCachedReplies = 128

// GoogleTTS implements domain.Synthesizer via Google Cloud
// Text-to-Speech, caching synthesized audio keyed by a hash of the
// input text.
type GoogleTTS struct {
	client   *texttospeech.Client
	hasher   domain.Hasher
	language string

	mu    sync.Mutex
	cache map[string][]byte
}

func NewGoogleTTS(ctx context.Context, hasher domain.Hasher, language string) (*GoogleTTS, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating Google tts client: %w", err)
	}
	return &GoogleTTS{
		client:   client,
		hasher:   hasher,
		language: language,
		cache:    make(map[string][]byte),
	}, nil
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := g.hasher.Hash([]byte(text))

	g.mu.Lock()
	cached, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	req := texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{
				Text: text,
			},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
	resp, err := g.client.SynthesizeSpeech(ctx, &req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: tts: %v", domain.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: synthesizing speech: %v", domain.ErrUpstreamUnavailable, err)
	}

	audio := resp.GetAudioContent()
	g.mu.Lock()
	if len(g.cache) < maxCachedReplies {
		g.cache[key] = audio
	}
	g.mu.Unlock()
	return audio, nil
}
