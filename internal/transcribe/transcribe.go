// Package transcribe converts WhatsApp voice notes to text: the OGG/Opus
// container is transcoded to WAV with ffmpeg, then handed to the
// speech-to-text vendor.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/FRI2020/talk-trace/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// ErrTranscription marks any failure in the decode-and-transcribe path. The
// webhook router degrades to a user-facing apology on this error.
var ErrTranscription = errors.New("audio could not be transcribed")

type audioClient interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

type Transcriber struct {
	llm      audioClient
	model    string
	language string
	ffmpeg   string
}

func New(llmCfg config.LLMConfig, speechCfg config.SpeechConfig) *Transcriber {
	clientCfg := openai.DefaultConfig(llmCfg.APIKey)
	if llmCfg.BaseURL != "" {
		clientCfg.BaseURL = llmCfg.BaseURL
	}

	return &Transcriber{
		llm:      openai.NewClientWithConfig(clientCfg),
		model:    speechCfg.Model,
		language: speechCfg.Language,
		ffmpeg:   "ffmpeg",
	}
}

// NewWithClient wires an explicit audio client, used by tests.
func NewWithClient(llm audioClient, model, language string) *Transcriber {
	return &Transcriber{llm: llm, model: model, language: language, ffmpeg: "ffmpeg"}
}

// Transcribe transcodes raw OGG audio to 16 kHz mono WAV and returns the
// vendor's transcription with the configured language hint.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	wav, err := t.transcode(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	resp, err := t.llm.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "voice.wav",
		Reader:   bytes.NewReader(wav),
		Language: t.language,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	return resp.Text, nil
}

func (t *Transcriber) transcode(ctx context.Context, audio []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-i", "pipe:0",
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"pipe:1",
	)

	var out, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v (%s)", err, stderr.String())
	}
	return out.Bytes(), nil
}
