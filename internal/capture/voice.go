package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"mandibill/internal/logger"
	"mandibill/pkg/models"
)

// WhisperParser implements VoiceParser. The munshi dictates one lot in
// Urdu or mixed Urdu/English ("pachaas bori gandum, wazan teen hazar kilo,
// kaat do kilo fi bori, rate teen hazar"); the note is transcribed with
// Whisper and structured into a fragment carrying a single item.
type WhisperParser struct {
	client *openai.Client
	config Config
	log    zerolog.Logger
}

// NewWhisperParser creates the parser with the API key from OPENAI_API_KEY.
func NewWhisperParser() (*WhisperParser, error) {
	const op = "NewWhisperParser"

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, WrapError(op, ErrMissingAPIKey, "")
	}

	config := DefaultConfig()
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.Model = model
	}

	return NewWhisperParserWithDeps(openai.NewClient(apiKey), config), nil
}

// NewWhisperParserWithDeps creates the parser with explicit dependencies.
func NewWhisperParserWithDeps(client *openai.Client, config Config) *WhisperParser {
	return &WhisperParser{
		client: client,
		config: config,
		log:    logger.WithComponent("capture-voice"),
	}
}

// ParseVoiceNote implements VoiceParser. Format is the audio file extension
// without the dot (mp3, wav, m4a, ogg).
func (p *WhisperParser) ParseVoiceNote(ctx context.Context, audio io.Reader, format string) (*models.InvoiceFragment, error) {
	const op = "ParseVoiceNote"

	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, WrapError(op, err, "failed to read audio data")
	}
	if len(data) == 0 {
		return nil, WrapError(op, ErrEmptyAudio, "")
	}

	transcript, err := p.transcribe(ctx, data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: transcription failed: %w", op, err)
	}

	p.log.Info().
		Int("transcript_length", len(transcript)).
		Msg("Voice note transcribed")

	frag, err := p.structureTranscript(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("%s: structuring failed: %w", op, err)
	}

	return frag, nil
}

func (p *WhisperParser) transcribe(ctx context.Context, data []byte, format string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(data),
		FilePath: "note." + strings.TrimPrefix(format, "."),
		Language: "ur",
		Prompt:   "Mandi grain bill dictation: bags (bori), weight (wazan) in kilo, katt per bag, rate per maund.",
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (p *WhisperParser) structureTranscript(ctx context.Context, transcript string) (*models.InvoiceFragment, error) {
	const op = "structureTranscript"

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.config.Model,
			Temperature: p.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: voiceSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: "Transcript of the dictation:\n\n" + transcript,
				},
			},
			MaxTokens: 600,
		})
		if err != nil {
			lastErr = err
			p.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Chat completion failed, retrying")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices from chat completion")
			continue
		}

		frag, err := parseBillResponse(resp.Choices[0].Message.Content)
		if err != nil {
			lastErr = err
			continue
		}
		return frag, nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, p.config.MaxRetries, lastErr)
}

const voiceSystemPrompt = `You are a Mandi (grain market) billing clerk. A colleague dictated one lot
of produce in Urdu or mixed Urdu/English. Extract it as a JSON object:

{"items": [{"description", "quantity", "weight", "katt", "rate"}]}

where quantity is the bag count (bori), weight the total kg, katt the per-bag
deduction in kg, rate the per-maund (40 kg) price. Include "partyName",
"ratePerMaund" or "billNumber" only if they were dictated. Numbers must be
JSON numbers. Omit anything not said; never invent values.

Respond with the JSON object only.`
