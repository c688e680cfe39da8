package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"mandibill/internal/logger"
	"mandibill/internal/ocr"
	"mandibill/pkg/models"
)

// OCRExtractor reads a bill photo with Vision OCR and structures the raw
// text into an invoice fragment with an OpenAI chat completion.
type OCRExtractor struct {
	ocrService   ocr.Service
	openaiClient *openai.Client
	config       Config
	log          zerolog.Logger
}

// NewOCRExtractor creates the extractor with dependencies from the
// environment (OPENAI_API_KEY, Google Cloud credentials, OPENAI_MODEL).
func NewOCRExtractor(ctx context.Context) (*OCRExtractor, error) {
	const op = "NewOCRExtractor"

	ocrService, err := ocr.NewGoogleVisionService(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create OCR service: %w", op, err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, WrapError(op, ErrMissingAPIKey, "")
	}

	config := DefaultConfig()
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		config.Model = model
	}

	return NewOCRExtractorWithDeps(ocrService, openai.NewClient(apiKey), config), nil
}

// NewOCRExtractorWithDeps creates the extractor with explicit dependencies.
func NewOCRExtractorWithDeps(ocrService ocr.Service, client *openai.Client, config Config) *OCRExtractor {
	return &OCRExtractor{
		ocrService:   ocrService,
		openaiClient: client,
		config:       config,
		log:          logger.WithComponent("capture-ocr"),
	}
}

// ExtractInvoice implements Extractor. Scanned PDFs are recognized by their
// header and OCRed page by page; anything else is treated as a photo.
func (e *OCRExtractor) ExtractInvoice(ctx context.Context, image io.Reader) (*models.InvoiceFragment, error) {
	const op = "ExtractInvoice"

	data, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read document data: %w", op, err)
	}

	text, err := e.extractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: OCR failed: %w", op, err)
	}

	frag, err := e.structureText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: structuring failed: %w", op, err)
	}

	e.log.Info().
		Int("items", len(frag.Items)).
		Int("weights", len(frag.Weights)).
		Bool("empty", frag.IsEmpty()).
		Msg("Bill fragment extracted")

	return frag, nil
}

// extractText runs the OCR step, routing scanned PDFs through the Vision
// file path and photos through the image path.
func (e *OCRExtractor) extractText(ctx context.Context, data []byte) (string, error) {
	if len(data) >= 4 && string(data[:4]) == "%PDF" {
		text, err := e.ocrService.ProcessPDF(ctx, bytes.NewReader(data))
		if err != nil {
			return "", err
		}

		e.log.Info().
			Int("text_length", len(text)).
			Msg("PDF OCR extraction completed")
		return text, nil
	}

	ocrResult, err := e.ocrService.ProcessImageWithMetadata(ctx, bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	e.log.Info().
		Int("text_length", len(ocrResult.Text)).
		Float32("avg_confidence", ocrResult.Confidence).
		Strs("languages", ocrResult.LanguageCodes).
		Msg("OCR extraction completed")
	return ocrResult.Text, nil
}

// Close releases the underlying OCR client.
func (e *OCRExtractor) Close() error {
	return e.ocrService.Close()
}

// structureText asks the chat model to map OCR text onto the bill schema,
// retrying when the reply is not parseable JSON.
func (e *OCRExtractor) structureText(ctx context.Context, text string) (*models.InvoiceFragment, error) {
	const op = "structureText"

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := e.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       e.config.Model,
			Temperature: e.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: billSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: "OCR text of the bill follows. Extract the billing fields.\n\n" + text,
				},
			},
			MaxTokens: 1200,
		})
		if err != nil {
			lastErr = err
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", e.config.MaxRetries).
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
			e.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Unparseable model reply, retrying")
			continue
		}
		return frag, nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, e.config.MaxRetries, lastErr)
}

// billSystemPrompt mirrors the fields a munshi writes on a parchi. The model
// must omit anything it cannot read rather than guessing.
const billSystemPrompt = `You are an expert Mandi (grain market) billing clerk. You receive the OCR text
of a mandi bill (parchi), usually handwritten in Urdu with some English.

Extract these fields into a single JSON object, OMITTING any key you cannot
read with confidence (never invent values):

- "shopName": mill/shop name, usually the largest heading
- "address": address line under the name
- "phone": phone/cell numbers
- "billNumber": bill serial number
- "partyName": the seller party (look for "party ka naam")
- "date": bill date as YYYY-MM-DD
- "trolleyNo": vehicle/trolley number
- "brokerName": broker, if named
- "ratePerMaund": price per maund (40 kg), a number
- "commissionRate": commission percentage, a number
- "weights": array of weighbridge readings in kg, numbers only
- "items": array of {"description", "quantity", "weight", "katt", "rate", "bharti"}
  where quantity is the bag count, weight the gross kg of the lot, katt the
  per-bag deduction in kg, rate the per-maund price, bharti the nominal bag
  capacity in kg

Urdu cues: "پارٹی کا نام" = party name, "تاریخ" = date, "گاڑی نمبر" = vehicle,
"بروکر" = broker, "ریٹ" = rate, "کاٹ" = katt, "وزن" = weight, "بھرتی" = bharti.

Respond with the JSON object only.`
