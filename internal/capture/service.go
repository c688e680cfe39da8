// Package capture turns photos and voice notes of mandi bills into partial
// invoice fragments.
//
// Two extraction paths are available:
//
//   - OCR + LLM: Google Cloud Vision reads the (usually handwritten, usually
//     Urdu) parchi, then an OpenAI chat completion structures the raw text
//     into bill fields. This is the default and handles the messy common
//     case.
//   - Document AI: Google's pretrained invoice parser, useful for typed or
//     printed bills. Generic invoice entities are mapped onto the mandi
//     header fields; line items and weights are out of its vocabulary, so
//     this path only fills the header.
//
// Voice notes go through Whisper transcription followed by the same LLM
// structuring step, yielding a single-item fragment.
//
// Every adapter returns a models.InvoiceFragment: the caller merges it into
// the working invoice and the settlement engine never learns where the data
// came from. Canceling the context abandons the request without touching the
// invoice.
package capture

import (
	"context"
	"io"

	"mandibill/pkg/models"
)

// Extractor produces an invoice fragment from a bill image.
type Extractor interface {
	// ExtractInvoice reads one bill photo or scan and returns the fields it
	// could recognize. An empty fragment (not an error) means the document
	// was readable but contained no bill data.
	ExtractInvoice(ctx context.Context, image io.Reader) (*models.InvoiceFragment, error)
}

// VoiceParser produces an invoice fragment from a spoken entry like
// "ten bags of dhaan, six hundred kilos, rate two thousand".
type VoiceParser interface {
	// ParseVoiceNote transcribes and structures one voice note. The fragment
	// usually carries a single item.
	ParseVoiceNote(ctx context.Context, audio io.Reader, format string) (*models.InvoiceFragment, error)
}

// Config tunes the LLM structuring step.
type Config struct {
	Model       string  // OpenAI chat model
	Temperature float32 // low values keep field extraction deterministic
	MaxRetries  int     // attempts before giving up on malformed replies
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxRetries:  3,
	}
}
