package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"mandibill/internal/logger"
	"mandibill/pkg/models"
)

const (
	// MaxDocumentSizeBytes is the maximum document size for processing (20MB).
	MaxDocumentSizeBytes = 20 * 1024 * 1024
)

// DocumentAIConfig holds the processor configuration.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// DocumentAIExtractor implements Extractor using Google Document AI. It only
// handles typed or printed bills, which some larger mills issue, and only
// maps the header fields of the invoice schema. Handwritten parchis go
// through OCRExtractor, and line items are always entered or merged by hand.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates the extractor with credentials from environment.
// Expects: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
// Requires: GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID
// Optional: GOOGLE_CLOUD_LOCATION (defaults to "us")
func NewDocumentAIExtractor(ctx context.Context) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	config := DocumentAIConfig{
		ProjectID:   getEnvVar("GOOGLE_CLOUD_PROJECT", "GOOGLE_PROJECT_ID"),
		Location:    getEnvVar("GOOGLE_CLOUD_LOCATION", "GOOGLE_LOCATION"),
		ProcessorID: getEnvVar("DOCUMENT_AI_PROCESSOR_ID", "GOOGLE_PROCESSOR_ID"),
		Timeout:     60 * time.Second,
	}

	if config.ProjectID == "" {
		return nil, WrapError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewDocumentAIExtractorWithConfig(config, client), nil
}

// NewDocumentAIExtractorWithConfig creates the extractor with explicit config and client.
func NewDocumentAIExtractorWithConfig(config DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIExtractor {
	return &DocumentAIExtractor{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// ExtractInvoice implements Extractor. The document may be a PDF or an image;
// the MIME type is sniffed from the leading bytes.
func (e *DocumentAIExtractor) ExtractInvoice(ctx context.Context, document io.Reader) (*models.InvoiceFragment, error) {
	const op = "ExtractInvoice"

	data, err := io.ReadAll(document)
	if err != nil {
		return nil, WrapError(op, err, "failed to read document data")
	}
	if len(data) > MaxDocumentSizeBytes {
		return nil, WrapError(op, ErrExtractionFailed, fmt.Sprintf("file too large: %d bytes", len(data)))
	}

	processCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: e.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: sniffMimeType(data),
			},
		},
	}

	resp, err := e.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, e.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return nil, WrapError(op, ErrExtractionFailed, "no document in response")
	}

	frag := e.fragmentFromDocument(resp.Document)

	e.log.Info().
		Int("entities", len(resp.Document.Entities)).
		Bool("empty", frag.IsEmpty()).
		Msg("Document AI extraction completed")

	return frag, nil
}

// processorName constructs the full processor resource name.
func (e *DocumentAIExtractor) processorName() string {
	if e.config.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			e.config.ProjectID, e.config.Location, e.config.ProcessorID, e.config.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		e.config.ProjectID, e.config.Location, e.config.ProcessorID)
}

// handleProcessingError converts Document AI errors to capture errors.
func (e *DocumentAIExtractor) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "NOT_FOUND"):
		return WrapError(op, ErrProcessorNotFound, fmt.Sprintf("processor not found: %s", e.config.ProcessorID))
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapError(op, context.DeadlineExceeded, "processing timeout")
	default:
		return WrapError(op, ErrExtractionFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// fragmentFromDocument maps invoice-processor entities onto the bill header.
// Entities the mandi schema has no use for (currency, tax, line items) are
// skipped; the pre-trained processor knows nothing of katt or bharti.
func (e *DocumentAIExtractor) fragmentFromDocument(doc *documentaipb.Document) *models.InvoiceFragment {
	frag := &models.InvoiceFragment{}

	for _, entity := range doc.Entities {
		value := strings.TrimSpace(entity.MentionText)
		if value == "" {
			continue
		}

		e.log.Debug().
			Str("entity_type", entity.Type).
			Str("value", value).
			Float32("confidence", entity.Confidence).
			Msg("Processing Document AI entity")

		switch entity.Type {
		case "invoice_id", "invoice_number":
			frag.BillNumber = &value
		case "supplier_name", "vendor_name":
			frag.PartyName = &value
		case "receiver_name", "buyer_name", "customer_name":
			frag.ShopName = &value
		case "receiver_address", "supplier_address":
			if frag.Address == nil {
				addr := value
				frag.Address = &addr
			}
		case "supplier_phone", "receiver_phone", "phone":
			if frag.Phone == nil {
				phone := value
				frag.Phone = &phone
			}
		case "invoice_date":
			if date, err := extractEntityDate(entity); err == nil {
				iso := date.Format("2006-01-02")
				frag.Date = &iso
			}
		}
	}

	return frag
}

// extractEntityDate reads the normalized date from an entity, falling back to
// parsing the mention text.
func extractEntityDate(entity *documentaipb.Document_Entity) (time.Time, error) {
	if entity.NormalizedValue != nil {
		if dv := entity.NormalizedValue.GetDateValue(); dv != nil {
			return time.Date(int(dv.Year), time.Month(dv.Month), int(dv.Day), 0, 0, 0, 0, time.UTC), nil
		}
	}

	dateStr := strings.TrimSpace(entity.MentionText)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}

	formats := []string{
		"2006-01-02",
		"02-01-2006",
		"02/01/2006",
		"02.01.2006",
		"2 January 2006",
		"2 Jan 2006",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// sniffMimeType distinguishes PDFs from the image formats phones produce.
func sniffMimeType(data []byte) string {
	switch {
	case len(data) >= 4 && string(data[:4]) == "%PDF":
		return "application/pdf"
	case len(data) >= 8 && string(data[1:4]) == "PNG":
		return "image/png"
	case len(data) >= 12 && string(data[8:12]) == "WEBP":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// getEnvVar tries multiple environment variable names and returns the first non-empty value.
func getEnvVar(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// Close closes the underlying Document AI client.
func (e *DocumentAIExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
