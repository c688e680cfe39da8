package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mandibill/internal/capture"
	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/pkg/models"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-file]",
	Short: "Capture bill fields from a photo of a handwritten parchi",
	Long: `Read a photo (JPEG/PNG/WEBP) or scanned PDF of a mandi bill and extract
its fields. The default engine OCRs the image with Google Cloud Vision
(with Urdu language hints) and structures the raw text with an OpenAI chat
model. The documentai engine sends the document to a Google Document AI
invoice processor instead; it only fills header fields and suits typed
bills from larger mills.

The result is a bill fragment: only the fields actually read appear. With
--into the fragment is merged over an existing bill file and the file is
rewritten in place; captured scalars overwrite and captured items and
weights are appended.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key (vision engine)
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - Google Cloud access
  GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID - documentai engine only`,
	Example: `  # Extract bill fields from a parchi photo
  mandibill scan parchi.jpg

  # Merge the capture into an existing bill (rewrites bill.json)
  mandibill scan parchi.jpg --into bill.json

  # Use the Document AI invoice processor for a typed bill
  mandibill scan bill.pdf --engine documentai`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// ScanOutput is the JSON output of the scan command.
type ScanOutput struct {
	Fragment *models.InvoiceFragment `json:"fragment"`
	Invoice  *models.Invoice         `json:"invoice,omitempty"`
	Metadata ScanMetadata            `json:"metadata"`
}

// ScanMetadata describes the capture run.
type ScanMetadata struct {
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size_bytes"`
	Engine      string    `json:"engine"`
	MergedInto  string    `json:"merged_into,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().String("engine", "vision", "Capture engine: vision or documentai")
	scanCmd.Flags().String("into", "", "Bill file to merge the capture into")
	scanCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	outputPath, _ := cmd.Flags().GetString("output")
	engine, _ := cmd.Flags().GetString("engine")
	intoPath, _ := cmd.Flags().GetString("into")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("engine", engine).
		Str("into", intoPath).
		Msg("Starting bill capture")

	fileInfo, err := validateScanFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	extractor, closeExtractor, err := createExtractor(ctx, engine, log)
	if err != nil {
		return err
	}
	defer closeExtractor()

	imageFile, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer imageFile.Close()

	frag, err := extractor.ExtractInvoice(ctx, imageFile)
	if err != nil {
		return handleCaptureError(err, log)
	}

	if frag.IsEmpty() {
		log.Warn().Str("file", imagePath).Msg("No bill fields could be read")
	}

	output := ScanOutput{
		Fragment: frag,
		Metadata: ScanMetadata{
			FileName:    imagePath,
			FileSize:    fileInfo.Size(),
			Engine:      engine,
			ProcessedAt: time.Now(),
		},
	}

	if intoPath != "" {
		base, err := readInvoiceFile(intoPath)
		if err != nil {
			return err
		}
		merged := settlement.Merge(base, *frag)
		if err := writeJSON(merged, intoPath, log); err != nil {
			return err
		}
		output.Invoice = &merged
		output.Metadata.MergedInto = intoPath

		log.Info().
			Str("into", intoPath).
			Int("items_added", len(frag.Items)).
			Int("weights_added", len(frag.Weights)).
			Msg("Capture merged into bill")
	}

	return writeJSON(output, outputPath, log)
}

// validateScanFile checks that the input is a usable image or PDF file.
func validateScanFile(path string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Image file not found")
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing image file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("image file is empty: %s", path)
	}
	if fileInfo.Size() > capture.MaxDocumentSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", fileInfo.Size()).
			Msg("File exceeds maximum size limit")
		return nil, fmt.Errorf("file too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), capture.MaxDocumentSizeBytes)
	}

	return fileInfo, nil
}

// createExtractor builds the requested capture engine.
func createExtractor(ctx context.Context, engine string, log zerolog.Logger) (capture.Extractor, func(), error) {
	switch engine {
	case "vision":
		extractor, err := capture.NewOCRExtractor(ctx)
		if err != nil {
			if errors.Is(err, capture.ErrMissingAPIKey) {
				return nil, nil, fmt.Errorf("missing OpenAI API key. Please set OPENAI_API_KEY in your environment or .env file")
			}
			return nil, nil, fmt.Errorf("failed to create capture engine: %w", err)
		}
		return extractor, func() {
			if closeErr := extractor.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close Vision client")
			}
		}, nil
	case "documentai":
		extractor, err := capture.NewDocumentAIExtractor(ctx)
		if err != nil {
			if errors.Is(err, capture.ErrInvalidConfiguration) {
				return nil, nil, fmt.Errorf("invalid Document AI configuration. Please check your .env file:\n"+
					"  GOOGLE_CLOUD_PROJECT - your Google Cloud project ID\n"+
					"  GOOGLE_CLOUD_LOCATION - processing location (us, eu, etc.)\n"+
					"  DOCUMENT_AI_PROCESSOR_ID - your Document AI processor ID\n"+
					"Original error: %w", err)
			}
			return nil, nil, fmt.Errorf("failed to create capture engine: %w", err)
		}
		return extractor, func() {
			if closeErr := extractor.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close Document AI client")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown capture engine %q (expected vision or documentai)", engine)
	}
}

// handleCaptureError provides user-friendly messages for capture failures.
func handleCaptureError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Bill capture failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("capture timed out. Try increasing --timeout or a smaller image")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("capture was canceled")
	case errors.Is(err, capture.ErrUnreadableResponse):
		return fmt.Errorf("the model reply could not be parsed. Try again, or enter the bill by hand")
	case errors.Is(err, capture.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Please check DOCUMENT_AI_PROCESSOR_ID")
	case errors.Is(err, capture.ErrMissingCredentials):
		return fmt.Errorf("missing Google Cloud credentials. Please set one of:\n" +
			"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
			"  GOOGLE_CREDENTIALS='<json-credentials>'")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "credentials"):
		return fmt.Errorf("Google Cloud authentication failed. Check your service account credentials.\nOriginal error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Ensure the service account has access to the Vision or Document AI API")
	default:
		return fmt.Errorf("bill capture failed: %w", err)
	}
}
