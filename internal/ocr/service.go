// Package ocr extracts raw text from photographed or scanned mandi bills
// using the Google Cloud Vision API.
//
// Mandi bills are usually phone photos of handwritten Urdu/English parchis,
// so the primary path is document text detection on a single image with
// Urdu language hints. Scanned multi-page PDFs are supported as well.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous PDF processing
package ocr

import (
	"context"
	"io"
	"time"
)

// Service defines the interface for OCR text extraction.
type Service interface {
	// ProcessImage extracts text from a bill photo (JPEG/PNG/WEBP).
	ProcessImage(ctx context.Context, imageData io.Reader) (string, error)

	// ProcessImageWithMetadata extracts text with confidence and language
	// metadata.
	ProcessImageWithMetadata(ctx context.Context, imageData io.Reader) (*Result, error)

	// ProcessPDF extracts text from a scanned PDF bill, all pages
	// concatenated in reading order.
	ProcessPDF(ctx context.Context, pdfData io.Reader) (string, error)

	// Close releases the underlying API client.
	Close() error
}

// Result contains the results of OCR processing with metadata.
type Result struct {
	// Text is the extracted text content, pages concatenated in reading order.
	Text string `json:"text"`

	// PageCount is the number of pages that were processed (1 for images).
	PageCount int `json:"page_count"`

	// Confidence is the average confidence score across all detected text
	// (0.0 to 1.0).
	Confidence float32 `json:"confidence"`

	// LanguageCodes contains the detected languages in the document.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessedAt is when the OCR processing completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the OCR processing took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
