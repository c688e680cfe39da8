package ocr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of PDF pages for synchronous processing
	MaxPagesSync = 5
)

// languageHints biases detection toward the scripts found on mandi parchis.
var languageHints = []string{"ur", "en"}

// GoogleVisionService implements Service using the Google Cloud Vision API.
type GoogleVisionService struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionService creates a new OCR service with credentials from the
// environment: GOOGLE_CREDENTIALS inline JSON, GOOGLE_APPLICATION_CREDENTIALS
// file path, or application default credentials, in that order.
func NewGoogleVisionService(ctx context.Context) (Service, error) {
	const op = "NewGoogleVisionService"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionService{client: client}, nil
}

// NewGoogleVisionServiceWithClient creates an OCR service with an explicit client (for testing).
func NewGoogleVisionServiceWithClient(client *vision.ImageAnnotatorClient) Service {
	return &GoogleVisionService{client: client}
}

// ProcessImage extracts text from a bill photo.
func (g *GoogleVisionService) ProcessImage(ctx context.Context, imageData io.Reader) (string, error) {
	result, err := g.ProcessImageWithMetadata(ctx, imageData)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ProcessImageWithMetadata extracts text from a bill photo with metadata.
func (g *GoogleVisionService) ProcessImageWithMetadata(ctx context.Context, imageData io.Reader) (*Result, error) {
	const op = "ProcessImageWithMetadata"
	startTime := time.Now()

	imageBytes, err := io.ReadAll(imageData)
	if err != nil {
		return nil, WrapError(op, err, "failed to read image data")
	}
	if len(imageBytes) > MaxFileSizeBytes {
		return nil, WrapError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(imageBytes)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageBytes},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: languageHints,
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return nil, WrapError(op, ErrOCRFailed, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return nil, WrapError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", annotation.Error.Message))
	}
	if annotation.FullTextAnnotation == nil || strings.TrimSpace(annotation.FullTextAnnotation.Text) == "" {
		return nil, WrapError(op, ErrEmptyDocument, "")
	}

	result := &Result{
		Text:       annotation.FullTextAnnotation.Text,
		PageCount:  1,
		Confidence: averageConfidence(annotation.TextAnnotations),
	}
	result.LanguageCodes = detectedLanguages(annotation.FullTextAnnotation)
	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	return result, nil
}

// ProcessPDF extracts text from a scanned PDF bill.
func (g *GoogleVisionService) ProcessPDF(ctx context.Context, pdfData io.Reader) (string, error) {
	const op = "ProcessPDF"

	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return "", WrapError(op, err, "failed to read PDF data")
	}
	if len(pdfBytes) > MaxFileSizeBytes {
		return "", WrapError(op, ErrFileTooLarge, fmt.Sprintf("file size: %d bytes", len(pdfBytes)))
	}
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return "", WrapError(op, ErrInvalidPDF, "missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := g.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return "", WrapError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return "", WrapError(op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return "", WrapError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}
	if len(fileResp.Responses) > MaxPagesSync {
		return "", WrapError(op, ErrTooManyPages, fmt.Sprintf("document has %d pages", len(fileResp.Responses)))
	}

	var allText strings.Builder
	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return "", WrapError(op, ErrOCRFailed, fmt.Sprintf("error processing page %d: %s", pageIdx+1, page.Error.Message))
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if pageIdx > 0 {
			allText.WriteString("\n\n")
		}
		allText.WriteString(page.FullTextAnnotation.Text)
	}

	text := allText.String()
	if strings.TrimSpace(text) == "" {
		return "", WrapError(op, ErrEmptyDocument, "")
	}
	return text, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionService) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func averageConfidence(annotations []*visionpb.EntityAnnotation) float32 {
	var sum float32
	var count int
	for _, a := range annotations {
		if a.Confidence > 0 {
			sum += a.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float32(count)
}

func detectedLanguages(annotation *visionpb.TextAnnotation) []string {
	seen := make(map[string]bool)
	var languages []string
	for _, page := range annotation.Pages {
		if page.Property == nil {
			continue
		}
		for _, lang := range page.Property.DetectedLanguages {
			if lang.LanguageCode != "" && !seen[lang.LanguageCode] {
				seen[lang.LanguageCode] = true
				languages = append(languages, lang.LanguageCode)
			}
		}
	}
	return languages
}
