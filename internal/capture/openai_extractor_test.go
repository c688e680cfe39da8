package capture

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandibill/internal/ocr"
)

// stubOCRService records which OCR path was taken.
type stubOCRService struct {
	imageCalls int
	pdfCalls   int
	closed     bool
	text       string
}

func (s *stubOCRService) ProcessImage(ctx context.Context, imageData io.Reader) (string, error) {
	s.imageCalls++
	return s.text, nil
}

func (s *stubOCRService) ProcessImageWithMetadata(ctx context.Context, imageData io.Reader) (*ocr.Result, error) {
	s.imageCalls++
	return &ocr.Result{Text: s.text, PageCount: 1}, nil
}

func (s *stubOCRService) ProcessPDF(ctx context.Context, pdfData io.Reader) (string, error) {
	s.pdfCalls++
	return s.text, nil
}

func (s *stubOCRService) Close() error {
	s.closed = true
	return nil
}

func TestExtractTextRoutesByDocumentType(t *testing.T) {
	t.Run("PDF header goes through the PDF path", func(t *testing.T) {
		stub := &stubOCRService{text: "bill text"}
		e := NewOCRExtractorWithDeps(stub, nil, DefaultConfig())

		text, err := e.extractText(context.Background(), []byte("%PDF-1.7 rest of document"))
		require.NoError(t, err)
		assert.Equal(t, "bill text", text)
		assert.Equal(t, 1, stub.pdfCalls)
		assert.Equal(t, 0, stub.imageCalls)
	})

	t.Run("photo bytes go through the image path", func(t *testing.T) {
		stub := &stubOCRService{text: "bill text"}
		e := NewOCRExtractorWithDeps(stub, nil, DefaultConfig())

		text, err := e.extractText(context.Background(), []byte("\xff\xd8\xff\xe0 jfif"))
		require.NoError(t, err)
		assert.Equal(t, "bill text", text)
		assert.Equal(t, 0, stub.pdfCalls)
		assert.Equal(t, 1, stub.imageCalls)
	})

	t.Run("short payload is not mistaken for a PDF", func(t *testing.T) {
		stub := &stubOCRService{text: "x"}
		e := NewOCRExtractorWithDeps(stub, nil, DefaultConfig())

		_, err := e.extractText(context.Background(), []byte("%P"))
		require.NoError(t, err)
		assert.Equal(t, 1, stub.imageCalls)
	})
}

func TestOCRExtractorCloseReleasesClient(t *testing.T) {
	stub := &stubOCRService{}
	e := NewOCRExtractorWithDeps(stub, nil, DefaultConfig())

	require.NoError(t, e.Close())
	assert.True(t, stub.closed)
}
