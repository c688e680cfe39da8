package capture

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/type/date"
)

func TestSniffMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", sniffMimeType([]byte("%PDF-1.7 ...")))
	assert.Equal(t, "image/png", sniffMimeType([]byte("\x89PNG\r\n\x1a\n....")))
	assert.Equal(t, "image/webp", sniffMimeType([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, "image/jpeg", sniffMimeType([]byte("\xff\xd8\xff\xe0 jfif")))
	assert.Equal(t, "image/jpeg", sniffMimeType(nil))
}

func TestExtractEntityDate(t *testing.T) {
	t.Run("normalized value wins", func(t *testing.T) {
		entity := &documentaipb.Document_Entity{
			MentionText: "garbage",
			NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
				StructuredValue: &documentaipb.Document_Entity_NormalizedValue_DateValue{
					DateValue: &date.Date{Year: 2026, Month: 8, Day: 14},
				},
			},
		}
		got, err := extractEntityDate(entity)
		require.NoError(t, err)
		assert.Equal(t, "2026-08-14", got.Format("2006-01-02"))
	})

	t.Run("mention text fallback", func(t *testing.T) {
		entity := &documentaipb.Document_Entity{MentionText: "14-08-2026"}
		got, err := extractEntityDate(entity)
		require.NoError(t, err)
		assert.Equal(t, "2026-08-14", got.Format("2006-01-02"))
	})

	t.Run("unparseable", func(t *testing.T) {
		entity := &documentaipb.Document_Entity{MentionText: "kal subah"}
		_, err := extractEntityDate(entity)
		require.Error(t, err)
	})
}
