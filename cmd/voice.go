package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mandibill/internal/capture"
	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/pkg/models"
)

var voiceCmd = &cobra.Command{
	Use:   "voice [audio-file]",
	Short: "Capture a bill entry from a dictated voice note",
	Long: `Transcribe a voice note with Whisper and structure the dictation into a
bill fragment, usually a single weighed lot ("pachaas bori gandum, wazan
teen hazar kilo, kaat do kilo, rate teen hazar do sau").

Supported formats: mp3, wav, m4a, ogg, webm. With --into the fragment is
merged over an existing bill file and the file is rewritten in place, the
same way scan does.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key`,
	Example: `  # Capture a dictated lot
  mandibill voice note.m4a

  # Append the dictated lot to a bill (rewrites bill.json)
  mandibill voice note.m4a --into bill.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVoice,
}

// VoiceOutput is the JSON output of the voice command.
type VoiceOutput struct {
	Fragment *models.InvoiceFragment `json:"fragment"`
	Invoice  *models.Invoice         `json:"invoice,omitempty"`
	Metadata VoiceMetadata           `json:"metadata"`
}

// VoiceMetadata describes the voice capture run.
type VoiceMetadata struct {
	FileName    string    `json:"file_name"`
	Format      string    `json:"format"`
	MergedInto  string    `json:"merged_into,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

func init() {
	rootCmd.AddCommand(voiceCmd)

	voiceCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	voiceCmd.Flags().String("into", "", "Bill file to merge the capture into")
	voiceCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runVoice(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("voice")

	outputPath, _ := cmd.Flags().GetString("output")
	intoPath, _ := cmd.Flags().GetString("into")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	audioPath := args[0]
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
	if format == "" {
		return fmt.Errorf("cannot determine audio format: %s has no extension", audioPath)
	}

	log.Info().
		Str("file", audioPath).
		Str("format", format).
		Msg("Starting voice capture")

	parser, err := capture.NewWhisperParser()
	if err != nil {
		if errors.Is(err, capture.ErrMissingAPIKey) {
			return fmt.Errorf("missing OpenAI API key. Please set OPENAI_API_KEY in your environment or .env file")
		}
		return fmt.Errorf("failed to create voice parser: %w", err)
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	audioFile, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer audioFile.Close()

	frag, err := parser.ParseVoiceNote(ctx, audioFile, format)
	if err != nil {
		if errors.Is(err, capture.ErrEmptyAudio) {
			return fmt.Errorf("audio file is empty: %s", audioPath)
		}
		return handleCaptureError(err, log)
	}

	output := VoiceOutput{
		Fragment: frag,
		Metadata: VoiceMetadata{
			FileName:    audioPath,
			Format:      format,
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
			Msg("Voice capture merged into bill")
	}

	return writeJSON(output, outputPath, log)
}
