package ocr

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

const (
	defaultCommand   = "tesseract"
	defaultLanguages = "chi_sim+eng"
	defaultTimeout   = 30 * time.Second
)

// Tesseract extracts text from screenshots via the tesseract CLI. Page
// segmentation mode 6 (a single uniform text block) works best on busy
// application windows.
type Tesseract struct {
	command   string
	languages string
	timeout   time.Duration
}

var _ interfaces.TextExtractor = (*Tesseract)(nil)

// New creates a tesseract-backed extractor. Empty arguments take the
// defaults: the "tesseract" binary on PATH with simplified Chinese plus
// English models.
func New(command, languages string) *Tesseract {
	if command == "" {
		command = defaultCommand
	}
	if languages == "" {
		languages = defaultLanguages
	}
	return &Tesseract{
		command:   command,
		languages: languages,
		timeout:   defaultTimeout,
	}
}

// ExtractText runs OCR over the image and returns whitespace-normalized
// text. Best effort: any failure yields an empty string.
func (x *Tesseract) ExtractText(ctx context.Context, imagePath string) string {
	cmdCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, x.command,
		imagePath, "stdout",
		"-l", x.languages,
		"--psm", "6",
	)
	out, err := cmd.Output()
	if err != nil {
		logging.From(ctx).Warn("OCR failed", "error", err, "image", imagePath)
		return ""
	}
	return Normalize(string(out))
}

// Normalize collapses all runs of whitespace into single spaces. OCR
// output is full of stray newlines and double spaces that would bloat
// both the stored text and the embedding input.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
