package ocr_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/retrace-dev/retrace/pkg/service/ocr"
)

func TestNormalize(t *testing.T) {
	gt.Value(t, ocr.Normalize("hello\n\nworld  again\t")).Equal("hello world again")
	gt.Value(t, ocr.Normalize("  \n\t ")).Equal("")
	gt.Value(t, ocr.Normalize("单行 文本")).Equal("单行 文本")
}

func TestExtractTextFailureIsEmpty(t *testing.T) {
	x := ocr.New("/nonexistent/tesseract-binary", "")
	gt.Value(t, x.ExtractText(context.Background(), "/tmp/missing.png")).Equal("")
}
