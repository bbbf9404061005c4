package interfaces

import (
	"context"

	"github.com/retrace-dev/retrace/pkg/domain/model"
)

// Inspector reports the current foreground window. Implementations never
// return an error to the capture loop: a failed reading degrades to
// types.AppUnknown sentinels.
type Inspector interface {
	// ActiveWindow returns the foreground window context
	ActiveWindow(ctx context.Context) *model.WindowInfo

	// ActiveURL returns the address-bar URL of the foreground browser
	// via structured UI inspection. Empty when unavailable; the caller
	// falls back to pattern extraction over OCR text.
	ActiveURL(ctx context.Context, info *model.WindowInfo) string
}

// Grabber captures a screenshot of a region (nil region means full screen)
// and returns the image path. Empty path means the capture failed.
type Grabber interface {
	Capture(ctx context.Context, region *model.Rect) string
}

// TextExtractor runs OCR over a captured image. Best effort: returns an
// empty string on failure, never an error that aborts the capture loop.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) string
}
