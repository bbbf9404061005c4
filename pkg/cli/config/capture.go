package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/service/capture"
	"github.com/retrace-dev/retrace/pkg/service/desktop"
	"github.com/retrace-dev/retrace/pkg/service/ocr"
	"github.com/urfave/cli/v3"
)

// Capture holds capture loop configuration: timing, platform helper
// commands, and OCR settings
type Capture struct {
	interval      time.Duration
	clickCooldown time.Duration
	clickSettle   time.Duration

	screenshotDir string
	inspectCmd    string
	urlCmd        string
	screenshotCmd string

	clickCmd string

	ocrCmd   string
	ocrLangs string
}

// Flags returns CLI flags for capture configuration
func (c *Capture) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "interval",
			Usage:       "Interval between timer-triggered captures",
			Value:       60 * time.Second,
			Sources:     cli.EnvVars("RETRACE_INTERVAL"),
			Destination: &c.interval,
		},
		&cli.DurationFlag{
			Name:        "click-cooldown",
			Usage:       "Minimum spacing between click-triggered captures",
			Value:       5 * time.Second,
			Sources:     cli.EnvVars("RETRACE_CLICK_COOLDOWN"),
			Destination: &c.clickCooldown,
		},
		&cli.DurationFlag{
			Name:        "click-settle",
			Usage:       "Delay after a click before capturing, to let the UI render",
			Value:       time.Second,
			Sources:     cli.EnvVars("RETRACE_CLICK_SETTLE"),
			Destination: &c.clickSettle,
		},
		&cli.StringFlag{
			Name:        "screenshot-dir",
			Usage:       "Directory for captured screenshots",
			Value:       "screen_recordings",
			Sources:     cli.EnvVars("RETRACE_SCREENSHOT_DIR"),
			Destination: &c.screenshotDir,
		},
		&cli.StringFlag{
			Name:        "inspect-cmd",
			Usage:       "Command printing foreground window info as JSON",
			Sources:     cli.EnvVars("RETRACE_INSPECT_CMD"),
			Destination: &c.inspectCmd,
		},
		&cli.StringFlag{
			Name:        "url-cmd",
			Usage:       "Command printing the foreground browser URL",
			Sources:     cli.EnvVars("RETRACE_URL_CMD"),
			Destination: &c.urlCmd,
		},
		&cli.StringFlag{
			Name:        "screenshot-cmd",
			Usage:       "Screenshot command; receives [x y w h] and the output path as arguments",
			Sources:     cli.EnvVars("RETRACE_SCREENSHOT_CMD"),
			Destination: &c.screenshotCmd,
		},
		&cli.StringFlag{
			Name:        "click-cmd",
			Usage:       "Command streaming one line per mouse click: \"<x> <y> <button>\"",
			Sources:     cli.EnvVars("RETRACE_CLICK_CMD"),
			Destination: &c.clickCmd,
		},
		&cli.StringFlag{
			Name:        "ocr-cmd",
			Usage:       "Tesseract binary used for OCR",
			Value:       "tesseract",
			Sources:     cli.EnvVars("RETRACE_OCR_CMD"),
			Destination: &c.ocrCmd,
		},
		&cli.StringFlag{
			Name:        "ocr-langs",
			Usage:       "Tesseract language models",
			Value:       "chi_sim+eng",
			Sources:     cli.EnvVars("RETRACE_OCR_LANGS"),
			Destination: &c.ocrLangs,
		},
	}
}

// LogValue implements slog.LogValuer
func (c Capture) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("interval", c.interval),
		slog.Duration("click_cooldown", c.clickCooldown),
		slog.String("screenshot_dir", c.screenshotDir),
		slog.String("ocr_langs", c.ocrLangs),
	)
}

// SchedulerConfig returns the capture scheduler settings
func (c *Capture) SchedulerConfig() capture.Config {
	return capture.Config{
		Interval:      c.interval,
		ClickCooldown: c.clickCooldown,
		ClickSettle:   c.clickSettle,
	}
}

// Inspector builds the foreground window inspector
func (c *Capture) Inspector() interfaces.Inspector {
	return desktop.NewInspector(splitCommand(c.inspectCmd), splitCommand(c.urlCmd))
}

// Grabber builds the screenshot grabber
func (c *Capture) Grabber() interfaces.Grabber {
	return desktop.NewGrabber(splitCommand(c.screenshotCmd), c.screenshotDir)
}

// ClickListener builds the mouse click listener
func (c *Capture) ClickListener() *desktop.ClickListener {
	return desktop.NewClickListener(splitCommand(c.clickCmd))
}

// Extractor builds the OCR text extractor
func (c *Capture) Extractor() interfaces.TextExtractor {
	return ocr.New(c.ocrCmd, c.ocrLangs)
}

func splitCommand(s string) []string {
	return strings.Fields(s)
}
