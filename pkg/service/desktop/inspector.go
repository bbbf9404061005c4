package desktop

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

const commandTimeout = 5 * time.Second

// Inspector shells out to a platform helper for foreground window
// context. The helper prints a single JSON object on stdout:
//
//	{"title": "...", "process_name": "...", "pid": 123,
//	 "x": 0, "y": 0, "width": 1920, "height": 1080}
//
// Every failure path degrades to Unknown sentinels. The capture loop
// must keep running on a desktop we cannot introspect.
type Inspector struct {
	inspectCmd []string
	urlCmd     []string
}

var _ interfaces.Inspector = (*Inspector)(nil)

// NewInspector creates a command-based inspector. urlCmd is optional: an
// empty command disables the structured URL path and URL extraction
// falls back to OCR pattern matching.
func NewInspector(inspectCmd, urlCmd []string) *Inspector {
	return &Inspector{inspectCmd: inspectCmd, urlCmd: urlCmd}
}

type windowReport struct {
	Title       string `json:"title"`
	ProcessName string `json:"process_name"`
	PID         int    `json:"pid"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

func unknownWindow() *model.WindowInfo {
	return &model.WindowInfo{
		Title:       types.AppUnknown,
		ProcessName: types.AppUnknown,
		AppName:     types.AppUnknown,
	}
}

// ActiveWindow returns the foreground window context, or Unknown
// sentinels when the helper is missing or misbehaves
func (x *Inspector) ActiveWindow(ctx context.Context) *model.WindowInfo {
	if len(x.inspectCmd) == 0 {
		return unknownWindow()
	}

	out, err := runCommand(ctx, x.inspectCmd)
	if err != nil {
		logging.From(ctx).Debug("window inspection failed", "error", err)
		return unknownWindow()
	}

	var report windowReport
	if err := json.Unmarshal(out, &report); err != nil {
		logging.From(ctx).Debug("window inspection returned invalid JSON", "error", err)
		return unknownWindow()
	}

	info := &model.WindowInfo{
		Title:       report.Title,
		ProcessName: report.ProcessName,
		AppName:     types.NormalizeAppName(report.ProcessName),
		PID:         report.PID,
	}
	if info.Title == "" {
		info.Title = types.AppUnknown
	}
	if report.Width > 0 && report.Height > 0 {
		info.Bounds = &model.Rect{
			X:      report.X,
			Y:      report.Y,
			Width:  report.Width,
			Height: report.Height,
		}
	}
	return info
}

// ActiveURL asks the URL helper for the foreground browser's address.
// Only http, https and file URLs are accepted; anything else is treated
// as a failed reading.
func (x *Inspector) ActiveURL(ctx context.Context, info *model.WindowInfo) string {
	if len(x.urlCmd) == 0 || !types.IsBrowser(info.AppName) {
		return ""
	}

	out, err := runCommand(ctx, x.urlCmd)
	if err != nil {
		logging.From(ctx).Debug("URL inspection failed", "error", err)
		return ""
	}

	url := strings.TrimSpace(string(out))
	for _, scheme := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(url, scheme) {
			return url
		}
	}
	return ""
}

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	return cmd.Output()
}
