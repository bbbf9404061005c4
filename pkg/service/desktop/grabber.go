package desktop

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

// Grabber shells out to a screenshot helper. The helper receives the
// output path as its last argument; when a region is requested, four
// extra arguments (x, y, width, height) precede the path. Screenshots
// land in dir with timestamped names.
type Grabber struct {
	cmd []string
	dir string
	now func() time.Time
}

var _ interfaces.Grabber = (*Grabber)(nil)

// NewGrabber creates a command-based screen grabber
func NewGrabber(cmd []string, dir string) *Grabber {
	return &Grabber{cmd: cmd, dir: dir, now: time.Now}
}

// Capture grabs the region (nil means full screen) and returns the image
// path, or empty on failure
func (g *Grabber) Capture(ctx context.Context, region *model.Rect) string {
	if len(g.cmd) == 0 {
		return ""
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		logging.From(ctx).Warn("failed to create screenshot directory", "error", err, "dir", g.dir)
		return ""
	}
	name := fmt.Sprintf("screenshot_%s_%s.png",
		g.now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(g.dir, name)

	argv := append([]string{}, g.cmd...)
	if region != nil && !region.Empty() {
		argv = append(argv,
			strconv.Itoa(region.X), strconv.Itoa(region.Y),
			strconv.Itoa(region.Width), strconv.Itoa(region.Height),
		)
	}
	argv = append(argv, path)

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := exec.CommandContext(cmdCtx, argv[0], argv[1:]...).Run(); err != nil {
		logging.From(ctx).Warn("screenshot command failed", "error", err)
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		logging.From(ctx).Warn("screenshot command produced no file", "path", path)
		return ""
	}
	return path
}
