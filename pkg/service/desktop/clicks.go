package desktop

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
)

// ClickListener streams global mouse clicks from a platform helper. The
// helper writes one line per click press on stdout: "<x> <y> <button>".
// Lines that do not parse are skipped.
type ClickListener struct {
	cmd []string
}

// NewClickListener creates a command-based click listener. An empty
// command disables click-triggered capture entirely.
func NewClickListener(cmd []string) *ClickListener {
	return &ClickListener{cmd: cmd}
}

// Enabled reports whether a helper command is configured
func (l *ClickListener) Enabled() bool {
	return len(l.cmd) > 0
}

// Listen runs the helper and invokes handler per click until the context
// is cancelled or the helper exits
func (l *ClickListener) Listen(ctx context.Context, handler func(model.Click)) error {
	if !l.Enabled() {
		return nil
	}

	cmd := exec.CommandContext(ctx, l.cmd[0], l.cmd[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return goerr.Wrap(err, "failed to open click helper stdout")
	}
	if err := cmd.Start(); err != nil {
		return goerr.Wrap(err, "failed to start click helper", goerr.V("cmd", l.cmd[0]))
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		click, ok := parseClickLine(scanner.Text())
		if !ok {
			logging.From(ctx).Debug("unparseable click line", "line", scanner.Text())
			continue
		}
		handler(click)
	}

	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return goerr.Wrap(err, "click helper exited")
	}
	return nil
}

func parseClickLine(line string) (model.Click, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return model.Click{}, false
	}
	x, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Click{}, false
	}
	y, err := strconv.Atoi(fields[1])
	if err != nil {
		return model.Click{}, false
	}
	return model.Click{X: x, Y: y, Button: fields[2]}, true
}
