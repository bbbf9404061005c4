package desktop_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
	"github.com/retrace-dev/retrace/pkg/service/desktop"
)

func TestActiveWindowParsesHelperOutput(t *testing.T) {
	insp := desktop.NewInspector([]string{
		"echo", `{"title":"Inbox - Chrome","process_name":"chrome.exe","pid":4242,"x":10,"y":20,"width":1280,"height":720}`,
	}, nil)

	info := insp.ActiveWindow(context.Background())
	gt.Value(t, info.Title).Equal("Inbox - Chrome")
	gt.Value(t, info.AppName).Equal("Chrome")
	gt.Value(t, info.ProcessName).Equal("chrome.exe")
	gt.Value(t, info.PID).Equal(4242)
	gt.Value(t, info.Bounds).NotNil()
	gt.Value(t, info.Bounds.Width).Equal(1280)
}

func TestActiveWindowDegradesToUnknown(t *testing.T) {
	t.Run("no helper configured", func(t *testing.T) {
		insp := desktop.NewInspector(nil, nil)
		info := insp.ActiveWindow(context.Background())
		gt.Value(t, info.AppName).Equal(types.AppUnknown)
		gt.Value(t, info.Bounds).Nil()
	})

	t.Run("helper missing", func(t *testing.T) {
		insp := desktop.NewInspector([]string{"/nonexistent/helper"}, nil)
		info := insp.ActiveWindow(context.Background())
		gt.Value(t, info.AppName).Equal(types.AppUnknown)
	})

	t.Run("helper prints garbage", func(t *testing.T) {
		insp := desktop.NewInspector([]string{"echo", "not json"}, nil)
		info := insp.ActiveWindow(context.Background())
		gt.Value(t, info.AppName).Equal(types.AppUnknown)
	})
}

func TestActiveURL(t *testing.T) {
	browser := &model.WindowInfo{Title: "page", ProcessName: "chrome.exe", AppName: "Chrome"}

	t.Run("accepts http-like schemes", func(t *testing.T) {
		insp := desktop.NewInspector(nil, []string{"echo", "https://example.com/page"})
		gt.Value(t, insp.ActiveURL(context.Background(), browser)).Equal("https://example.com/page")
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		insp := desktop.NewInspector(nil, []string{"echo", "javascript:void(0)"})
		gt.Value(t, insp.ActiveURL(context.Background(), browser)).Equal("")
	})

	t.Run("non-browser app skips the helper", func(t *testing.T) {
		insp := desktop.NewInspector(nil, []string{"echo", "https://example.com"})
		editor := &model.WindowInfo{Title: "main.go", ProcessName: "code.exe", AppName: "VSCode"}
		gt.Value(t, insp.ActiveURL(context.Background(), editor)).Equal("")
	})
}
