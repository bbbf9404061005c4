package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/retrace-dev/retrace/pkg/domain/types"
)

// ActivityEvent is one persisted observation of user activity. Events are
// append-only: the store assigns ID and never mutates a row afterwards.
// Which optional fields are populated is fully determined by RecordType.
type ActivityEvent struct {
	ID          int64
	Timestamp   time.Time
	RecordType  types.RecordType
	TriggeredBy types.Trigger

	WindowTitle string
	ProcessName string
	AppName     string
	PageTitle   string
	URL         string
	PID         int

	// app_switch only
	FromApp string
	ToApp   string

	ScreenshotPath string
	OCRText        string

	// mouse_interaction only
	MouseX int
	MouseY int
	Button string
}

// Validate checks the per-type field policy
func (e *ActivityEvent) Validate() error {
	if !e.RecordType.IsValid() {
		return goerr.New("invalid record type", goerr.V("recordType", string(e.RecordType)))
	}
	if !e.TriggeredBy.IsValid() {
		return goerr.New("invalid trigger", goerr.V("triggeredBy", string(e.TriggeredBy)))
	}
	if e.Timestamp.IsZero() {
		return goerr.New("timestamp is required")
	}

	switch e.RecordType {
	case types.RecordAppSwitch:
		if e.FromApp == "" || e.ToApp == "" {
			return goerr.New("app_switch requires fromApp and toApp",
				goerr.V("fromApp", e.FromApp), goerr.V("toApp", e.ToApp))
		}
		if e.Button != "" || e.MouseX != 0 || e.MouseY != 0 {
			return goerr.New("app_switch must not carry mouse fields")
		}
		if e.ScreenshotPath != "" {
			return goerr.New("app_switch must not carry a screenshot")
		}

	case types.RecordScreenContent:
		if e.FromApp != "" || e.ToApp != "" {
			return goerr.New("screen_content must not carry fromApp/toApp")
		}
		if e.Button != "" || e.MouseX != 0 || e.MouseY != 0 {
			return goerr.New("screen_content must not carry mouse fields")
		}

	case types.RecordMouseInteraction:
		if e.FromApp != "" || e.ToApp != "" {
			return goerr.New("mouse_interaction must not carry fromApp/toApp")
		}
		if e.Button == "" {
			return goerr.New("mouse_interaction requires a button")
		}
	}

	return nil
}

// NewAppSwitchEvent builds the synthetic event emitted when the foreground
// application changes. The description text doubles as the indexable
// content for the event.
func NewAppSwitchEvent(now time.Time, fromApp, toApp, toTitle string) *ActivityEvent {
	return &ActivityEvent{
		Timestamp:   now,
		RecordType:  types.RecordAppSwitch,
		TriggeredBy: types.TriggerAppSwitch,
		AppName:     toApp,
		WindowTitle: toTitle,
		FromApp:     fromApp,
		ToApp:       toApp,
		OCRText:     fmt.Sprintf("Switched from %s to %s", fromApp, toApp),
	}
}
