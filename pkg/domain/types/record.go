package types

import "fmt"

// RecordType represents the kind of an activity event
type RecordType string

const (
	RecordScreenContent    RecordType = "screen_content"
	RecordAppSwitch        RecordType = "app_switch"
	RecordMouseInteraction RecordType = "mouse_interaction"
)

// AllRecordTypes returns all valid record types
func AllRecordTypes() []RecordType {
	return []RecordType{
		RecordScreenContent,
		RecordAppSwitch,
		RecordMouseInteraction,
	}
}

// IsValid checks if the record type is valid
func (t RecordType) IsValid() bool {
	switch t {
	case RecordScreenContent, RecordAppSwitch, RecordMouseInteraction:
		return true
	default:
		return false
	}
}

// String returns the string representation of the record type
func (t RecordType) String() string {
	return string(t)
}

// ParseRecordType parses a string into a RecordType
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid record type: %s", s)
	}
	return t, nil
}

// Trigger represents what caused an event to be captured
type Trigger string

const (
	TriggerTimer      Trigger = "timer"
	TriggerMouseClick Trigger = "mouse_click"
	TriggerAppSwitch  Trigger = "app_switch"
)

// IsValid checks if the trigger is valid
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerTimer, TriggerMouseClick, TriggerAppSwitch:
		return true
	default:
		return false
	}
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
