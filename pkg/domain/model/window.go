package model

// Rect is a screen-coordinate bounding box
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// WindowInfo describes the foreground window as reported by the inspector.
// A degraded reading carries types.AppUnknown sentinels and a nil Bounds.
type WindowInfo struct {
	Title       string
	ProcessName string
	AppName     string
	PID         int
	Bounds      *Rect
}

// Click is a single mouse click observation queued for capture
type Click struct {
	X      int
	Y      int
	Button string
}
