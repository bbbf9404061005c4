package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/retrace-dev/retrace/pkg/domain/interfaces"
	"github.com/retrace-dev/retrace/pkg/domain/model"
	"github.com/retrace-dev/retrace/pkg/domain/types"
	"github.com/retrace-dev/retrace/pkg/service/indexer"
	"github.com/retrace-dev/retrace/pkg/utils/logging"
	"github.com/retrace-dev/retrace/pkg/utils/safe"
)

const (
	defaultInterval      = 60 * time.Second
	defaultClickCooldown = 5 * time.Second
	defaultClickSettle   = time.Second
	defaultQueueSize     = 64

	// Windows smaller than this are likely tooltips or popups; fall back
	// to a full-screen grab so the capture still sees something useful.
	defaultMinRegionWidth  = 200
	defaultMinRegionHeight = 150

	// Pixels cropped from the top of browser windows to exclude tab bar
	// and address bar from OCR.
	defaultBrowserTopCrop = 80
)

// Config tunes the capture scheduler. Zero values take the defaults above.
type Config struct {
	Interval        time.Duration
	ClickCooldown   time.Duration
	ClickSettle     time.Duration
	QueueSize       int
	MinRegionWidth  int
	MinRegionHeight int
	BrowserTopCrop  int
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.ClickCooldown <= 0 {
		c.ClickCooldown = defaultClickCooldown
	}
	if c.ClickSettle <= 0 {
		c.ClickSettle = defaultClickSettle
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.MinRegionWidth <= 0 {
		c.MinRegionWidth = defaultMinRegionWidth
	}
	if c.MinRegionHeight <= 0 {
		c.MinRegionHeight = defaultMinRegionHeight
	}
	if c.BrowserTopCrop <= 0 {
		c.BrowserTopCrop = defaultBrowserTopCrop
	}
}

// Scheduler drives activity capture from two triggers: a fixed-interval
// timer and debounced mouse clicks. Clicks are enqueued without blocking
// the listener; a single worker drains the queue so screen grabs and OCR
// never run concurrently with each other.
type Scheduler struct {
	store     interfaces.EventStore
	indexer   *indexer.Indexer
	inspector interfaces.Inspector
	grabber   interfaces.Grabber
	extractor interfaces.TextExtractor
	cfg       Config

	now func() time.Time

	clickCh    chan model.Click
	stopCh     chan struct{}
	workerDone chan struct{}
	loopDone   chan struct{}

	mu        sync.Mutex
	started   bool
	stopped   bool
	lastApp   string
	lastClick time.Time
}

// New creates a capture scheduler
func New(store interfaces.EventStore, idx *indexer.Indexer, inspector interfaces.Inspector, grabber interfaces.Grabber, extractor interfaces.TextExtractor, cfg Config) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		store:      store,
		indexer:    idx,
		inspector:  inspector,
		grabber:    grabber,
		extractor:  extractor,
		cfg:        cfg,
		now:        time.Now,
		clickCh:    make(chan model.Click, cfg.QueueSize),
		stopCh:     make(chan struct{}),
		workerDone: make(chan struct{}),
		loopDone:   make(chan struct{}),
	}
}

// Start launches the timer loop and the click worker
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	logging.From(ctx).Info("capture scheduler starting",
		"interval", s.cfg.Interval.String(),
		"click_cooldown", s.cfg.ClickCooldown.String(),
	)

	go s.clickWorker(ctx)
	go s.timerLoop(ctx)
}

// Stop drains in-flight work and returns once both loops have exited.
// Clicks already queued are still processed; new ones are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	// Closing the queue is the worker's drain sentinel
	close(s.clickCh)
	<-s.loopDone
	<-s.workerDone
}

// EnqueueClick hands a mouse click to the worker. Never blocks: clicks
// inside the cool-down window or beyond queue capacity are dropped.
// The mutex stays held across the send so that a concurrent Stop cannot
// close the queue between the stopped-check and the send.
func (s *Scheduler) EnqueueClick(ctx context.Context, click model.Click) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	now := s.now()
	if !s.lastClick.IsZero() && now.Sub(s.lastClick) < s.cfg.ClickCooldown {
		return
	}
	s.lastClick = now

	select {
	case s.clickCh <- click:
	default:
		logging.From(ctx).Warn("click queue full, dropping click")
	}
}

func (s *Scheduler) timerLoop(ctx context.Context) {
	defer close(s.loopDone)

	// First observation happens immediately, not one interval in
	s.capture(ctx, types.TriggerTimer, nil)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.capture(ctx, types.TriggerTimer, nil)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) clickWorker(ctx context.Context) {
	defer close(s.workerDone)

	for click := range s.clickCh {
		// Let the UI finish rendering whatever the click caused
		select {
		case <-time.After(s.cfg.ClickSettle):
		case <-ctx.Done():
			return
		}
		s.capture(ctx, types.TriggerMouseClick, &click)
	}
}

// capture runs one observation: inspect the foreground window, emit an
// app_switch event if the application changed, then grab, OCR, and
// persist a content event.
func (s *Scheduler) capture(ctx context.Context, trigger types.Trigger, click *model.Click) {
	logger := logging.From(ctx)
	now := s.now()

	info := s.inspector.ActiveWindow(ctx)

	s.recordAppSwitch(ctx, now, info)

	shot := s.grabber.Capture(ctx, s.captureRegion(info))
	if shot == "" {
		logger.Warn("screenshot failed, skipping OCR")
	}

	var ocrText string
	if shot != "" {
		ocrText = s.extractor.ExtractText(ctx, shot)
	}

	url := s.inspector.ActiveURL(ctx, info)
	if url == "" {
		url = ExtractURL(ocrText)
	}

	// Timer samples with nothing readable on screen are noise. Click
	// samples are kept regardless: the interaction itself is the signal.
	if trigger == types.TriggerTimer && strings.TrimSpace(ocrText) == "" {
		logger.Debug("dropping empty timer capture", "app", info.AppName)
		safe.Remove(ctx, shot)
		return
	}

	ev := &model.ActivityEvent{
		Timestamp:      now,
		RecordType:     types.RecordScreenContent,
		TriggeredBy:    trigger,
		WindowTitle:    info.Title,
		ProcessName:    info.ProcessName,
		AppName:        info.AppName,
		URL:            url,
		PID:            info.PID,
		ScreenshotPath: shot,
		OCRText:        ocrText,
	}
	if click != nil {
		ev.RecordType = types.RecordMouseInteraction
		ev.MouseX = click.X
		ev.MouseY = click.Y
		ev.Button = click.Button
	}

	s.persist(ctx, ev)
}

// recordAppSwitch advances the last-seen app state machine. An Unknown
// reading never changes state; the first valid reading seeds it silently;
// later changes emit an app_switch event before the content event.
func (s *Scheduler) recordAppSwitch(ctx context.Context, now time.Time, info *model.WindowInfo) {
	if info.AppName == types.AppUnknown || info.AppName == "" {
		return
	}

	s.mu.Lock()
	prev := s.lastApp
	s.lastApp = info.AppName
	s.mu.Unlock()

	if prev == "" || prev == info.AppName {
		return
	}

	s.persist(ctx, model.NewAppSwitchEvent(now, prev, info.AppName, info.Title))
}

func (s *Scheduler) persist(ctx context.Context, ev *model.ActivityEvent) {
	logger := logging.From(ctx)

	id, err := s.store.Append(ctx, ev)
	if err != nil {
		logger.Error("failed to append event", "error", err, "record_type", string(ev.RecordType))
		return
	}
	ev.ID = id

	logger.Debug("event recorded",
		"id", id,
		"record_type", string(ev.RecordType),
		"app", ev.AppName,
	)

	// Incremental indexing is best effort; the batch reindex at query
	// time picks up anything missed here.
	if err := s.indexer.IndexOne(ctx, ev); err != nil {
		logger.Warn("incremental indexing failed", "error", err, "id", id)
	}
}

// captureRegion picks the grab region for a window. The active window's
// bounds win when they are plausibly a real window; browsers get a top
// crop to keep chrome out of the OCR input. Nil means full screen.
func (s *Scheduler) captureRegion(info *model.WindowInfo) *model.Rect {
	if info.Bounds == nil || info.Bounds.Empty() {
		return nil
	}
	r := *info.Bounds
	if r.Width < s.cfg.MinRegionWidth || r.Height < s.cfg.MinRegionHeight {
		return nil
	}
	if types.IsBrowser(info.AppName) && r.Height > s.cfg.BrowserTopCrop*2 {
		r.Y += s.cfg.BrowserTopCrop
		r.Height -= s.cfg.BrowserTopCrop
	}
	return &r
}
