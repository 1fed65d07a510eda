package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Progress is the centralized verbose system. It is safe for concurrent use
// by the scanner's analysis workers.
type Progress struct {
	enabled     bool
	handler     Handler
	withTimings bool
	mu          sync.Mutex
	dirTimings  map[string]time.Time
}

// New creates a new progress reporter
func New(enabled bool, handler Handler) *Progress {
	if handler == nil {
		handler = NewSimpleHandler(os.Stderr)
	}
	return &Progress{
		enabled:    enabled,
		handler:    handler,
		dirTimings: make(map[string]time.Time),
	}
}

// EnableTimings enables per-directory timing information
func (p *Progress) EnableTimings() {
	p.withTimings = true
}

// Enabled reports whether events reach the handler
func (p *Progress) Enabled() bool {
	return p != nil && p.enabled
}

// Report sends an event to the handler (only if enabled)
func (p *Progress) Report(event Event) {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler.Handle(event)
}

func (p *Progress) ScanStart(path string, excludePatterns []string) {
	p.Report(Event{
		Type: EventScanStart,
		Path: path,
		Info: strings.Join(excludePatterns, ", "),
	})
}

func (p *Progress) ScanComplete(files, dirs int, duration time.Duration) {
	p.Report(Event{
		Type:      EventScanComplete,
		FileCount: files,
		DirCount:  dirs,
		Duration:  duration,
	})
}

func (p *Progress) EnterDirectory(path string) {
	if p.Enabled() && p.withTimings {
		p.mu.Lock()
		p.dirTimings[path] = time.Now()
		p.mu.Unlock()
	}
	p.Report(Event{
		Type: EventEnterDirectory,
		Path: path,
	})
}

func (p *Progress) LeaveDirectory(path string) {
	var duration time.Duration
	if p.Enabled() && p.withTimings {
		p.mu.Lock()
		if startTime, ok := p.dirTimings[path]; ok {
			duration = time.Since(startTime)
			delete(p.dirTimings, path)
		}
		p.mu.Unlock()
	}
	p.Report(Event{
		Type:     EventLeaveDirectory,
		Path:     path,
		Duration: duration,
	})
}

func (p *Progress) FileDiscovered(path, reason string) {
	p.Report(Event{
		Type:   EventFileDiscovered,
		Path:   path,
		Reason: reason,
	})
}

func (p *Progress) FileAnalyzed(path string, lines, warnings int, duration time.Duration) {
	p.Report(Event{
		Type:      EventFileAnalyzed,
		Path:      path,
		LineCount: lines,
		Warnings:  warnings,
		Duration:  duration,
	})
}

func (p *Progress) FileFailed(path string, err error) {
	p.Report(Event{
		Type:   EventFileFailed,
		Path:   path,
		Reason: err.Error(),
	})
}

func (p *Progress) Skipped(path, reason string) {
	p.Report(Event{
		Type:   EventSkipped,
		Path:   path,
		Reason: reason,
	})
}

func (p *Progress) FileWriting(path string) {
	p.Report(Event{
		Type: EventFileWriting,
		Path: path,
	})
}

func (p *Progress) FileWritten(path string) {
	p.Report(Event{
		Type: EventFileWritten,
		Path: path,
	})
}

func (p *Progress) Info(message string) {
	p.Report(Event{
		Type: EventInfo,
		Info: message,
	})
}

func (p *Progress) GitIgnoreEnter(path string) {
	p.Report(Event{
		Type: EventGitIgnoreEnter,
		Path: path,
		Info: fmt.Sprintf("GitIgnore context: %s (patterns active)", path),
	})
}

func (p *Progress) GitIgnoreLeave(path string) {
	p.Report(Event{
		Type: EventGitIgnoreLeave,
		Path: path,
		Info: fmt.Sprintf("GitIgnore context: %s (patterns removed)", path),
	})
}

// NullHandler discards all events
type NullHandler struct{}

func NewNullHandler() *NullHandler {
	return &NullHandler{}
}

func (h *NullHandler) Handle(event Event) {}
