// Package stream implements windowing over the store:
// a bounded queue of (Triple, timestamp) events sitting in front of a
// reasoner, inserting/removing triples around the caller's query as
// events slide in and out of the window. Window parameters are opaque
// to the reasoner itself — it only ever sees InsertTriple/RemoveTriple
// calls.
package stream

import (
	"time"

	"github.com/wbrown/reasongraph/kg"
)

// TickMode selects what advances a Window: wall-clock time, a fixed
// tuple count, or an explicit caller-driven batch boundary.
type TickMode int

const (
	TickTime TickMode = iota
	TickTuple
	TickBatch
)

// ReportStrategy selects when a Window emits a Report.
type ReportStrategy int

const (
	ReportOnWindowClose ReportStrategy = iota
	ReportOnContentChange
	ReportNonEmptyContent
	ReportPeriodic
)

// Event is one (triple, timestamp) arrival into a Window.
type Event struct {
	Triple    kg.Triple
	Timestamp time.Time
}

// Reasoner is the subset of reasoner.Reasoner a Window needs; kept as an
// interface so this package never imports kg/reasoner directly; the
// window composes over the store, it is not a core dependency.
type Reasoner interface {
	InsertTriple(t kg.Triple) bool
	RemoveTriple(t kg.Triple) bool
}

// QueryFunc runs the caller's query against the reasoner's current state
// and returns the rows to report. What "query" means is opaque to Window
// — it's whatever closure the caller supplied.
type QueryFunc func() []kg.Binding

// Config holds a Window's opaque parameters.
type Config struct {
	Width          time.Duration
	Slide          time.Duration
	Tick           TickMode
	TupleCount     int // used when Tick == TickTuple
	ReportStrategy ReportStrategy
	PeriodMS       int // used when ReportStrategy == ReportPeriodic
}

// Report is what a Window hands the caller when it decides to report.
type Report struct {
	WindowID  string
	Timestamp time.Time
	Rows      []kg.Binding
	Reason    ReportStrategy
}

// Window buffers events, applies them to a Reasoner as they enter and
// leave, and calls Query to decide what to report.
type Window struct {
	ID       string
	cfg      Config
	reasoner Reasoner
	query    QueryFunc

	events       []Event
	lastReportAt time.Time
	lastRowCount int
	periodTick   int
}

// NewWindow creates a Window with id over reasoner, reporting according
// to cfg and querying via query.
func NewWindow(id string, cfg Config, reasoner Reasoner, query QueryFunc) *Window {
	return &Window{ID: id, cfg: cfg, reasoner: reasoner, query: query}
}

// Add applies e to the reasoner, evicts events that have fallen out of
// the window, and returns a Report if the configured strategy says to
// emit one now.
func (w *Window) Add(e Event) *Report {
	w.reasoner.InsertTriple(e.Triple)
	w.events = append(w.events, e)
	w.evict(e.Timestamp)

	if w.shouldReport(e.Timestamp) {
		return w.emit(e.Timestamp)
	}
	return nil
}

// evict removes events older than now minus Width, retracting them from
// the reasoner as they leave the window.
func (w *Window) evict(now time.Time) {
	if w.cfg.Width <= 0 {
		return
	}
	cutoff := now.Add(-w.cfg.Width)
	kept := w.events[:0]
	for _, e := range w.events {
		if e.Timestamp.Before(cutoff) {
			w.reasoner.RemoveTriple(e.Triple)
			continue
		}
		kept = append(kept, e)
	}
	w.events = kept
}

func (w *Window) shouldReport(now time.Time) bool {
	switch w.cfg.ReportStrategy {
	case ReportOnWindowClose:
		return w.windowClosed(now)
	case ReportNonEmptyContent:
		return len(w.events) > 0
	case ReportPeriodic:
		w.periodTick++
		period := w.cfg.PeriodMS
		if period <= 0 {
			period = 1
		}
		return int(now.Sub(w.lastReportAt).Milliseconds()) >= period
	case ReportOnContentChange:
		return len(w.events) != w.lastRowCount
	default:
		return false
	}
}

func (w *Window) windowClosed(now time.Time) bool {
	switch w.cfg.Tick {
	case TickTuple:
		return w.cfg.TupleCount > 0 && len(w.events)%w.cfg.TupleCount == 0
	case TickTime:
		return w.cfg.Slide > 0 && now.Sub(w.lastReportAt) >= w.cfg.Slide
	default:
		return false
	}
}

func (w *Window) emit(now time.Time) *Report {
	rows := w.query()
	w.lastReportAt = now
	w.lastRowCount = len(w.events)
	return &Report{
		WindowID:  w.ID,
		Timestamp: now,
		Rows:      rows,
		Reason:    w.cfg.ReportStrategy,
	}
}

// Tick advances a ReportPeriodic or batch-driven Window without a new
// event, for callers ticking it on an external clock or explicit batch
// boundary rather than per-triple.
func (w *Window) Tick(now time.Time) *Report {
	w.evict(now)
	if w.cfg.Tick == TickBatch && w.cfg.ReportStrategy == ReportOnWindowClose {
		// A Tick is the batch boundary, so it closes a batch-driven window.
		return w.emit(now)
	}
	if w.shouldReport(now) {
		return w.emit(now)
	}
	return nil
}
