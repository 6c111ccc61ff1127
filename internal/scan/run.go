package scan

import (
	"context"
	"sync"
	"time"

	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/score"
)

// Progress is one probe lifecycle notification delivered to the
// progress callback.
type Progress struct {
	// Probe is the probe name the event concerns.
	Probe string

	// Status is the probe's new lifecycle state.
	Status model.ProbeStatus

	// Completed and Total count probes in terminal states against the
	// run's probe count.
	Completed int
	Total     int

	// Score is the current composite score, recomputed after every
	// successful probe. Nil until the first result lands.
	Score *model.PrivacyScore
}

// ProgressFunc receives lifecycle notifications during a run. Called
// synchronously under the run's lock; implementations must not call
// back into the run.
type ProgressFunc func(Progress)

// Run is the transient aggregate binding one scan invocation: the
// report under construction, probe lifecycle records, and the
// incrementally recomputed score. Created at scan start, discarded at
// completion.
type Run struct {
	mu        sync.Mutex
	report    *model.PrivacyReport
	scoreOpts score.Options
	progress  ProgressFunc
	total     int
	completed int
}

func newRun(report *model.PrivacyReport, opts score.Options, progress ProgressFunc, total int) *Run {
	return &Run{
		report:    report,
		scoreOpts: opts,
		progress:  progress,
		total:     total,
	}
}

// start marks the probe running.
func (r *Run) start(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Probes[name] = model.ProbeRecord{
		Status:    model.ProbeRunning,
		StartedAt: time.Now(),
	}
	r.notify(name, model.ProbeRunning)
}

// finish moves the probe to a terminal state. When the probe succeeded,
// apply mutates the report with its result and the score is recomputed
// from whatever results exist so far (last write wins). Results arriving
// after cancellation are discarded: the probe is marked failed with the
// context error and apply never runs.
func (r *Run) finish(ctx context.Context, name string, apply func(*model.PrivacyReport), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record := r.report.Probes[name]
	record.Duration = time.Since(record.StartedAt)

	if ctxErr := ctx.Err(); ctxErr != nil {
		record.Status = model.ProbeFailed
		record.Error = ctxErr.Error()
		r.report.Probes[name] = record
		r.completed++
		r.notify(name, model.ProbeFailed)
		return
	}

	if err != nil {
		record.Status = model.ProbeFailed
		record.Error = err.Error()
	} else {
		record.Status = model.ProbePassed
		if apply != nil {
			apply(r.report)
		}
		r.recomputeLocked()
	}
	r.report.Probes[name] = record
	r.completed++
	r.notify(name, record.Status)
}

// recomputeLocked rebuilds the composite score from the report's
// current results. Callers must hold r.mu.
func (r *Run) recomputeLocked() {
	s := score.Score(score.Inputs{
		Canvas: r.report.Canvas,
		WebGL:  r.report.WebGL,
		Audio:  r.report.Audio,
		Fonts:  r.report.Fonts,
		IP:     r.report.IP,
		DNS:    r.report.DNS,
		WebRTC: r.report.WebRTC,
	}, r.scoreOpts)
	r.report.Score = &s
}

func (r *Run) notify(name string, status model.ProbeStatus) {
	if r.progress == nil {
		return
	}
	r.progress(Progress{
		Probe:     name,
		Status:    status,
		Completed: r.completed,
		Total:     r.total,
		Score:     r.report.Score,
	})
}

// snapshotIP returns the IP probe result recorded so far. Used by the
// DNS probe, which needs the claimed address and country as anchors.
func (r *Run) snapshotIP() *model.IPLeakResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.IP
}
