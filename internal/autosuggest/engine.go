package autosuggest

import (
	"errors"
	"sync"

	"pd-meter/internal/capture"

	"github.com/sirupsen/logrus"
)

// User-facing status messages. Detection failures always degrade to manual
// placement, never to a hard error.
const (
	msgSuccess = "Markers placed automatically - fine-tune them by dragging"
	msgNoFace  = "No face detected - position the markers manually"
	msgError   = "Auto-detection unavailable - position the markers manually"
	msgLoading = "Looking for your eyes..."
)

// Engine owns the detector handle and runs detection attempts. The detector
// is constructed lazily on first use; concurrent first callers share a single
// pending initialization. Runs are sequence-numbered so a slow early run can
// never overwrite the result of a later one.
type Engine struct {
	mu         sync.Mutex
	factory    func() (Detector, error)
	detector   Detector
	pending    chan struct{}
	status     Status
	generation uint64

	onResult func(Result)
	log      *logrus.Entry
}

// NewEngine creates an engine. factory constructs the detector on first use;
// onResult is invoked for every status transition, including loading.
func NewEngine(factory func() (Detector, error), onResult func(Result)) *Engine {
	return &Engine{
		factory:  factory,
		status:   StatusIdle,
		onResult: onResult,
		log:      logrus.WithField("component", "autosuggest"),
	}
}

// Status returns the current detection status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// TriggerOnce starts a detection run only when the status is still idle.
// This guards the annotate-entry trigger against re-firing on marker edits.
func (e *Engine) TriggerOnce(photo *capture.Photo) bool {
	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		return false
	}
	gen := e.beginRunLocked()
	e.mu.Unlock()

	e.emit(Result{Status: StatusLoading, Message: msgLoading})
	go e.run(photo, gen)
	return true
}

// Rerun starts a detection run regardless of the current status. If an
// earlier run is still in flight its result will be discarded as stale.
func (e *Engine) Rerun(photo *capture.Photo) {
	e.mu.Lock()
	gen := e.beginRunLocked()
	e.mu.Unlock()

	e.emit(Result{Status: StatusLoading, Message: msgLoading})
	go e.run(photo, gen)
}

// Reset returns the engine to idle, invalidating any in-flight run. Called on
// retake/new capture.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.generation++
	e.status = StatusIdle
	e.mu.Unlock()
}

// Close releases the detector if it holds native resources.
func (e *Engine) Close() {
	e.mu.Lock()
	d := e.detector
	e.detector = nil
	e.mu.Unlock()

	if closer, ok := d.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (e *Engine) beginRunLocked() uint64 {
	e.generation++
	e.status = StatusLoading
	return e.generation
}

func (e *Engine) run(photo *capture.Photo, gen uint64) {
	result := e.detect(photo)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		e.log.WithField("generation", gen).Debug("discarding stale detection result")
		return
	}
	e.status = result.Status
	e.mu.Unlock()

	e.emit(result)
}

func (e *Engine) detect(photo *capture.Photo) Result {
	detector, err := e.ensureDetector()
	if err != nil {
		e.log.WithError(err).Warn("detector initialization failed")
		return Result{Status: StatusError, Message: msgError}
	}

	suggestions, err := detector.Detect(photo)
	switch {
	case errors.Is(err, ErrNoFace):
		return Result{Status: StatusNoFace, Message: msgNoFace}
	case err != nil:
		e.log.WithError(err).Warn("detection failed")
		return Result{Status: StatusError, Message: msgError}
	default:
		return Result{Status: StatusSuccess, Suggestions: suggestions, Message: msgSuccess}
	}
}

// ensureDetector lazily constructs the detector. The first caller builds it;
// concurrent callers block on the same pending initialization instead of
// constructing duplicates. A failed initialization is retried on the next run.
func (e *Engine) ensureDetector() (Detector, error) {
	for {
		e.mu.Lock()
		if e.detector != nil {
			d := e.detector
			e.mu.Unlock()
			return d, nil
		}
		if e.pending == nil {
			done := make(chan struct{})
			e.pending = done
			e.mu.Unlock()

			d, err := e.factory()

			e.mu.Lock()
			if err == nil {
				e.detector = d
			}
			e.pending = nil
			e.mu.Unlock()
			close(done)
			return d, err
		}
		wait := e.pending
		e.mu.Unlock()
		<-wait
	}
}

func (e *Engine) emit(r Result) {
	if e.onResult != nil {
		e.onResult(r)
	}
}
