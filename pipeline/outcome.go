package pipeline

import (
	"fmt"
	"time"

	"github.com/meditatva/rxocr/ocr"
)

// Outcome tags the result of one recognition attempt.
type Outcome int

const (
	// OutcomeText: the model ran and found visible text.
	OutcomeText Outcome = iota + 1
	// OutcomeEmpty: the model ran and found nothing.
	OutcomeEmpty
	// OutcomeFailed: the model could not be loaded or recognition errored.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeText:
		return "text"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Attempt records one pass of the recognizer with a single model.
type Attempt struct {
	Model   string
	Outcome Outcome
	Text    string
	Err     error
	Elapsed time.Duration
}

// Report describes how a recognition request was served.
type Report struct {
	// Text is the recognized text, possibly empty.
	Text string
	// Model produced Text. Empty when the result came from the cache.
	Model string
	// Cached is set when no preprocessing or recognition ran.
	Cached bool
	// Attempts lists the recognizer passes in order.
	Attempts []Attempt
}

// Primary returns the first attempt, if any ran.
func (r Report) Primary() (Attempt, bool) {
	if len(r.Attempts) == 0 {
		return Attempt{}, false
	}
	return r.Attempts[0], true
}

// PrimaryModelUnavailable reports whether the primary model could not be
// loaded, as opposed to running and finding nothing.
func (r Report) PrimaryModelUnavailable() bool {
	a, ok := r.Primary()
	return ok && a.Outcome == OutcomeFailed && ocr.IsModelLoad(a.Err)
}

// UsedFallback reports whether the fallback model was consulted.
func (r Report) UsedFallback() bool { return len(r.Attempts) > 1 }
