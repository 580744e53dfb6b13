package display

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress on stderr while a completion is in flight.
// When stderr is not a terminal every method is a no-op, so piped and
// scripted runs stay clean.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with the given message. It does not
// start spinning until Start is called.
func NewSpinner(message string) *Spinner {
	if !IsTerminal(os.Stderr) {
		return &Spinner{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return &Spinner{s: s}
}

// Start begins the spinner animation.
func (sp *Spinner) Start() {
	if sp.s != nil {
		sp.s.Start()
	}
}

// Stop halts the animation and clears the spinner line.
func (sp *Spinner) Stop() {
	if sp.s != nil {
		sp.s.Stop()
	}
}

// UpdateMessage swaps the message next to the spinner.
func (sp *Spinner) UpdateMessage(message string) {
	if sp.s != nil {
		sp.s.Suffix = " " + message
	}
}
