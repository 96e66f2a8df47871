package ui

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// ProgressReporter reports progress while the test client waits on the relay.
type ProgressReporter interface {
	Update(message string)
	Stop()
}

// SpinnerProgress implements ProgressReporter using briandowns/spinner
type SpinnerProgress struct {
	spinner *spinner.Spinner
}

// NewSpinnerProgress creates a spinner writing to w, usually stderr so that
// stdout stays clean for the response.
func NewSpinnerProgress(w io.Writer) *SpinnerProgress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Prefix = "  "
	_ = s.Color("cyan", "bold")

	return &SpinnerProgress{
		spinner: s,
	}
}

// Start starts the spinner with an initial message
func (sp *SpinnerProgress) Start(message string) {
	sp.spinner.Suffix = "  " + message
	sp.spinner.Start()
}

func (sp *SpinnerProgress) Update(message string) {
	sp.spinner.Lock()
	sp.spinner.Suffix = "  " + message
	sp.spinner.Unlock()
}

func (sp *SpinnerProgress) Stop() {
	if sp.spinner.Active() {
		sp.spinner.Stop()
	}
}
