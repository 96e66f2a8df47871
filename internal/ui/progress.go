package ui

// NoOpProgressReporter is used when output must stay machine readable.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) Update(message string) {}
func (n *NoOpProgressReporter) Stop()                 {}

var (
	_ ProgressReporter = (*NoOpProgressReporter)(nil)
	_ ProgressReporter = (*SpinnerProgress)(nil)
)
