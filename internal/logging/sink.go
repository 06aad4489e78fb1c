package logging

import "github.com/hashicorp/go-hclog"

// Sink is a plugin-scoped logger. It embeds hclog.Logger so ordinary
// Info/Warn/Error/Debug calls pass straight through, and adds the two
// lifecycle-flavored calls the original plugin log used throughout its
// load and shutdown paths.
type Sink struct {
	hclog.Logger
	file *rotateFile
}

// Boot logs a load-pipeline milestone.
func (s *Sink) Boot(msg string, args ...interface{}) {
	s.Info(msg, args...)
}

// Shutdown logs a teardown milestone.
func (s *Sink) Shutdown(msg string, args ...interface{}) {
	s.Warn(msg, args...)
}

// Tail returns up to the last n lines this plugin has logged.
func (s *Sink) Tail(n int) ([]string, error) {
	return s.file.Tail(n)
}

// Close releases the underlying log file.
func (s *Sink) Close() error {
	return s.file.Close()
}
