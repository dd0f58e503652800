package logging

// Exports for testing.

// Path returns the current log file, or "" when none is open.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}
