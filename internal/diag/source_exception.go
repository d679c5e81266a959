package diag

// SourceException is the exported error type for a failure with a known
// source location: one diagnostic, carried as a Go error so the CLI and
// shell can catch, format, and continue (or exit).
type SourceException struct {
	Diag Diagnostic
}

func (e *SourceException) Error() string { return e.Diag.Message }

// AsSourceException wraps d.
func AsSourceException(d Diagnostic) *SourceException {
	return &SourceException{Diag: d}
}
