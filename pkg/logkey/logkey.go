package logkey

// Common keys for structured log attributes so every package logs them
// under the same name.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"
	OwnerID = "OwnerID"
)
