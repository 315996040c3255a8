package ir

const (
	// SchemaVersion is the version of the ElementSpec layout.
	SchemaVersion = "1"

	// Version is the capnego release version.
	Version = "0.1.0"
)
