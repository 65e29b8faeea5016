package ir

// Version constants for the object-file format and this tool.
const (
	// FormatVersion is the object-file header format gocavy understands.
	FormatVersion = "1"

	// ToolVersion is the gocavy version recorded with stored runs.
	ToolVersion = "0.1.0"
)
