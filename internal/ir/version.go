package ir

// Version constants for documents and the enumerator.
const (
	// DocVersion is the graph and spec document schema version.
	DocVersion = "1"

	// EnumeratorVersion is the collage enumerator version.
	EnumeratorVersion = "0.1.0"
)
