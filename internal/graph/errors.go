package graph

import (
	"errors"
	"fmt"
)

// Load error codes (G001-G099).
const (
	ErrCodeInvalidDoc    = "G001" // document failed struct validation or parsing
	ErrCodeDuplicateNode = "G002" // two nodes share a name
	ErrCodeUnknownArg    = "G003" // arg names no node
	ErrCodeForwardRef    = "G004" // arg names a later node
	ErrCodeUnknownOutput = "G005" // output names no node
	ErrCodeReadFailed    = "G006" // file could not be read
)

// LoadError describes a malformed graph document.
type LoadError struct {
	Code    string
	Node    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: node %q: %s", e.Code, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is a LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
