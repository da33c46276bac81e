package serialize

import "fmt"

// LoadError reports a document that could not be turned into an object:
// missing data, malformed YAML, or a schema tag with no registered
// constructor.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("serialize: load failed: %s", e.Reason)
}
