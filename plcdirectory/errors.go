package plcdirectory

import "fmt"

// Error is the DirectoryError from §7: any 4xx/5xx response from the
// directory, or a transport-level failure (timeout, DNS, malformed
// JSON response). Message is drawn from the response's "error" field,
// then "message", then the raw body — in that order of preference.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("plcdirectory: transport error: %s", e.Message)
	}
	return fmt.Sprintf("plcdirectory: directory returned %d: %s", e.Status, e.Message)
}

func transportError(action string, err error) *Error {
	return &Error{Message: fmt.Sprintf("%s: %v", action, err)}
}
