package surfline

import "fmt"

// APIError represents a failed Surfline forecast request
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("Surfline API error: %s: %v", msg, e.Err)
	}
	return fmt.Sprintf("Surfline API error: %s", msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new Surfline API error
func NewAPIError(message string, err error) *APIError {
	return &APIError{
		Message: message,
		Err:     err,
	}
}
