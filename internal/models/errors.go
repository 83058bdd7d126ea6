package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when no spot produced any forecast rows
var ErrNoData = errors.New("no data was returned")

// ProjectionError is returned when the simplified view needs columns the
// fetched categories do not supply
type ProjectionError struct {
	Missing []string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("simplified report requires missing columns: %s", strings.Join(e.Missing, ", "))
}

func NewProjectionError(missing []string) *ProjectionError {
	return &ProjectionError{
		Missing: missing,
	}
}
