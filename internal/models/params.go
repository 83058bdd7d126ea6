package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxDaysAnonymous is the longest forecast Surfline serves without an access token
	MaxDaysAnonymous = 6
	// MaxDaysWithToken is the longest forecast served to subscribers
	MaxDaysWithToken = 17
)

var validate = validator.New()

// FetchParams are the per-request options sent with every category fetch
type FetchParams struct {
	Days          int    `json:"days" validate:"min=1,max=17"`
	IntervalHours int    `json:"intervalHours" validate:"min=1"`
	MaxHeights    bool   `json:"maxHeights"`
	SDS           bool   `json:"sds"`
	AccessToken   string `json:"-"`
}

// DefaultFetchParams matches what the surfline.com forecast pages request
func DefaultFetchParams() FetchParams {
	return FetchParams{
		Days:          3,
		IntervalHours: 1,
		MaxHeights:    true,
		SDS:           true,
	}
}

// InvalidParamsError is returned when fetch parameters are out of range
type InvalidParamsError struct {
	Message string
}

func (e *InvalidParamsError) Error() string {
	return e.Message
}

func NewInvalidParamsError(message string) *InvalidParamsError {
	return &InvalidParamsError{
		Message: message,
	}
}

func (p FetchParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid fetch parameters: %v", err))
	}
	if p.AccessToken == "" && p.Days > MaxDaysAnonymous {
		return NewInvalidParamsError(fmt.Sprintf("days must be between 1 and %d without an access token", MaxDaysAnonymous))
	}
	return nil
}
