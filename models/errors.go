package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeCanceled     = "WALK_CANCELED"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeActionFailed = "ACTION_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Walk-specific codes.
	ErrCodeEnumeration = "ENUMERATION_FAILED"
	ErrCodeExtraction  = "EXTRACTION_FAILED"
	ErrCodeDataset     = "DATASET_WRITE_FAILED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WalkError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type WalkError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *WalkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}

// NewWalkError creates a new WalkError.
func NewWalkError(code, message string, err error) *WalkError {
	return &WalkError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *WalkError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
