package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidInput indicates a malformed request or argument
	InvalidInput ErrorCode = "INVALID_INPUT"
	// NoSourceFiles indicates a scan found nothing to analyze
	NoSourceFiles ErrorCode = "NO_SOURCE_FILES"
	// ScanNotFound indicates the requested scan id is unknown
	ScanNotFound ErrorCode = "SCAN_NOT_FOUND"
	// UploadTooLarge indicates an archive exceeded the upload limit
	UploadTooLarge ErrorCode = "UPLOAD_TOO_LARGE"
	// UnsupportedArchive indicates the upload is not a zip or tarball
	UnsupportedArchive ErrorCode = "UNSUPPORTED_ARCHIVE"
	// CloneFailed indicates a git URL could not be cloned
	CloneFailed ErrorCode = "CLONE_FAILED"
	// LLMUnavailable indicates no model client is configured
	LLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// LLMFailed indicates the model call returned an error
	LLMFailed ErrorCode = "LLM_FAILED"
	// Unauthorized indicates a missing or invalid API token
	Unauthorized ErrorCode = "UNAUTHORIZED"
	// Timeout indicates an operation ran out of time
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// SetConfig suggests changing a configuration value
	SetConfig FixActionType = "set-config"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Key         string        `json:"key,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// RepovizError represents an error with a stable code, message and suggestions
type RepovizError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a RepovizError with the default suggested fixes for its code
func New(code ErrorCode, message string, cause error) *RepovizError {
	return &RepovizError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *RepovizError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *RepovizError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RepovizError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RepovizError) WithDetails(details interface{}) *RepovizError {
	e.Details = details
	return e
}

// Is matches any RepovizError carrying the same code.
func (e *RepovizError) Is(target error) bool {
	t, ok := target.(*RepovizError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first RepovizError in err's chain,
// or InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var re *RepovizError
	if stderrors.As(err, &re) {
		return re.Code
	}
	return InternalError
}

// HasCode reports whether err's chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var re *RepovizError
	if stderrors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	NoSourceFiles: {
		{
			Type:        SetConfig,
			Key:         "scan.ignore",
			Description: "Check that ignore globs do not exclude every source file",
		},
	},
	ScanNotFound: {
		{
			Type:        RunCommand,
			Command:     "repoviz scans list",
			Safe:        true,
			Description: "List stored scans",
		},
	},
	UploadTooLarge: {
		{
			Type:        SetConfig,
			Key:         "server.maxUploadBytes",
			Description: "Raise the upload limit or upload a smaller archive",
		},
	},
	LLMUnavailable: {
		{
			Type:        SetConfig,
			Key:         "llm.apiKey",
			Description: "Set llm.apiKey or the GEMINI_API_KEY environment variable",
		},
	},
	Unauthorized: {
		{
			Type:        RunCommand,
			Command:     "repoviz token create",
			Safe:        true,
			Description: "Create an API token and send it as a Bearer header",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
