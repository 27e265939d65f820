// Package errors provides the flat error taxonomy shared by every layer of
// the realtime voice-chat pipeline: repository, AI gateway, user management,
// audio duplex, and the agent that wires them together. Each layer logs at
// its own boundary and wraps whatever failed into one of these codes; the
// session loop and REST handlers map the code to a wire-level response
// without needing to know what produced it.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is the closed set of failure kinds the pipeline can produce.
type ErrorCode string

const (
	// ErrAlreadyHandshaken: a chatmate already exists for this (user, language) pair.
	ErrAlreadyHandshaken ErrorCode = "ALREADY_HANDSHAKEN"
	// ErrRepo: the repository failed to read or write persisted state.
	ErrRepo ErrorCode = "REPO_ERROR"
	// ErrDuplex: the audio channel failed or closed; ends the session silently.
	ErrDuplex ErrorCode = "DUPLEX_ERROR"
	// ErrAgent: the agent pipeline failed for a reason not covered by a more specific code.
	ErrAgent ErrorCode = "AI_AGENT_FAILURE"
	// ErrProvider: transcription, generation, or synthesis failed against the hosted provider.
	ErrProvider ErrorCode = "PROVIDER_ERROR"
	// ErrNoCredit: the user has no remaining credit.
	ErrNoCredit ErrorCode = "NO_CREDIT"
	// ErrUnauthorized: the caller is not the owner of the requested chatmate, or the token didn't verify.
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrNotFound: a referenced chatmate or resource doesn't exist.
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrValidation: malformed request, bad audio, unsupported language.
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	// ErrEmptyPrompt: transcription produced an empty transcript.
	ErrEmptyPrompt ErrorCode = "EMPTY_PROMPT"
	// ErrUnknown: catch-all for anything that doesn't fit the above (e.g. infra failure during auth).
	ErrUnknown ErrorCode = "UNKNOWN"
)

// StatusCodes maps each code to the HTTP status the REST surface returns.
// The WebSocket surface maps independently (see the session loop's
// replyForError) since
// most of these end a call with a typed wire message rather than a status.
var StatusCodes = map[ErrorCode]int{
	ErrAlreadyHandshaken: http.StatusBadRequest,
	ErrRepo:              http.StatusInternalServerError,
	ErrDuplex:            http.StatusInternalServerError,
	ErrAgent:             http.StatusInternalServerError,
	ErrProvider:          http.StatusInternalServerError,
	ErrNoCredit:          http.StatusPaymentRequired,
	ErrUnauthorized:      http.StatusUnauthorized,
	ErrNotFound:          http.StatusNotFound,
	ErrValidation:        http.StatusBadRequest,
	ErrEmptyPrompt:       http.StatusBadRequest,
	ErrUnknown:           http.StatusInternalServerError,
}

// AppError is the structured error carried across every component boundary.
type AppError struct {
	Code      ErrorCode   `json:"error"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status for this error, defaulting to 500.
func (e *AppError) StatusCode() int {
	if code, ok := StatusCodes[e.Code]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: time.Now()}
}

func NewWithDetails(code ErrorCode, message string, details interface{}) *AppError {
	return &AppError{Code: code, Message: message, Details: details, Timestamp: time.Now()}
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// Wrap converts any error into an AppError, preserving one that already is.
func Wrap(err error, code ErrorCode) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(code, err.Error())
}

func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// Code returns the code of err if it's an AppError, else ErrUnknown.
func Code(err error) ErrorCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return ErrUnknown
}
