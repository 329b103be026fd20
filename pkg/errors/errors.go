package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrLocked        ErrorCode = "LOCKED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Formula descriptor errors
	ErrFormulaInvalid ErrorCode = "FORMULA_INVALID"
	ErrFormulaParse   ErrorCode = "FORMULA_PARSE"

	// Install errors
	ErrMissingDependency ErrorCode = "MISSING_DEPENDENCY"
	ErrCyclicDependency  ErrorCode = "CYCLIC_DEPENDENCY"
	ErrIntegrityMismatch ErrorCode = "INTEGRITY_MISMATCH"
	ErrFetchFailed       ErrorCode = "FETCH_FAILED"
	ErrInstallFailed     ErrorCode = "INSTALL_FAILED"
	ErrTestFailed        ErrorCode = "TEST_FAILED"
	ErrNotInstalled      ErrorCode = "NOT_INSTALLED"

	// State errors
	ErrStateRead  ErrorCode = "STATE_READ"
	ErrStateWrite ErrorCode = "STATE_WRITE"
)

// FormulaError represents a structured error with code, details and the
// chain of formula names that led to it.
type FormulaError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error

	// Chain lists formula names outermost first. The last entry is the
	// formula whose own step failed.
	Chain []string
}

// Error implements the error interface
func (e *FormulaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", e.Code)
	if len(e.Chain) > 1 {
		fmt.Fprintf(&b, "%s: ", strings.Join(e.Chain, " -> "))
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}
	return b.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *FormulaError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *FormulaError) Is(target error) bool {
	var targetErr *FormulaError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new FormulaError with the given code and message
func New(code ErrorCode, message string) *FormulaError {
	return &FormulaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new FormulaError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *FormulaError {
	return &FormulaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a FormulaError
func Wrap(err error, code ErrorCode, message string) *FormulaError {
	if err == nil {
		return nil
	}
	return &FormulaError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *FormulaError {
	if err == nil {
		return nil
	}
	return &FormulaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *FormulaError) WithDetail(key string, value interface{}) *FormulaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *FormulaError) WithDetails(details map[string]interface{}) *FormulaError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithFormula starts the chain at the formula whose step failed.
func (e *FormulaError) WithFormula(name string) *FormulaError {
	e.Chain = []string{name}
	return e
}

// WithinDependency prepends name to the chain of err. Errors that are not
// FormulaErrors are wrapped as internal errors first so the chain survives.
func WithinDependency(err error, name string) error {
	if err == nil {
		return nil
	}
	var fe *FormulaError
	if !errors.As(err, &fe) {
		fe = Wrap(err, ErrInternal, "unexpected failure")
	}
	fe.Chain = append([]string{name}, fe.Chain...)
	return fe
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a FormulaError
func GetErrorCode(err error) ErrorCode {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a FormulaError
func GetErrorDetails(err error) map[string]interface{} {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe.Details
	}
	return nil
}

// GetChain returns the formula chain carried by err, or nil.
func GetChain(err error) []string {
	var fe *FormulaError
	if errors.As(err, &fe) {
		return fe.Chain
	}
	return nil
}

// Deepest returns the name of the formula whose own step failed, or "" when
// err carries no chain.
func Deepest(err error) string {
	chain := GetChain(err)
	if len(chain) == 0 {
		return ""
	}
	return chain[len(chain)-1]
}

// Process exit codes, distinct per failure kind.
const (
	ExitOK                = 0
	ExitUnknown           = 1
	ExitInvalid           = 2
	ExitMissingDependency = 3
	ExitCyclicDependency  = 4
	ExitIntegrityMismatch = 5
	ExitInstallFailed     = 6
	ExitTestFailed        = 7
	ExitFetchFailed       = 8
	ExitLocked            = 9
)

// ExitCode maps err to the process exit status the CLI reports.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetErrorCode(err) {
	case ErrMissingDependency:
		return ExitMissingDependency
	case ErrCyclicDependency:
		return ExitCyclicDependency
	case ErrIntegrityMismatch:
		return ExitIntegrityMismatch
	case ErrInstallFailed:
		return ExitInstallFailed
	case ErrTestFailed:
		return ExitTestFailed
	case ErrFetchFailed:
		return ExitFetchFailed
	case ErrLocked:
		return ExitLocked
	case ErrInvalidInput, ErrNotFound, ErrNotInstalled, ErrAlreadyExists,
		ErrConfigLoad, ErrConfigParse, ErrFormulaInvalid, ErrFormulaParse:
		return ExitInvalid
	default:
		return ExitUnknown
	}
}
