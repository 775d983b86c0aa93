package errors

import (
	"fmt"
	"os"
	"strings"

	"kqlmd/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess       ExitCode = 0
	ExitCodeGeneral       ExitCode = 1
	ExitCodeConfig        ExitCode = 2
	ExitCodeEmptyInput    ExitCode = 3
	ExitCodeClipboard     ExitCode = 4
	ExitCodeFileOperation ExitCode = 5
	ExitCodeValidation    ExitCode = 6
	ExitCodeAPIAuth       ExitCode = 7
	ExitCodeAPIRequest    ExitCode = 8
	ExitCodeHistory       ExitCode = 9
	ExitCodeCancellation  ExitCode = 10
)

// Standardized error messages for consistent user-facing errors
const (
	ErrMsgClipboardRead   = "Failed to read clipboard"
	ErrMsgClipboardWrite  = "Failed to write to clipboard"
	ErrMsgConvertFailed   = "Conversion failed"
	ErrMsgHistoryFailed   = "History operation failed"
	ErrMsgServiceCreation = "Failed to initialize Azure DevOps service"
	ErrMsgInvalidInput    = "Invalid input provided"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func NewWithAll(code ExitCode, message string, err error, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

func WrapWithCode(err error, code ExitCode, message string) *Error {
	if err == nil {
		return nil
	}

	var errMsg string
	if wrapped, ok := err.(*Error); ok {
		errMsg = wrapped.Message
		if wrapped.Underlying != nil {
			errMsg += ": " + wrapped.Underlying.Error()
		}
	} else {
		errMsg = err.Error()
	}

	return &Error{
		Code:       code,
		Message:    message + ": " + errMsg,
		Underlying: err,
	}
}

func Is(err error, target error) bool {
	if err == nil || target == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		if t, ok := target.(*Error); ok {
			return e.Code == t.Code
		}
	}

	return err.Error() == target.Error()
}

func IsExitCode(err error, code ExitCode) bool {
	if err == nil {
		return false
	}

	if e, ok := err.(*Error); ok {
		return e.Code == code
	}

	return false
}

// HandleReturn processes an error, prints it to stderr, and returns the
// appropriate exit code. It does not call os.Exit - the caller is responsible
// for exiting the program.
func HandleReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
		message = e.Message
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Msg(e.Message)
		} else {
			logger.Error().Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(os.Stderr)
	red.Fprint(os.Stderr, "Error: ")
	fmt.Fprintln(os.Stderr, message)

	if suggestion != "" {
		yellow.Fprint(os.Stderr, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(os.Stderr, line)
			} else {
				if strings.HasPrefix(line, "  -") {
					cyan.Fprintln(os.Stderr, line)
				} else {
					fmt.Fprintln(os.Stderr, "           "+line)
				}
			}
		}
	}

	fmt.Fprintln(os.Stderr)

	return exitCode
}

// HandleQuietReturn processes an error quietly and returns the appropriate
// exit code. Useful for shell-completion paths where stderr noise would
// corrupt the completion output.
func HandleQuietReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral

	if e, ok := err.(*Error); ok {
		exitCode = e.Code
	} else {
		logger.Error().Err(err).Msg("operation failed")
	}

	return exitCode
}

// EmptyInputError means there was nothing to convert. By design the
// conversion writes no output and touches neither clipboard nor history in
// this case.
func EmptyInputError() *Error {
	return &Error{
		Code:       ExitCodeEmptyInput,
		Message:    "Nothing to convert: input is empty",
		Suggestion: "Copy results from Kusto Explorer or the Azure Data Explorer web UI, then run the conversion again.",
	}
}

func ClipboardReadError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgClipboardRead,
		Underlying: err,
		Suggestion: "Install wl-clipboard (Wayland) or xclip/xsel (X11) and make sure a display session is available.",
	}
}

func ClipboardWriteError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboard,
		Message:    ErrMsgClipboardWrite,
		Underlying: err,
		Suggestion: "Install wl-clipboard (Wayland) or xclip/xsel (X11), or rerun with --no-copy to skip the clipboard.",
	}
}

func HistoryError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeHistory,
		Message:    message,
		Underlying: err,
	}
}

func ConversionNotFoundError(id string) *Error {
	return &Error{
		Code:       ExitCodeHistory,
		Message:    fmt.Sprintf("No saved conversion matches '%s'", id),
		Suggestion: "Use 'kqlmd history list' to see saved conversions and their IDs.",
	}
}

func APIError(err error) *Error {
	return &Error{
		Code:       ExitCodeAPIRequest,
		Message:    "API request failed",
		Underlying: err,
	}
}

func AuthError() *Error {
	return &Error{
		Code:       ExitCodeAPIAuth,
		Message:    "Authentication failed. Check your Azure DevOps personal access token.",
		Suggestion: "Set KQLMD_AZURE_PAT (or AZURE_DEVOPS_EXT_PAT) or add it to your config file (~/.config/kqlmd/config.yaml)",
	}
}

func WorkItemNotFoundError(id int) *Error {
	return &Error{
		Code:       ExitCodeAPIRequest,
		Message:    fmt.Sprintf("Work item %d not found", id),
		Suggestion: "Verify the work item ID is correct and you have access to it.",
	}
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file or set the required environment variables.",
	}
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func FileError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeFileOperation,
		Message:    message,
		Underlying: err,
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:       ExitCodeCancellation,
		Message:    fmt.Sprintf("Operation cancelled: %s", operation),
		Suggestion: "The operation was interrupted. No changes were made.",
	}
}
