// Package ipc defines the discriminated-union result envelope and
// closed error-code enum the GUI IPC boundary (spec.md §6) uses to
// cross the process boundary between a UI host and this module's
// core. No transport is implemented here -- only the wire shape, so a
// future GUI host can bind to it without this module knowing about
// its IPC framework.
package ipc

import "github.com/LeagueToolkit/league-mod-sub000/internal/errkind"

// Code is the closed set of error codes the GUI boundary exposes,
// independent of the richer internal errkind.Kind taxonomy.
type Code string

const (
	CodeIO             Code = "Io"
	CodeSerialization  Code = "Serialization"
	CodeModpkg         Code = "Modpkg"
	CodeLeagueNotFound Code = "LeagueNotFound"
	CodeInvalidPath    Code = "InvalidPath"
	CodeModNotFound    Code = "ModNotFound"
	CodeValidationFail Code = "ValidationFailed"
	CodeInternalState  Code = "InternalState"
	CodeMutexLockFail  Code = "MutexLockFailed"
	CodeUnknown        Code = "Unknown"
)

// CodeFromKind maps the internal error-kind taxonomy (§7) onto the
// closed external code set. Kinds with no entry here map to
// CodeUnknown; the more specific codes (Modpkg, LeagueNotFound, ...)
// are never produced by this mapping and need an Error built directly.
func CodeFromKind(k errkind.Kind) Code {
	switch k {
	case errkind.Format:
		return CodeSerialization
	case errkind.Validation:
		return CodeValidationFail
	case errkind.IO:
		return CodeIO
	case errkind.MissingResource:
		return CodeModNotFound
	case errkind.Internal:
		return CodeInternalState
	default:
		return CodeUnknown
	}
}

// Error is the failure half of Result[T]'s discriminated union.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Result is the envelope every GUI IPC command returns: {ok: true,
// value} on success, {ok: false, error} on failure.
type Result[T any] struct {
	Ok    bool   `json:"ok"`
	Value T      `json:"value,omitempty"`
	Err   *Error `json:"error,omitempty"`
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Ok: true, Value: v}
}

// Fail wraps a failure under the given code.
func Fail[T any](code Code, message string) Result[T] {
	return Result[T]{Ok: false, Err: &Error{Code: code, Message: message}}
}

// FromError builds a failure Result from a Go error, mapping its
// errkind.Kind through CodeFromKind when the error exposes one through
// an ErrKind() method, and falling back to CodeUnknown otherwise.
func FromError[T any](err error) Result[T] {
	if err == nil {
		var zero T
		return Ok(zero)
	}
	code := CodeUnknown
	if k, ok := err.(interface{ ErrKind() errkind.Kind }); ok {
		code = CodeFromKind(k.ErrKind())
	}
	return Fail[T](code, err.Error())
}
