// Package toolerr defines the closed set of failure kinds a tool call can
// end in, and the classification of raw filesystem errors into those kinds.
package toolerr

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
)

// Kind is a taxonomy bucket. Every failed call carries exactly one.
type Kind int

const (
	// Internal is an unexpected condition inside the gateway itself.
	Internal Kind = iota
	// AccessDenied means the path falls outside every allowed root.
	AccessDenied
	// InvalidArgument means a required argument is missing, mistyped or unparsable.
	InvalidArgument
	// NotFound means the target of a read, list or stat does not exist.
	NotFound
	// TooLarge means a read target exceeds the configured size limit.
	TooLarge
	// UnknownOperation means the tool name is not in the tool table.
	UnknownOperation
	// IOError is any other failure reported by the storage layer.
	IOError
)

var kindNames = map[Kind]string{
	Internal:         "Internal",
	AccessDenied:     "AccessDenied",
	InvalidArgument:  "InvalidArgument",
	NotFound:         "NotFound",
	TooLarge:         "TooLarge",
	UnknownOperation: "UnknownOperation",
	IOError:          "IOError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// HTTPStatus maps a kind to the status code the HTTP transport answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case AccessDenied:
		return http.StatusForbidden
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound, UnknownOperation:
		return http.StatusNotFound
	case TooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrAccessDenied     = &Error{Kind: AccessDenied}
	ErrInvalidArgument  = &Error{Kind: InvalidArgument}
	ErrNotFound         = &Error{Kind: NotFound}
	ErrTooLarge         = &Error{Kind: TooLarge}
	ErrUnknownOperation = &Error{Kind: UnknownOperation}
	ErrIO               = &Error{Kind: IOError}
	ErrInternal         = &Error{Kind: Internal}
)

// Error is a classified tool failure.
type Error struct {
	Kind Kind
	// Op is the tool or operation name, when known.
	Op string
	// Path is the path as the caller supplied it, when relevant.
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Path != "":
		return fmt.Sprintf("%s: %s", e.Msg, e.Path)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message or path.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a classified error with a message.
func New(kind Kind, op, path, msg string) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Msg: msg}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind, keeping it as the cause.
func Wrap(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind carried by err, or Internal when err is not
// classified. KindOf(nil) is meaningless and returns Internal.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return Internal
}

// Classify turns any error returned by a handler into a *Error.
//
// Already classified errors pass through with Op and Path filled in when
// they were empty. Non-existence maps to NotFound and everything else the
// filesystem reports maps to IOError. nil stays nil.
func Classify(op, path string, err error) *Error {
	if err == nil {
		return nil
	}

	var te *Error
	if errors.As(err, &te) {
		out := *te
		if out.Op == "" {
			out.Op = op
		}
		if out.Path == "" {
			out.Path = path
		}
		return &out
	}

	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Kind: NotFound, Op: op, Path: path, Err: err}
	}
	return &Error{Kind: IOError, Op: op, Path: path, Err: err}
}

// Format renders err as "<Kind>: <message>", the form clients see.
func Format(err error) string {
	return fmt.Sprintf("%s: %s", KindOf(err), err.Error())
}
