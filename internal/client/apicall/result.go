package apicall

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoConnectivity is the error carried by a Failure of KindNoConnectivity.
var ErrNoConnectivity = errors.New("no network connectivity")

// Kind classifies a failed call.
type Kind int

const (
	// KindNoConnectivity: the pre-flight check failed, no attempt was made.
	KindNoConnectivity Kind = iota + 1
	// KindHTTP: the remote responded with a non-success status.
	KindHTTP
	// KindTransport: the call itself failed (dial, read, decode...).
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNoConnectivity:
		return "no_connectivity"
	case KindHTTP:
		return "http_error"
	case KindTransport:
		return "transport_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Response is what a remote operation hands back to Call.
type Response[T any] struct {
	StatusCode int
	Body       T
}

// OK reports whether the status is in the 2xx range.
func (r *Response[T]) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Failure describes why a call did not succeed.
type Failure struct {
	Kind Kind
	// Err is the underlying error; nil for KindHTTP.
	Err error
	// StatusCode is the HTTP status for KindHTTP, 0 otherwise.
	StatusCode int
	// Message is the user-facing text.
	Message string
}

func (f Failure) Error() string {
	switch {
	case f.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", f.Kind, f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	default:
		return f.Kind.String()
	}
}

func (f Failure) Unwrap() error { return f.Err }

// Result is either a Success holding data or a Failure, never both.
// The zero Result is neither and is only returned alongside a cancellation
// error.
type Result[T any] struct {
	data    T
	failure *Failure
	ok      bool
}

func Success[T any](data T) Result[T] {
	return Result[T]{data: data, ok: true}
}

func Fail[T any](f Failure) Result[T] {
	return Result[T]{failure: &f}
}

func (r Result[T]) IsSuccess() bool { return r.ok }

// Data returns the payload of a Success.
func (r Result[T]) Data() (T, bool) {
	if !r.ok {
		var zero T
		return zero, false
	}
	return r.data, true
}

// Failure returns the failure of a failed Result.
func (r Result[T]) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// Err returns the Failure as an error, or nil for a Success.
func (r Result[T]) Err() error {
	if r.failure == nil {
		return nil
	}
	return *r.failure
}
