package fetch

import "fmt"

// ErrorKind is the structured classification of a transport failure.
// Retry decisions key off the kind, not the error message.
type ErrorKind string

const (
    KindTimeout   ErrorKind = "timeout"
    KindDNS       ErrorKind = "dns"
    KindConnReset ErrorKind = "conn_reset"
    KindTransport ErrorKind = "transport"
)

// Error is returned after retry exhaustion on non-HTTP failures. HTTP
// responses, retryable or not, are never wrapped in an Error.
type Error struct {
    Kind     ErrorKind
    URL      string
    Attempts int
    Err      error
}

func (e *Error) Error() string {
    return fmt.Sprintf("fetch %s: %s after %d attempt(s): %v", e.URL, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
