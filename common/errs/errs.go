package errs

import "fmt"

// HttpError carries a status code alongside the message so handlers can
// surface domain failures without leaking internals.
type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	if e.Data == nil {
		return fmt.Sprintf("code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}
