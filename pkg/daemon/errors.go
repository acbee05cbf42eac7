package daemon

import "errors"

// ErrInvalidInput rejects requests that carry no usable brightness source
// or values outside the accepted range. Handlers map it to HTTP 400.
var ErrInvalidInput = errors.New("invalid brightness request")

// errSuperseded stops a transition step whose generation is no longer
// current. It never leaves the daemon package: a superseded transition is
// not a failure, the newer request simply won.
var errSuperseded = errors.New("transition superseded")
