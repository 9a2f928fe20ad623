package insight

import "errors"

var (
	ErrUnavailable     = errors.New("insight sidecar unavailable")
	ErrInvalidResponse = errors.New("invalid response from insight sidecar")
)
