package bilateral

import "errors"

// ErrMismatch is returned when the two trials are not one left and one right.
var ErrMismatch = errors.New("bilateral comparison needs one left and one right trial")
