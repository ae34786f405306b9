package srverr

import "errors"

var ErrTypeAssertMismatch = errors.New("context value has unexpected type")
