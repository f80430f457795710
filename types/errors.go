package types

import "errors"

// ErrInvalidArgument is returned for an empty key, a nil value or a
// negative TTL. It is always returned wrapped with the offending call's
// context, so match it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")
