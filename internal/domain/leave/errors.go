package leave

import "errors"

var (
	ErrInvalidPolicy = errors.New("invalid leave policy")
)
