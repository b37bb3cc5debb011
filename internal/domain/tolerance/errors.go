package tolerance

import "errors"

var (
	ErrSettingNotFound = errors.New("tolerance setting not found")
	ErrInvalidScope    = errors.New("invalid tolerance scope")
)
