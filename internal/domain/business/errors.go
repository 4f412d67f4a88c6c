package business

import "errors"

var (
	ErrSettingsNotFound = errors.New("business settings not found")
)
