package config

import "errors"

var (
	ErrInvalidKey  = errors.New("config: invalid key")
	ErrInvalidFile = errors.New("config: invalid file")
	ErrEnvParse    = errors.New("config: failed to parse environment")
)
