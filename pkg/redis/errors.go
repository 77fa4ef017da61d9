package redis

import "errors"

var (
	ErrEmptyURL          = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL        = errors.New("redis: invalid connection URL")
	ErrConnectionFailed  = errors.New("redis: could not connect")
	ErrHealthcheckFailed = errors.New("redis: ping failed")
)
