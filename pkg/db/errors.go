package db

import "errors"

var (
	ErrInvalidConfig     = errors.New("db: invalid connection string")
	ErrConnectionFailed  = errors.New("db: could not connect")
	ErrHealthcheckFailed = errors.New("db: ping failed")
	ErrSetDialect        = errors.New("db: migrations dialect rejected")
	ErrApplyMigrations   = errors.New("db: migrations failed")
)
