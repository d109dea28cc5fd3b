package database

import "errors"

var (
	// ErrDisabled indicates [database] enabled is false.
	ErrDisabled = errors.New("database disabled")
	// ErrNotReady indicates the startup ping has not succeeded.
	ErrNotReady = errors.New("database not ready")
)
