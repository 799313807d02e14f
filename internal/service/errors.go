package service

import "errors"

var (
	ErrBossNotFound = errors.New("boss not found")
	ErrInvalidTime  = errors.New("invalid kill time")
	ErrStorage      = errors.New("failed to save data")
)
