package storage

import "errors"

var (
	errStoreClosed = errors.New("store is closed")
	errShortWrite  = errors.New("short write")
)
