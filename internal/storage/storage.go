package storage

import "errors"

const (
	UniqueViolation = "23505"
)

var (
	ErrWatchExists   = errors.New("watch already exists")
	ErrWatchNotFound = errors.New("watch not found")
	ErrCacheMiss     = errors.New("cache miss")
)
