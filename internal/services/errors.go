package services

import "errors"

var (
	// ErrNotReady is returned by readers before the first refresh or restore.
	ErrNotReady = errors.New("dashboard data not loaded yet")

	ErrProjectNotFound = errors.New("project not found")

	// ErrNoSnapshot is returned by Restore when the store holds nothing.
	ErrNoSnapshot = errors.New("no snapshot available")
)
