package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("name already exists")
	// ErrSaveFailed is returned when a tag was created remotely but could not
	// be persisted locally. The remote segment is deleted (best effort) before
	// this is returned, so the caller can safely retry.
	ErrSaveFailed = errors.New("failed to save tag")
)
