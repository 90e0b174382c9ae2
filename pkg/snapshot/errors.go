package snapshot

import "errors"

var (
	ErrNotFound      = errors.New("snapshot not found")
	ErrEmptyRouterID = errors.New("snapshot has no router id")
	ErrSaveFailed    = errors.New("failed to save snapshot")
	ErrLoadFailed    = errors.New("failed to load snapshot")
	ErrRestoreFailed = errors.New("failed to restore router from snapshot")
)
