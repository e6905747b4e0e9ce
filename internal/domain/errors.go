package domain

import "errors"

var (
	// ErrHerbNotFound is returned when no herb in the pool matches any candidate name
	ErrHerbNotFound = errors.New("herb not found")

	// ErrFormulaNotFound is returned when a formula name matches no formula in the pool
	ErrFormulaNotFound = errors.New("formula not found")

	// ErrInvalidDosage is returned when a dosage string cannot be normalized
	ErrInvalidDosage = errors.New("invalid dosage")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrRecordSourceFailure is returned when herb or formula records cannot be fetched
	ErrRecordSourceFailure = errors.New("record source request failed")

	// ErrSnapshotUnavailable is returned when no record snapshot has been loaded
	ErrSnapshotUnavailable = errors.New("record snapshot unavailable")
)
