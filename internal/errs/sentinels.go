// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a request the service refuses to pass to storage.
	ErrValidation = errors.New("validation")
)

// Sync pass sentinels. Their messages are surfaced to users as-is.
var (
	// ErrSyncInProgress is returned when a trigger arrives while another pass runs.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNoUsername indicates no user name is configured for this device.
	ErrNoUsername = errors.New("user name is not set")

	// ErrUserResolution indicates the identity service could not provide a usable user.
	ErrUserResolution = errors.New("failed to resolve user")

	// ErrMalformedLocalData indicates the stored entry list could not be parsed as a list.
	ErrMalformedLocalData = errors.New("local diary data is malformed")

	// ErrInvalidEntry indicates a record lacks a required field.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrSubmission indicates the remote store rejected a submission.
	ErrSubmission = errors.New("remote submission failed")
)
