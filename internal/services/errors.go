package services

import "errors"

// ErrMalformedGenerationOutput marks a provider response that failed to
// parse into candidate items. The orchestrator treats it as an empty pass
// and retries; it never escapes the generation boundary.
var ErrMalformedGenerationOutput = errors.New("malformed generation output")

// ErrUserNotFound fails a submission before any write happens.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionExists rejects a second submission reusing a session id.
var ErrSessionExists = errors.New("test session already exists")
